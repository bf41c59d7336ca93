package session

import (
	"time"

	"vogueapi/languageutil"
	"vogueapi/models"
)

// View is the JSON snapshot of a session returned to clients.
type View struct {
	ID              string                       `json:"id"`
	Step            models.Step                  `json:"step"`
	NextSteps       []models.Step                `json:"next_steps"`
	Profile         models.PreferenceProfile     `json:"profile"`
	ActiveQuickPick string                       `json:"active_quick_pick,omitempty"`
	Analyzing       bool                         `json:"analyzing"`
	Notice          string                       `json:"notice,omitempty"`
	Error           string                       `json:"error,omitempty"`
	Suggestion      *models.OutfitRecommendation `json:"suggestion"`
	OutfitImage     *string                      `json:"outfit_image"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SnapshotAndTakeNotice returns the view and clears its notice in the same critical section,
// so a notice is shown exactly once.
func (s *Session) SnapshotAndTakeNotice() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.snapshotLocked()
	s.notice = ""
	return view
}

func (s *Session) snapshotLocked() View {
	view := View{
		ID:         s.ID,
		Step:       s.step,
		NextSteps:  s.step.NextSteps(),
		Profile:    s.profile,
		Analyzing:  s.analyzing,
		Notice:     s.notice,
		Error:      s.lastError,
		Suggestion: s.suggestion,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	if region, ok := languageutil.MatchQuickPick(s.profile.CountryStyle); ok {
		view.ActiveQuickPick = region
	}
	if !s.image.Empty() {
		dataURL := s.image.DataURL()
		view.OutfitImage = &dataURL
	}
	return view
}

// TakeNotice returns the pending notice and clears it so it is shown once.
func (s *Session) TakeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice := s.notice
	s.notice = ""
	return notice
}
