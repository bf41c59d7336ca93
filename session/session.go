package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vogueapi/languageutil"
	"vogueapi/models"
	"vogueapi/services"

	"github.com/rs/zerolog/log"
)

const (
	NoticeAnalysisComplete = "AI Analysis Complete: We've updated your profile based on your photo!"
	NoticeAnalysisFailed   = "Could not analyze image. Please try again or fill manually."
)

type Hooks struct {
	OnTransition func(sessionID string, from, to models.Step)
}

// Session owns one user's profile, the current step and the outputs of the last generation.
// All mutations go through its methods; provider calls run without holding the lock.
type Session struct {
	ID string

	mu                 sync.Mutex
	step               models.Step
	profile            models.PreferenceProfile
	countryStyleChosen bool
	suggestion         *models.OutfitRecommendation
	image              models.OutfitImage
	analyzing          bool
	notice             string
	lastError          string
	createdAt          time.Time
	updatedAt          time.Time

	// epoch increments on every transition; side-channel results started in an older epoch are stale.
	epoch uint64
	// generation identifies the submit whose result may still be applied.
	generation       uint64
	cancelGeneration context.CancelFunc

	provider services.StylistProvider
	hooks    Hooks
}

func New(id string, provider services.StylistProvider, hooks Hooks) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		step:      models.StepWelcome,
		profile:   models.DefaultProfile(),
		createdAt: now,
		updatedAt: now,
		provider:  provider,
		hooks:     hooks,
	}
}

func invalidTransition(from, to models.Step) error {
	return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
}

// transition must be called with mu held.
func (s *Session) transition(to models.Step) error {
	from := s.step
	if !from.CanTransitionTo(to) {
		return invalidTransition(from, to)
	}
	s.step = to
	s.epoch++
	s.updatedAt = time.Now()
	if s.hooks.OnTransition != nil {
		s.hooks.OnTransition(s.ID, from, to)
	}
	return nil
}

func (s *Session) Step() models.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Profile() models.PreferenceProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(models.StepForm)
}

// ProfileUpdate carries the fields to change; nil fields are left untouched.
type ProfileUpdate struct {
	Occasion     *string
	Gender       *string
	Generation   *string
	BodyType     *string
	Complexion   *string
	Fabric       *string
	CountryStyle *string
	Weather      *string
}

func applyUpdate(p models.PreferenceProfile, u ProfileUpdate) (models.PreferenceProfile, error) {
	var err error
	setters := []struct {
		value *string
		set   func(models.PreferenceProfile, string) (models.PreferenceProfile, error)
	}{
		{u.Occasion, models.PreferenceProfile.WithOccasion},
		{u.Gender, models.PreferenceProfile.WithGender},
		{u.Generation, models.PreferenceProfile.WithGeneration},
		{u.BodyType, models.PreferenceProfile.WithBodyType},
		{u.Complexion, models.PreferenceProfile.WithComplexion},
		{u.Fabric, models.PreferenceProfile.WithFabric},
	}
	for _, setter := range setters {
		if setter.value == nil {
			continue
		}
		if p, err = setter.set(p, *setter.value); err != nil {
			return p, err
		}
	}
	if u.CountryStyle != nil {
		p = p.WithCountryStyle(*u.CountryStyle)
	}
	if u.Weather != nil {
		p = p.WithWeather(*u.Weather)
	}
	return p, nil
}

// UpdateProfile applies all fields of u or none of them. Only allowed in form.
func (s *Session) UpdateProfile(u ProfileUpdate) (models.PreferenceProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != models.StepForm {
		return s.profile, fmt.Errorf("%w: profile is editable only in %s, session is in %s", models.ErrInvalidTransition, models.StepForm, s.step)
	}
	updated, err := applyUpdate(s.profile, u)
	if err != nil {
		return s.profile, err
	}
	if u.CountryStyle != nil && updated.CountryStyle != s.profile.CountryStyle {
		s.countryStyleChosen = true
	}
	s.profile = updated
	s.updatedAt = time.Now()
	return s.profile, nil
}

// ApplyLocation defaults the regional style from geolocation. It never overrides a style the
// user picked and only applies before the first submit.
func (s *Session) ApplyLocation(country string) bool {
	country = languageutil.NormalizePlace(country)
	if country == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countryStyleChosen || (s.step != models.StepWelcome && s.step != models.StepForm) {
		return false
	}
	s.profile = s.profile.WithCountryStyle(country)
	s.updatedAt = time.Now()
	return true
}

// Submission is one in-flight generation started by BeginSubmit.
type Submission struct {
	ctx        context.Context
	generation uint64
	profile    models.PreferenceProfile
}

// BeginSubmit moves form to loading and snapshots the profile. The previous recommendation and
// image are discarded. The returned submission must be passed to CompleteSubmit.
func (s *Session) BeginSubmit(parent context.Context) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.profile.Validate(); err != nil {
		return nil, err
	}
	if err := s.transition(models.StepLoading); err != nil {
		return nil, err
	}
	s.suggestion = nil
	s.image = models.OutfitImage{}
	s.lastError = ""
	s.generation++

	ctx, cancel := context.WithCancel(parent)
	s.cancelGeneration = cancel
	return &Submission{ctx: ctx, generation: s.generation, profile: s.profile}, nil
}

// CompleteSubmit runs recommendation then illustration, strictly in that order, and applies the
// outcome if the submission is still current. ErrStaleResult means it was cancelled or superseded.
func (s *Session) CompleteSubmit(sub *Submission) error {
	logger := log.Ctx(sub.ctx).With().Str("session_id", s.ID).Uint64("generation", sub.generation).Logger()

	recommendation, err := s.provider.GenerateRecommendation(sub.ctx, sub.profile)
	if err != nil {
		logger.Error().Err(err).Msgf("[Session: %s] recommendation failed, returning to form", s.ID)
		s.finishFailed(sub, err)
		return err
	}

	image, hasImage := s.provider.GenerateIllustration(sub.ctx, recommendation.ImagePrompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != sub.generation || s.step != models.StepLoading {
		logger.Info().Msg("discarding result of superseded generation")
		return models.ErrStaleResult
	}
	s.releaseGeneration()
	s.suggestion = recommendation
	if hasImage {
		s.image = image
	}
	if err := s.transition(models.StepResult); err != nil {
		return err
	}
	logger.Info().Bool("has_image", hasImage).Int("items", len(recommendation.Items)).Msg("recommendation ready")
	return nil
}

func (s *Session) finishFailed(sub *Submission, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != sub.generation || s.step != models.StepLoading {
		return
	}
	s.releaseGeneration()
	s.suggestion = nil
	s.image = models.OutfitImage{}
	s.lastError = publicError(cause)
	_ = s.transition(models.StepForm)
}

// releaseGeneration must be called with mu held.
func (s *Session) releaseGeneration() {
	if s.cancelGeneration != nil {
		s.cancelGeneration()
		s.cancelGeneration = nil
	}
}

// Submit is BeginSubmit followed by CompleteSubmit on the caller's goroutine.
func (s *Session) Submit(ctx context.Context) error {
	sub, err := s.BeginSubmit(ctx)
	if err != nil {
		return err
	}
	return s.CompleteSubmit(sub)
}

// Cancel aborts an in-flight generation and returns to form. Its late result is discarded.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != models.StepLoading {
		return invalidTransition(s.step, models.StepForm)
	}
	s.releaseGeneration()
	s.generation++
	return s.transition(models.StepForm)
}

// Refine returns from result to form keeping the profile.
func (s *Session) Refine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != models.StepResult {
		return invalidTransition(s.step, models.StepForm)
	}
	return s.transition(models.StepForm)
}

// Close cancels any in-flight generation. Used when the session expires.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseGeneration()
	s.generation++
}

// AnalyzePhoto runs the photo-analysis side channel. Only one analysis may run per session.
// On success the profile is patched unless the session left form meanwhile, in which case
// the result is returned with ErrStaleResult and not applied.
func (s *Session) AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) (*models.PhotoAnalysisResult, error) {
	s.mu.Lock()
	if s.step != models.StepForm {
		step := s.step
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: photo analysis is available only in %s, session is in %s", models.ErrInvalidTransition, models.StepForm, step)
	}
	if s.analyzing {
		s.mu.Unlock()
		return nil, models.ErrAnalysisInFlight
	}
	s.analyzing = true
	startEpoch := s.epoch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.analyzing = false
		s.mu.Unlock()
	}()

	result, err := s.provider.AnalyzePhoto(ctx, imageData, mimeType)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", s.ID).Msg("photo analysis failed")
		if s.step == models.StepForm {
			s.notice = NoticeAnalysisFailed
		}
		return nil, err
	}
	if s.epoch != startEpoch || s.step != models.StepForm {
		log.Ctx(ctx).Info().Str("session_id", s.ID).Msg("discarding stale photo analysis")
		return result, models.ErrStaleResult
	}
	s.profile = s.profile.WithAnalysis(*result)
	s.countryStyleChosen = true
	s.notice = NoticeAnalysisComplete
	s.updatedAt = time.Now()
	return result, nil
}

func (s *Session) Analyzing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzing
}

// Image returns the illustration of the current result, if any.
func (s *Session) Image() (models.OutfitImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, !s.image.Empty()
}

// Result returns what a saved look needs. ok is false outside the result step.
func (s *Session) Result() (models.PreferenceProfile, models.OutfitRecommendation, models.OutfitImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != models.StepResult || s.suggestion == nil {
		return s.profile, models.OutfitRecommendation{}, models.OutfitImage{}, false
	}
	return s.profile, *s.suggestion, s.image, true
}

func publicError(err error) string {
	switch {
	case errors.Is(err, models.ErrSchemaViolation):
		return "The stylist returned an incomplete answer. Please try again."
	case errors.Is(err, models.ErrTransport):
		return "The stylist is unavailable right now. Please try again."
	default:
		return "Could not generate a recommendation. Please try again."
	}
}
