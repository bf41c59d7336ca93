package models

import "time"

type JsonModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	LookStatusPending  = "pending"
	LookStatusArchived = "archived"
	LookStatusFailed   = "failed"
)

// SavedLook is a finished recommendation the user chose to keep.
// The illustration is held in PendingImage until the archive task moves it to object storage.
type SavedLook struct {
	JsonModel
	PublicID       string               `gorm:"uniqueIndex;size:36" json:"public_id"`
	SessionID      string               `gorm:"index;size:36" json:"-"`
	Title          string               `json:"title"`
	Profile        PreferenceProfile    `gorm:"serializer:json;type:jsonb" json:"profile"`
	Recommendation OutfitRecommendation `gorm:"serializer:json;type:jsonb" json:"recommendation"`
	PendingImage   []byte               `json:"-"`
	ImageMIMEType  *string              `json:"-"`
	ImageKey       *string              `json:"-"`
	Status         string               `json:"status"` // pending, archived, failed
	ArchiveRetries int                  `json:"-"`
	ArchiveError   *string              `json:"-"`
}

type SavedLookOut struct {
	PublicID       string               `json:"public_id"`
	Title          string               `json:"title"`
	Profile        PreferenceProfile    `json:"profile"`
	Recommendation OutfitRecommendation `json:"recommendation"`
	Status         string               `json:"status"`
	ImageURL       *string              `json:"image_url"`
	CreatedAt      time.Time            `json:"created_at"`
}
