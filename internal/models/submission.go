package models

import "time"

// OnboardingSubmission is the persisted draft or submitted application of one account.
type OnboardingSubmission struct {
	ID                uint               `gorm:"primaryKey"`
	AccountID         uint               `gorm:"uniqueIndex;not null"`
	CurrentStep       int                `gorm:"not null;default:1"`
	BusinessProfile   *BusinessProfile   `gorm:"serializer:json"`
	VoiceAgent        *VoiceAgent        `gorm:"serializer:json"`
	CollectionFields  *CollectionFields  `gorm:"serializer:json"`
	EmergencyHandling *EmergencyHandling `gorm:"serializer:json"`
	EmailConfig       *EmailConfig       `gorm:"serializer:json"`
	IsSubmitted       bool               `gorm:"not null;default:false"`
	SubmissionID      string
	SubmittedAt       *time.Time
	LastSavedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (OnboardingSubmission) TableName() string {
	return "onboarding_submissions"
}

// WizardSnapshot holds the serialized working state of a user's wizard.
type WizardSnapshot struct {
	Key       string    `gorm:"column:snapshot_key;primaryKey"`
	Payload   []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}
