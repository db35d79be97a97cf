package db

import (
	"errors"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"gorm.io/gorm"
)

var ErrSubmissionLocked = errors.New("onboarding submission is already submitted")

type SubmissionRepository struct {
	database *gorm.DB
}

func NewSubmissionRepository(database *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{database: database}
}

func (repo *SubmissionRepository) FindByAccountID(accountID uint) (models.OnboardingSubmission, error) {
	var submission models.OnboardingSubmission
	if err := repo.database.Where("account_id = ?", accountID).First(&submission).Error; err != nil {
		return models.OnboardingSubmission{}, err
	}
	return submission, nil
}

// SaveDraft upserts the working draft. A submitted record is never overwritten.
func (repo *SubmissionRepository) SaveDraft(accountID uint, draft models.OnboardingDraft, savedAt time.Time) (models.OnboardingSubmission, error) {
	var saved models.OnboardingSubmission
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		var existing models.OnboardingSubmission
		result := tx.Where("account_id = ?", accountID).First(&existing)
		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			existing = models.OnboardingSubmission{AccountID: accountID}
		case result.Error != nil:
			return result.Error
		case existing.IsSubmitted:
			return ErrSubmissionLocked
		}

		applyDraft(&existing, draft)
		existing.LastSavedAt = &savedAt
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		saved = existing
		return nil
	})
	if err != nil {
		return models.OnboardingSubmission{}, err
	}
	return saved, nil
}

// Submit stores the final draft and marks it submitted. A record that is
// already submitted is returned unchanged so repeated submits stay idempotent.
func (repo *SubmissionRepository) Submit(accountID uint, draft models.OnboardingDraft, submissionID string, submittedAt time.Time) (models.OnboardingSubmission, bool, error) {
	var stored models.OnboardingSubmission
	created := false
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		var existing models.OnboardingSubmission
		result := tx.Where("account_id = ?", accountID).First(&existing)
		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			existing = models.OnboardingSubmission{AccountID: accountID}
		case result.Error != nil:
			return result.Error
		case existing.IsSubmitted:
			stored = existing
			return nil
		}

		applyDraft(&existing, draft)
		existing.CurrentStep = models.StepReview
		existing.IsSubmitted = true
		existing.SubmissionID = submissionID
		existing.SubmittedAt = &submittedAt
		existing.LastSavedAt = &submittedAt
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		stored = existing
		created = true
		return nil
	})
	if err != nil {
		return models.OnboardingSubmission{}, false, err
	}
	return stored, created, nil
}

func applyDraft(record *models.OnboardingSubmission, draft models.OnboardingDraft) {
	draft = draft.Clone()
	record.CurrentStep = draft.CurrentStep
	if record.CurrentStep < models.StepBusinessProfile {
		record.CurrentStep = models.StepBusinessProfile
	}
	record.BusinessProfile = draft.BusinessProfile
	record.VoiceAgent = draft.VoiceAgent
	record.CollectionFields = draft.CollectionFields
	record.EmergencyHandling = draft.EmergencyHandling
	record.EmailConfig = draft.EmailConfig()
}

// DraftFromSubmission converts a stored record back into the wizard's draft shape.
func DraftFromSubmission(record models.OnboardingSubmission) models.OnboardingDraft {
	draft := models.OnboardingDraft{
		BusinessProfile:   record.BusinessProfile,
		VoiceAgent:        record.VoiceAgent,
		CollectionFields:  record.CollectionFields,
		EmergencyHandling: record.EmergencyHandling,
		CurrentStep:       record.CurrentStep,
		IsSubmitted:       record.IsSubmitted,
		SubmissionID:      record.SubmissionID,
		SubmittedAt:       record.SubmittedAt,
		LastSavedAt:       record.LastSavedAt,
	}.Clone()
	if record.EmailConfig != nil && record.EmailConfig.RecipientEmail != "" {
		if draft.CollectionFields == nil {
			draft.CollectionFields = &models.CollectionFields{}
		}
		if draft.CollectionFields.SummaryEmail == "" {
			draft.CollectionFields.SummaryEmail = record.EmailConfig.RecipientEmail
		}
	}
	return draft
}
