package remote

import (
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
)

const (
	SignupPath         = "/vasop/auth/signup"
	LoginPath          = "/vasop/auth/login"
	MePath             = "/vasop/auth/me"
	ForgotPasswordPath = "/vasop/auth/forgot-password"
	ResetPasswordPath  = "/vasop/auth/reset-password"
	SaveDraftPath      = "/vasop/onboarding/save"
	MySubmissionPath   = "/vasop/onboarding/my-submission"
	SubmitPath         = "/vasop/onboarding/submit"
	PreviewVoicePath   = "/vasop/onboarding/preview-voice"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type MeResponse struct {
	User models.User `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DraftPayload is the body of save and submit. The voice agent slice is
// named voiceAgentConfig on the wire.
type DraftPayload struct {
	CurrentStep       int                       `json:"currentStep,omitempty"`
	BusinessProfile   *models.BusinessProfile   `json:"businessProfile"`
	VoiceAgentConfig  *models.VoiceAgent        `json:"voiceAgentConfig"`
	CollectionFields  *models.CollectionFields  `json:"collectionFields"`
	EmergencyHandling *models.EmergencyHandling `json:"emergencyHandling"`
	EmailConfig       *models.EmailConfig       `json:"emailConfig"`
}

type SubmissionRecord struct {
	DraftPayload
	IsSubmitted  bool       `json:"isSubmitted"`
	SubmissionID string     `json:"submissionId,omitempty"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	LastSavedAt  *time.Time `json:"lastSavedAt,omitempty"`
}

type MySubmissionResponse struct {
	Submission *SubmissionRecord `json:"submission"`
}

type SubmitResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	SubmissionID string    `json:"submissionId"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

type PreviewVoiceRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func PayloadFromDraft(draft models.OnboardingDraft) DraftPayload {
	draft = draft.Clone()
	return DraftPayload{
		CurrentStep:       draft.CurrentStep,
		BusinessProfile:   draft.BusinessProfile,
		VoiceAgentConfig:  draft.VoiceAgent,
		CollectionFields:  draft.CollectionFields,
		EmergencyHandling: draft.EmergencyHandling,
		EmailConfig:       draft.EmailConfig(),
	}
}

// Draft converts the wire payload to the canonical draft. A recipient that
// only exists in emailConfig is adopted as the summary email.
func (payload DraftPayload) Draft() models.OnboardingDraft {
	draft := models.OnboardingDraft{
		BusinessProfile:   payload.BusinessProfile,
		VoiceAgent:        payload.VoiceAgentConfig,
		CollectionFields:  payload.CollectionFields,
		EmergencyHandling: payload.EmergencyHandling,
		CurrentStep:       payload.CurrentStep,
	}.Clone()
	if payload.EmailConfig != nil && payload.EmailConfig.RecipientEmail != "" {
		if draft.CollectionFields == nil {
			draft.CollectionFields = &models.CollectionFields{}
		}
		if draft.CollectionFields.SummaryEmail == "" {
			draft.CollectionFields.SummaryEmail = payload.EmailConfig.RecipientEmail
		}
	}
	return draft
}

func (record SubmissionRecord) Draft() models.OnboardingDraft {
	draft := record.DraftPayload.Draft()
	draft.IsSubmitted = record.IsSubmitted
	draft.SubmissionID = record.SubmissionID
	draft.SubmittedAt = record.SubmittedAt
	draft.LastSavedAt = record.LastSavedAt
	return draft.Clone()
}
