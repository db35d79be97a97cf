package models

import (
	"strings"
	"time"
)

const (
	StepBusinessProfile   = 1
	StepVoiceAgent        = 2
	StepCollectionFields  = 3
	StepEmergencyHandling = 4
	StepEmailConfig       = 5
	StepReview            = 6
	TotalSteps            = StepReview
)

const MaxCustomFields = 5

// StepSlice is the part of the draft owned by one wizard step.
type StepSlice interface {
	Step() int
}

type Address struct {
	Street string `json:"street" form:"street"`
	City   string `json:"city" form:"city"`
	State  string `json:"state" form:"state"`
	Zip    string `json:"zip" form:"zip"`
}

type BusinessHours struct {
	MondayFriday string `json:"mondayFriday" form:"mondayFriday"`
	Saturday     string `json:"saturday" form:"saturday"`
	Sunday       string `json:"sunday" form:"sunday"`
}

type BusinessProfile struct {
	BusinessName string        `json:"businessName" form:"businessName"`
	Industry     string        `json:"industry" form:"industry"`
	Website      string        `json:"website" form:"website"`
	Phone        string        `json:"phone" form:"phone"`
	Email        string        `json:"email" form:"email"`
	Address      Address       `json:"address" form:"address"`
	Hours        BusinessHours `json:"hours" form:"hours"`
}

func (BusinessProfile) Step() int { return StepBusinessProfile }

func (profile BusinessProfile) Normalized() BusinessProfile {
	profile.BusinessName = strings.TrimSpace(profile.BusinessName)
	profile.Industry = strings.TrimSpace(profile.Industry)
	profile.Website = strings.TrimSpace(profile.Website)
	profile.Phone = strings.TrimSpace(profile.Phone)
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	profile.Address.Street = strings.TrimSpace(profile.Address.Street)
	profile.Address.City = strings.TrimSpace(profile.Address.City)
	profile.Address.State = strings.ToUpper(strings.TrimSpace(profile.Address.State))
	profile.Address.Zip = strings.TrimSpace(profile.Address.Zip)
	profile.Hours.MondayFriday = strings.TrimSpace(profile.Hours.MondayFriday)
	profile.Hours.Saturday = strings.TrimSpace(profile.Hours.Saturday)
	profile.Hours.Sunday = strings.TrimSpace(profile.Hours.Sunday)
	return profile
}

type VoiceAgent struct {
	AgentName        string `json:"agentName" form:"agentName"`
	AgentPersonality string `json:"agentPersonality" form:"agentPersonality"`
	Greeting         string `json:"greeting" form:"greeting"`
	Voice            string `json:"voice" form:"voice"`
}

func (VoiceAgent) Step() int { return StepVoiceAgent }

func (agent VoiceAgent) Normalized() VoiceAgent {
	agent.AgentName = strings.TrimSpace(agent.AgentName)
	agent.AgentPersonality = strings.ToLower(strings.TrimSpace(agent.AgentPersonality))
	agent.Greeting = strings.TrimSpace(agent.Greeting)
	agent.Voice = strings.ToLower(strings.TrimSpace(agent.Voice))
	return agent
}

type CustomField struct {
	Question string `json:"question" form:"question"`
	Required bool   `json:"required" form:"required"`
}

// CollectionFields is also the owner of SummaryEmail; the email
// configuration step edits it and EmailConfig is derived from it.
type CollectionFields struct {
	SummaryEmail       string        `json:"summaryEmail" form:"summaryEmail"`
	Email              bool          `json:"email" form:"email"`
	Urgency            bool          `json:"urgency" form:"urgency"`
	PropertyAddress    bool          `json:"propertyAddress" form:"propertyAddress"`
	BestTimeToCallback bool          `json:"bestTimeToCallback" form:"bestTimeToCallback"`
	CustomFields       []CustomField `json:"customFields" form:"customFields"`
}

func (CollectionFields) Step() int { return StepCollectionFields }

func (fields CollectionFields) Normalized() CollectionFields {
	fields.SummaryEmail = strings.ToLower(strings.TrimSpace(fields.SummaryEmail))
	custom := make([]CustomField, 0, len(fields.CustomFields))
	for _, field := range fields.CustomFields {
		field.Question = strings.TrimSpace(field.Question)
		custom = append(custom, field)
	}
	fields.CustomFields = custom
	return fields
}

// CanAddCustomField reports whether one more question fits under the cap.
func (fields CollectionFields) CanAddCustomField() bool {
	return len(fields.CustomFields) < MaxCustomFields
}

type EmergencyHandling struct {
	Enabled         bool   `json:"enabled" form:"enabled"`
	ForwardToNumber string `json:"forwardToNumber" form:"forwardToNumber"`
	TriggerMethod   string `json:"triggerMethod" form:"triggerMethod"`
}

func (EmergencyHandling) Step() int { return StepEmergencyHandling }

// Normalized clears routing fields when emergency forwarding is off.
func (handling EmergencyHandling) Normalized() EmergencyHandling {
	if !handling.Enabled {
		return EmergencyHandling{}
	}
	handling.ForwardToNumber = strings.TrimSpace(handling.ForwardToNumber)
	handling.TriggerMethod = strings.ToLower(strings.TrimSpace(handling.TriggerMethod))
	return handling
}

type EmailConfig struct {
	RecipientEmail string `json:"recipientEmail" form:"recipientEmail"`
}

func (EmailConfig) Step() int { return StepEmailConfig }

func (config EmailConfig) Normalized() EmailConfig {
	config.RecipientEmail = strings.ToLower(strings.TrimSpace(config.RecipientEmail))
	return config
}

type OnboardingDraft struct {
	BusinessProfile   *BusinessProfile   `json:"businessProfile"`
	VoiceAgent        *VoiceAgent        `json:"voiceAgent"`
	CollectionFields  *CollectionFields  `json:"collectionFields"`
	EmergencyHandling *EmergencyHandling `json:"emergencyHandling"`
	CurrentStep       int                `json:"currentStep"`
	IsSubmitted       bool               `json:"isSubmitted"`
	SubmissionID      string             `json:"submissionId,omitempty"`
	SubmittedAt       *time.Time         `json:"submittedAt,omitempty"`
	LastSavedAt       *time.Time         `json:"lastSavedAt,omitempty"`
}

// EmailConfig derives the notification target from collectionFields.summaryEmail.
func (draft OnboardingDraft) EmailConfig() *EmailConfig {
	if draft.CollectionFields == nil || draft.CollectionFields.SummaryEmail == "" {
		return nil
	}
	return &EmailConfig{RecipientEmail: draft.CollectionFields.SummaryEmail}
}

// Clone returns a deep copy so callers never share slice pointers.
func (draft OnboardingDraft) Clone() OnboardingDraft {
	clone := draft
	if draft.BusinessProfile != nil {
		profile := *draft.BusinessProfile
		clone.BusinessProfile = &profile
	}
	if draft.VoiceAgent != nil {
		agent := *draft.VoiceAgent
		clone.VoiceAgent = &agent
	}
	if draft.CollectionFields != nil {
		fields := *draft.CollectionFields
		fields.CustomFields = append([]CustomField(nil), draft.CollectionFields.CustomFields...)
		clone.CollectionFields = &fields
	}
	if draft.EmergencyHandling != nil {
		handling := *draft.EmergencyHandling
		clone.EmergencyHandling = &handling
	}
	if draft.SubmittedAt != nil {
		submittedAt := *draft.SubmittedAt
		clone.SubmittedAt = &submittedAt
	}
	if draft.LastSavedAt != nil {
		lastSavedAt := *draft.LastSavedAt
		clone.LastSavedAt = &lastSavedAt
	}
	return clone
}

func (draft OnboardingDraft) BusinessName() string {
	if draft.BusinessProfile == nil {
		return ""
	}
	return draft.BusinessProfile.BusinessName
}

type SubmissionReceipt struct {
	SubmissionID string
	SubmittedAt  time.Time
	Message      string
}
