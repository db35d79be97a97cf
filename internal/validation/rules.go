package validation

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	minForwardNumberLength = 10
	enabledRequirementTag  = "required_when_enabled"
)

func oneOf(values []string) string {
	return "oneof=" + strings.Join(values, " ")
}

var BusinessProfileRules = Table{
	Name: "businessProfile",
	Types: []TypeRules{
		{
			Sample: models.BusinessProfile{},
			Fields: map[string]Rule{
				"BusinessName": {Constraints: "required,min=2", Message: "Business name must be at least 2 characters"},
				"Industry":     {Constraints: "required," + oneOf(models.Industries), Message: "Please select an industry"},
				"Website":      {Constraints: "omitempty," + websiteTag, Message: "Enter a valid website address"},
				"Phone":        {Constraints: "required,min=10," + phoneTag, Message: "Phone number must be at least 10 digits"},
				"Email":        {Constraints: "required,email", Message: "Invalid email address"},
			},
		},
		{
			Sample: models.Address{},
			Fields: map[string]Rule{
				"Street": {Constraints: "required", Message: "Street address is required"},
				"City":   {Constraints: "required", Message: "City is required"},
				"State":  {Constraints: "required," + oneOf(models.USStateCodes), Message: "Please select a state"},
				"Zip":    {Constraints: "required," + zipTag, Message: "ZIP code must be 5 digits"},
			},
		},
		{
			Sample: models.BusinessHours{},
			Fields: map[string]Rule{
				"MondayFriday": {Constraints: "required", Message: "Monday-Friday hours are required"},
				"Saturday":     {Constraints: "required", Message: "Saturday hours are required"},
				"Sunday":       {Constraints: "required", Message: "Sunday hours are required"},
			},
		},
	},
}

var VoiceAgentRules = Table{
	Name: "voiceAgent",
	Types: []TypeRules{
		{
			Sample: models.VoiceAgent{},
			Fields: map[string]Rule{
				"AgentName": {
					Constraints: "required,min=2,max=20",
					Messages: map[string]string{
						"required": "Agent name is required",
						"min":      "Agent name must be at least 2 characters",
						"max":      "Agent name must be at most 20 characters",
					},
				},
				"AgentPersonality": {Constraints: "required," + oneOf(models.Personalities), Message: "Please select a personality"},
				"Greeting": {
					Constraints: "required,min=20,max=500",
					Messages: map[string]string{
						"required": "Greeting is required",
						"min":      "Greeting must be at least 20 characters",
						"max":      "Greeting must be at most 500 characters",
					},
				},
				"Voice": {Constraints: "required," + oneOf(models.Voices), Message: "Please select a voice"},
			},
		},
	},
}

var CollectionFieldsRules = Table{
	Name: "collectionFields",
	Types: []TypeRules{
		{
			Sample: models.CollectionFields{},
			Fields: map[string]Rule{
				"SummaryEmail": {Constraints: "omitempty,email", Message: "Invalid email address"},
				"CustomFields": {Constraints: "max=5,dive", Message: "You can add up to 5 custom questions"},
			},
		},
		{
			Sample: models.CustomField{},
			Fields: map[string]Rule{
				"Question": {Constraints: "required,min=5", Message: "Question must be at least 5 characters"},
			},
		},
	},
}

var EmergencyHandlingRules = Table{
	Name: "emergencyHandling",
	Types: []TypeRules{
		{
			Sample: models.EmergencyHandling{},
			Fields: map[string]Rule{
				"ForwardToNumber": {Message: "Forward-to number must be at least 10 digits"},
				"TriggerMethod":   {Message: "Please choose how callers trigger emergency forwarding"},
			},
		},
	},
	Refinements: []Refinement{
		{Sample: models.EmergencyHandling{}, Check: emergencyRoutingRefinement},
	},
}

// emergencyRoutingRefinement requires routing details only while forwarding is enabled.
func emergencyRoutingRefinement(level validator.StructLevel) {
	handling, ok := level.Current().Interface().(models.EmergencyHandling)
	if !ok || !handling.Enabled {
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(handling.ForwardToNumber)) < minForwardNumberLength {
		level.ReportError(handling.ForwardToNumber, "forwardToNumber", "ForwardToNumber", enabledRequirementTag, "10")
	}
	if !slices.Contains(models.TriggerMethods, handling.TriggerMethod) {
		level.ReportError(handling.TriggerMethod, "triggerMethod", "TriggerMethod", enabledRequirementTag, "")
	}
}

var EmailConfigRules = Table{
	Name: "emailConfig",
	Types: []TypeRules{
		{
			Sample: models.EmailConfig{},
			Fields: map[string]Rule{
				"RecipientEmail": {
					Constraints: "required,email",
					Messages: map[string]string{
						"required": "Recipient email is required",
						"email":    "Invalid email address",
					},
				},
			},
		},
	},
}

var AuthRules = Table{
	Name: "auth",
	Types: []TypeRules{
		{
			Sample: models.LoginForm{},
			Fields: map[string]Rule{
				"Email":    {Constraints: "required,email", Message: "Invalid email address"},
				"Password": {Constraints: "required", Message: "Password is required"},
			},
		},
		{
			Sample: models.SignupForm{},
			Fields: map[string]Rule{
				"Name":            {Constraints: "required,min=2", Message: "Name must be at least 2 characters"},
				"Email":           {Constraints: "required,email", Message: "Invalid email address"},
				"Phone":           {Constraints: "required,min=10," + phoneTag, Message: "Phone number must be at least 10 digits"},
				"Password":        {Constraints: "required,min=8", Message: "Password must be at least 8 characters"},
				"ConfirmPassword": {Constraints: "eqfield=Password", Message: "Passwords don't match"},
			},
		},
		{
			Sample: models.ForgotPasswordForm{},
			Fields: map[string]Rule{
				"Email": {Constraints: "required,email", Message: "Invalid email address"},
			},
		},
		{
			Sample: models.ResetPasswordForm{},
			Fields: map[string]Rule{
				"Email":           {Constraints: "required,email", Message: "Invalid email address"},
				"OTP":             {Constraints: "required,len=6,numeric", Message: "OTP must be 6 digits"},
				"NewPassword":     {Constraints: "required,min=6", Message: "Password must be at least 6 characters"},
				"ConfirmPassword": {Constraints: "eqfield=NewPassword", Message: "Passwords don't match"},
			},
		},
	},
}

// StepTables maps a wizard step to its rule table. The review step has none.
var StepTables = map[int]Table{
	models.StepBusinessProfile:   BusinessProfileRules,
	models.StepVoiceAgent:        VoiceAgentRules,
	models.StepCollectionFields:  CollectionFieldsRules,
	models.StepEmergencyHandling: EmergencyHandlingRules,
	models.StepEmailConfig:       EmailConfigRules,
}

func AllTables() []Table {
	return []Table{
		BusinessProfileRules,
		VoiceAgentRules,
		CollectionFieldsRules,
		EmergencyHandlingRules,
		EmailConfigRules,
		AuthRules,
	}
}
