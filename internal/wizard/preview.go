package wizard

import (
	"fmt"
	"strings"

	"github.com/dougwhitewolff/vasop-client/internal/models"
)

const (
	defaultBusinessName = "Your Business"
	defaultAgentName    = "the AI assistant"
)

var greetingTemplates = map[string]string{
	models.PersonalityProfessional: "Thanks for calling %[1]s, I'm %[2]s, your AI assistant. How can I help you today?",
	models.PersonalityFriendly:     "Hi there! Thanks for calling %[1]s. I'm %[2]s, and I'm here to help. What can I do for you?",
	models.PersonalityFormal:       "Good day. You've reached %[1]s. This is %[2]s, your virtual assistant. How may I assist you?",
}

// GenerateGreeting fills the canned greeting for a personality.
func GenerateGreeting(personality string, businessName string, agentName string) string {
	template, ok := greetingTemplates[strings.ToLower(strings.TrimSpace(personality))]
	if !ok {
		template = greetingTemplates[models.PersonalityProfessional]
	}

	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		businessName = defaultBusinessName
	}
	agentName = strings.TrimSpace(agentName)
	if agentName == "" {
		agentName = defaultAgentName
	}
	return fmt.Sprintf(template, businessName, agentName)
}

type PreviewItem struct {
	Key   string
	Label string
}

// SummaryEmailPreview lists what the post-call email will contain for the
// given collection settings.
func SummaryEmailPreview(fields models.CollectionFields) []PreviewItem {
	items := []PreviewItem{
		{Key: "preview.contact", Label: "Customer contact information"},
		{Key: "preview.reason", Label: "Reason for their call"},
		{Key: "preview.details", Label: "All details they provided"},
	}
	if fields.Email {
		items = append(items, PreviewItem{Key: "preview.email", Label: "Customer email address"})
	}
	if fields.Urgency {
		items = append(items, PreviewItem{Key: "preview.urgency", Label: "Urgency level"})
	}
	if fields.PropertyAddress {
		items = append(items, PreviewItem{Key: "preview.property_address", Label: "Property address"})
	}
	if fields.BestTimeToCallback {
		items = append(items, PreviewItem{Key: "preview.callback_time", Label: "Best time to call back"})
	}
	for _, field := range fields.CustomFields {
		question := strings.TrimSpace(field.Question)
		if question == "" {
			continue
		}
		items = append(items, PreviewItem{Key: "", Label: question})
	}
	return append(items,
		PreviewItem{Key: "preview.transcript", Label: "Conversation transcript"},
		PreviewItem{Key: "preview.timestamp", Label: "Timestamp of call"},
	)
}

// EmergencyCallPreview describes what a caller hears and what happens next.
func EmergencyCallPreview(handling models.EmergencyHandling, businessName string, agentName string) (string, string) {
	if !handling.Enabled || strings.TrimSpace(handling.ForwardToNumber) == "" || handling.TriggerMethod == "" {
		return "", ""
	}

	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		businessName = defaultBusinessName
	}
	agentName = strings.TrimSpace(agentName)
	if agentName == "" {
		agentName = defaultAgentName
	}

	intro := fmt.Sprintf("Thanks for calling %s, I'm %s.", businessName, agentName)
	if handling.TriggerMethod == models.TriggerPoundKey {
		return intro + " If this is an emergency, press the pound key now to speak with someone immediately.",
			fmt.Sprintf("If they press #, the call forwards to %s", handling.ForwardToNumber)
	}
	return intro + " If this is an emergency, please let me know and I'll connect you immediately.",
		fmt.Sprintf("If they say \"emergency\" or similar keywords, the call forwards to %s", handling.ForwardToNumber)
}
