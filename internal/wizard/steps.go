package wizard

import "github.com/dougwhitewolff/vasop-client/internal/models"

type StepDefinition struct {
	Number   int
	Key      string
	Label    string
	LabelKey string
}

var Steps = []StepDefinition{
	{Number: models.StepBusinessProfile, Key: "business_profile", Label: "Business Profile", LabelKey: "steps.business_profile"},
	{Number: models.StepVoiceAgent, Key: "voice_agent", Label: "Voice Agent", LabelKey: "steps.voice_agent"},
	{Number: models.StepCollectionFields, Key: "collection_fields", Label: "Collection Fields", LabelKey: "steps.collection_fields"},
	{Number: models.StepEmergencyHandling, Key: "emergency_handling", Label: "Emergency Handling", LabelKey: "steps.emergency_handling"},
	{Number: models.StepEmailConfig, Key: "email_config", Label: "Email Configuration", LabelKey: "steps.email_config"},
	{Number: models.StepReview, Key: "review", Label: "Review & Submit", LabelKey: "steps.review"},
}

func StepByNumber(number int) (StepDefinition, bool) {
	for _, step := range Steps {
		if step.Number == number {
			return step, true
		}
	}
	return StepDefinition{}, false
}

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepUpcoming  StepStatus = "upcoming"
)

type ProgressItem struct {
	StepDefinition
	Status    StepStatus
	Clickable bool
}

// Progress derives the indicator for currentStep. Only completed steps are clickable.
func Progress(currentStep int) []ProgressItem {
	items := make([]ProgressItem, 0, len(Steps))
	for _, step := range Steps {
		status := StepUpcoming
		switch {
		case step.Number < currentStep:
			status = StepCompleted
		case step.Number == currentStep:
			status = StepCurrent
		}
		items = append(items, ProgressItem{
			StepDefinition: step,
			Status:         status,
			Clickable:      status == StepCompleted,
		})
	}
	return items
}

type ProgressSummary struct {
	Items      []ProgressItem
	Completed  int
	Total      int
	Percentage int
}

func Summarize(currentStep int) ProgressSummary {
	step := clampStep(currentStep)
	completed := step - 1
	return ProgressSummary{
		Items:      Progress(step),
		Completed:  completed,
		Total:      models.TotalSteps,
		Percentage: completed * 100 / models.TotalSteps,
	}
}
