package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/gofiber/fiber/v2"
)

// Form field names follow the validation paths so errors land on the input
// that produced them.

func decodeStepSlice(c *fiber.Ctx, step int) (models.StepSlice, error) {
	switch step {
	case models.StepBusinessProfile:
		return decodeBusinessProfile(c), nil
	case models.StepVoiceAgent:
		return decodeVoiceAgent(c), nil
	case models.StepCollectionFields:
		return decodeCollectionFields(c), nil
	case models.StepEmergencyHandling:
		return decodeEmergencyHandling(c), nil
	case models.StepEmailConfig:
		return models.EmailConfig{RecipientEmail: c.FormValue("recipientEmail")}, nil
	case models.StepReview:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown step %d", step)
	}
}

func decodeBusinessProfile(c *fiber.Ctx) models.BusinessProfile {
	return models.BusinessProfile{
		BusinessName: c.FormValue("businessName"),
		Industry:     c.FormValue("industry"),
		Website:      c.FormValue("website"),
		Phone:        c.FormValue("phone"),
		Email:        c.FormValue("email"),
		Address: models.Address{
			Street: c.FormValue("address.street"),
			City:   c.FormValue("address.city"),
			State:  c.FormValue("address.state"),
			Zip:    c.FormValue("address.zip"),
		},
		Hours: models.BusinessHours{
			MondayFriday: c.FormValue("hours.mondayFriday"),
			Saturday:     c.FormValue("hours.saturday"),
			Sunday:       c.FormValue("hours.sunday"),
		},
	}
}

func decodeVoiceAgent(c *fiber.Ctx) models.VoiceAgent {
	voice := c.FormValue("voice")
	if strings.TrimSpace(voice) == "" {
		voice = models.DefaultVoice
	}
	return models.VoiceAgent{
		AgentName:        c.FormValue("agentName"),
		AgentPersonality: c.FormValue("agentPersonality"),
		Greeting:         c.FormValue("greeting"),
		Voice:            voice,
	}
}

func decodeCollectionFields(c *fiber.Ctx) models.CollectionFields {
	fields := models.CollectionFields{
		Email:              formChecked(c, "email"),
		Urgency:            formChecked(c, "urgency"),
		PropertyAddress:    formChecked(c, "propertyAddress"),
		BestTimeToCallback: formChecked(c, "bestTimeToCallback"),
		CustomFields:       []models.CustomField{},
	}

	// Rows are numbered by the template; gaps come from removed rows.
	for index := 0; index < models.MaxCustomFields*2; index++ {
		key := customFieldKey(index, "question")
		if !formHas(c, key) {
			continue
		}
		fields.CustomFields = append(fields.CustomFields, models.CustomField{
			Question: c.FormValue(key),
			Required: formChecked(c, customFieldKey(index, "required")),
		})
	}
	return fields
}

func decodeEmergencyHandling(c *fiber.Ctx) models.EmergencyHandling {
	return models.EmergencyHandling{
		Enabled:         formChecked(c, "enabled"),
		ForwardToNumber: c.FormValue("forwardToNumber"),
		TriggerMethod:   c.FormValue("triggerMethod"),
	}
}

func customFieldKey(index int, field string) string {
	return "customFields." + strconv.Itoa(index) + "." + field
}

func formHas(c *fiber.Ctx, key string) bool {
	if c.Request().PostArgs().Has(key) {
		return true
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return false
	}
	_, ok := form.Value[key]
	return ok
}

// parseStepParam reads a wizard step number from the route.
func parseStepParam(c *fiber.Ctx) (int, bool) {
	step, err := strconv.Atoi(strings.TrimSpace(c.Params("step")))
	if err != nil || step < models.StepBusinessProfile || step > models.TotalSteps {
		return 0, false
	}
	return step, true
}

// formAction splits "remove_question:2" into its verb and argument.
func formAction(c *fiber.Ctx) (string, int) {
	raw := strings.TrimSpace(c.FormValue("action"))
	verb, argument, found := strings.Cut(raw, ":")
	if !found {
		return verb, -1
	}
	index, err := strconv.Atoi(argument)
	if err != nil {
		return verb, -1
	}
	return verb, index
}

// formChecked reads an HTML checkbox; browsers send "on" but scripted
// clients tend to send true or 1.
func formChecked(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.FormValue(key))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
