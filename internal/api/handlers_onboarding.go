package api

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/dougwhitewolff/vasop-client/internal/validation"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/gofiber/fiber/v2"
)

const (
	noticeActionNotAllowed = "notify.action_not_allowed"
	scrollTopAnchor        = "#wizard-top"
)

// onboardingView is what the wizard page renders besides the shared defaults.
type onboardingView struct {
	state   wizard.State
	form    models.StepSlice
	errors  validation.FieldErrors
	notices []FlashNotice
	status  int
}

func (handler *Handler) ShowOnboarding(c *fiber.Ctx, session services.Session) error {
	result := handler.onboarding.Open(c.UserContext(), session)
	if done, err := handler.finishRedirects(c, session, result); done {
		return err
	}

	flash := handler.popFlashCookie(c)
	notices := append(flash.Notices, flashFromNotifications(result.Notifications).Notices...)
	return handler.renderOnboarding(c, onboardingView{state: result.State, notices: notices})
}

// SubmitStep handles every button on a step form. Next and Save & Exit go
// through the wizard; the rest only edit the form and render it again.
func (handler *Handler) SubmitStep(c *fiber.Ctx, session services.Session) error {
	step, ok := parseStepParam(c)
	if !ok {
		return handler.NotFound(c)
	}
	slice, err := decodeStepSlice(c, step)
	if err != nil {
		return handler.NotFound(c)
	}

	action, index := formAction(c)
	switch action {
	case "save":
		result := handler.onboarding.SaveAndExit(c.UserContext(), session, step, slice)
		return handler.finishResult(c, session, result, slice)
	case "generate_greeting", "add_question", "remove_question":
		return handler.editStepForm(c, session, step, slice, action, index)
	default:
		if slice == nil {
			return handler.redirectWithNotice(c, "/onboarding", wizard.NotifyInfo, noticeActionNotAllowed)
		}
		result := handler.onboarding.Advance(c.UserContext(), session, step, slice)
		return handler.finishResult(c, session, result, slice)
	}
}

func (handler *Handler) GoBack(c *fiber.Ctx, session services.Session) error {
	result := handler.onboarding.GoBack(c.UserContext(), session)
	return handler.finishResult(c, session, result, nil)
}

func (handler *Handler) JumpToStep(c *fiber.Ctx, session services.Session) error {
	step, ok := parseStepParam(c)
	if !ok {
		return handler.NotFound(c)
	}
	result := handler.onboarding.JumpTo(c.UserContext(), session, step)
	return handler.finishResult(c, session, result, nil)
}

func (handler *Handler) SubmitOnboarding(c *fiber.Ctx, session services.Session) error {
	result := handler.onboarding.Submit(c.UserContext(), session)
	return handler.finishResult(c, session, result, nil)
}

func (handler *Handler) editStepForm(c *fiber.Ctx, session services.Session, step int, slice models.StepSlice, action string, index int) error {
	opened := handler.onboarding.Open(c.UserContext(), session)
	if done, err := handler.finishRedirects(c, session, opened); done {
		return err
	}
	if opened.State.Step != step {
		return handler.redirectWithNotice(c, "/onboarding", wizard.NotifyInfo, noticeActionNotAllowed)
	}

	switch typed := slice.(type) {
	case models.VoiceAgent:
		if action == "generate_greeting" {
			typed.Greeting = wizard.GenerateGreeting(typed.AgentPersonality, opened.State.Draft.BusinessName(), typed.AgentName)
		}
		slice = typed
	case models.CollectionFields:
		switch {
		case action == "add_question" && typed.CanAddCustomField():
			typed.CustomFields = append(typed.CustomFields, models.CustomField{})
		case action == "remove_question" && index >= 0 && index < len(typed.CustomFields):
			typed.CustomFields = slices.Delete(typed.CustomFields, index, index+1)
		}
		slice = typed
	}

	return handler.renderOnboarding(c, onboardingView{state: opened.State, form: slice})
}

// finishRedirects covers the results that leave the wizard page.
func (handler *Handler) finishRedirects(c *fiber.Ctx, session services.Session, result services.Result) (bool, error) {
	if result.Unauthorized {
		return true, handler.endSession(c, session)
	}
	if result.Redirect == "" {
		return false, nil
	}
	if result.RedirectDelay > 0 {
		return true, handler.renderSubmitted(c, result)
	}
	handler.setFlashCookie(c, flashFromNotifications(result.Notifications))
	return true, redirectOrJSON(c, result.Redirect)
}

func (handler *Handler) finishResult(c *fiber.Ctx, session services.Session, result services.Result, slice models.StepSlice) error {
	if done, err := handler.finishRedirects(c, session, result); done {
		return err
	}

	if len(result.Invalid) > 0 {
		if acceptsJSON(c) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  translateMessage(currentMessages(c), "notify.fix_errors"),
				"errors": result.Invalid,
			})
		}
		return handler.renderOnboarding(c, onboardingView{
			state:   result.State,
			form:    slice,
			errors:  result.Invalid,
			notices: flashFromNotifications(result.Notifications).Notices,
			status:  fiber.StatusUnprocessableEntity,
		})
	}

	flash := flashFromNotifications(result.Notifications)
	if result.Err != nil && !errors.Is(result.Err, wizard.ErrAlreadySubmitted) {
		flash.Notices = append(flash.Notices, FlashNotice{Level: wizard.NotifyInfo, Key: noticeActionNotAllowed})
	}
	handler.setFlashCookie(c, flash)

	target := "/onboarding"
	if result.ScrollToTop {
		target += scrollTopAnchor
	}
	return redirectOrJSON(c, target)
}

func (handler *Handler) redirectWithNotice(c *fiber.Ctx, path string, level wizard.NotifyLevel, key string) error {
	handler.setFlashCookie(c, flashNotice(level, key))
	return redirectOrJSON(c, path)
}

// renderSubmitted shows the confirmation and lets the browser move on to the
// status page after the configured delay.
func (handler *Handler) renderSubmitted(c *fiber.Ctx, result services.Result) error {
	seconds := int((result.RedirectDelay + time.Second - 1) / time.Second)
	c.Set("Refresh", strconv.Itoa(seconds)+"; url="+result.Redirect)
	if acceptsJSON(c) {
		return c.JSON(fiber.Map{
			"ok":           true,
			"redirect":     result.Redirect,
			"submissionId": result.State.Draft.SubmissionID,
		})
	}
	return handler.render(c, "submitted", fiber.Map{
		"Title":           localizedPageTitle(currentMessages(c), "meta.title.submitted", "4Trades | Submitted"),
		"Notices":         flashFromNotifications(result.Notifications).Notices,
		"SubmissionID":    result.State.Draft.SubmissionID,
		"RedirectPath":    result.Redirect,
		"RedirectSeconds": seconds,
	})
}

func (handler *Handler) renderOnboarding(c *fiber.Ctx, view onboardingView) error {
	state := view.state
	policy := handler.onboarding.Policy()
	form := view.form
	if form == nil {
		form = formForStep(state)
	}

	businessName := state.Draft.BusinessName()
	agentName := ""
	if state.Draft.VoiceAgent != nil {
		agentName = state.Draft.VoiceAgent.AgentName
	}

	data := fiber.Map{
		"Title":              localizedPageTitle(currentMessages(c), "meta.title.onboarding", "4Trades | Voice Agent Setup"),
		"State":              state,
		"Step":               state.Step,
		"Steps":              wizard.Progress(state.Step),
		"Summary":            wizard.Summarize(state.Step),
		"Draft":              state.Draft,
		"Form":               form,
		"Errors":             view.errors,
		"Notices":            view.notices,
		"Policy":             policy,
		"UserChoosesTrigger": policy.UserChoosesTrigger(),
		"Industries":         models.Industries,
		"States":             models.USStateCodes,
		"Personalities":      models.Personalities,
		"Voices":             models.Voices,
		"TriggerMethods":     models.TriggerMethods,
		"MaxCustomFields":    models.MaxCustomFields,
		"IsFirstStep":        state.Step == models.StepBusinessProfile,
		"IsReviewStep":       state.Step == models.StepReview,
		"LastSavedAt":        state.Draft.LastSavedAt,
		"VoicePreview":       handler.voice != nil,
	}

	switch typed := form.(type) {
	case models.CollectionFields:
		data["CanAddCustomField"] = typed.CanAddCustomField()
		data["SummaryPreview"] = wizard.SummaryEmailPreview(typed)
	case models.EmergencyHandling:
		speech, explanation := wizard.EmergencyCallPreview(typed, businessName, agentName)
		data["EmergencySpeech"] = speech
		data["EmergencyExplanation"] = explanation
	}
	if state.Step == models.StepReview {
		data["EmailConfig"] = state.Draft.EmailConfig()
		if state.Draft.CollectionFields != nil {
			data["SummaryPreview"] = wizard.SummaryEmailPreview(*state.Draft.CollectionFields)
		}
	}

	if view.status != 0 {
		c.Status(view.status)
	}
	return handler.render(c, "onboarding", data)
}

// formForStep prefills the current step from the draft, or with defaults
// when the step has never been saved.
func formForStep(state wizard.State) models.StepSlice {
	draft := state.Draft
	switch state.Step {
	case models.StepBusinessProfile:
		if draft.BusinessProfile != nil {
			return *draft.BusinessProfile
		}
		return models.BusinessProfile{}
	case models.StepVoiceAgent:
		if draft.VoiceAgent != nil {
			return *draft.VoiceAgent
		}
		return models.VoiceAgent{AgentPersonality: models.PersonalityProfessional, Voice: models.DefaultVoice}
	case models.StepCollectionFields:
		if draft.CollectionFields != nil {
			fields := *draft.CollectionFields
			fields.CustomFields = slices.Clone(fields.CustomFields)
			return fields
		}
		return models.CollectionFields{CustomFields: []models.CustomField{}}
	case models.StepEmergencyHandling:
		if draft.EmergencyHandling != nil && draft.EmergencyHandling.Enabled {
			return *draft.EmergencyHandling
		}
		return models.EmergencyHandling{TriggerMethod: models.TriggerPoundKey}
	case models.StepEmailConfig:
		if config := draft.EmailConfig(); config != nil {
			return *config
		}
		if draft.BusinessProfile != nil {
			return models.EmailConfig{RecipientEmail: draft.BusinessProfile.Email}
		}
		return models.EmailConfig{}
	default:
		return nil
	}
}
