package wizard

import (
	"errors"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/validation"
)

var (
	ErrEventNotAllowed  = errors.New("event not allowed in current state")
	ErrStaleStep        = errors.New("step does not match the current step")
	ErrSliceMismatch    = errors.New("slice does not belong to the step")
	ErrAlreadySubmitted = errors.New("onboarding already submitted")
)

// Outcome is the result of one transition. A rejected event leaves State
// unchanged, carries no effects and sets Err.
type Outcome struct {
	State   State
	Effects []Effect
	Invalid validation.FieldErrors
	Err     error
}

func (outcome Outcome) Rejected() bool {
	return outcome.Err != nil
}

type Machine struct {
	policy Policy
	engine *validation.Engine
}

func NewMachine(policy Policy, engine *validation.Engine) *Machine {
	if engine == nil {
		engine = validation.Default()
	}
	return &Machine{policy: policy, engine: engine}
}

func (machine *Machine) Policy() Policy {
	return machine.policy
}

// Transition is defined for every phase and event pair.
func (machine *Machine) Transition(state State, event Event) Outcome {
	switch state.Phase {
	case PhaseLoading:
		return machine.fromLoading(state, event)
	case PhaseActive:
		return machine.fromActive(state, event)
	case PhaseSubmitting:
		return machine.fromSubmitting(state, event)
	case PhaseSubmitted:
		return machine.fromSubmitted(state, event)
	default:
		return reject(state, ErrEventNotAllowed)
	}
}

func (machine *Machine) fromLoading(state State, event Event) Outcome {
	switch typed := event.(type) {
	case Initialize:
		if !typed.Authenticated {
			return Outcome{State: state, Effects: []Effect{Redirect{Path: LoginPath}}}
		}
		return Outcome{State: state, Effects: []Effect{FetchDraft{}}}
	case DraftLoaded:
		return machine.restore(typed.Draft)
	case LoadFailed:
		next := Active(models.StepBusinessProfile, models.OnboardingDraft{})
		next.LoadFailed = true
		return Outcome{State: next, Effects: []Effect{Notify{Level: NotifyInfo, Key: NoticeLoadFailed}}}
	default:
		return reject(state, ErrEventNotAllowed)
	}
}

func (machine *Machine) restore(record *models.OnboardingDraft) Outcome {
	if record == nil {
		return Outcome{State: Active(models.StepBusinessProfile, models.OnboardingDraft{})}
	}

	draft := record.Clone()
	if draft.IsSubmitted {
		return Outcome{
			State:   State{Phase: PhaseSubmitted, Draft: draft},
			Effects: []Effect{Redirect{Path: StatusPath}},
		}
	}
	return Outcome{State: Active(clampStep(draft.CurrentStep), draft)}
}

func (machine *Machine) fromActive(state State, event Event) Outcome {
	switch typed := event.(type) {
	case Initialize:
		if !typed.Authenticated {
			return Outcome{State: state, Effects: []Effect{Redirect{Path: LoginPath}}}
		}
		return Outcome{State: state}
	case Advance:
		return machine.advance(state, typed)
	case SaveAndExit:
		return machine.saveAndExit(state, typed)
	case GoBack:
		if state.Step <= models.StepBusinessProfile {
			return reject(state, ErrEventNotAllowed)
		}
		return Outcome{State: Active(state.Step-1, state.Draft.Clone())}
	case JumpTo:
		if typed.Step < models.StepBusinessProfile || typed.Step >= state.Step {
			return reject(state, ErrEventNotAllowed)
		}
		return Outcome{State: Active(typed.Step, state.Draft.Clone())}
	case Submit:
		return machine.submit(state)
	case PersistSucceeded:
		next := state
		next.Draft = state.Draft.Clone()
		savedAt := typed.SavedAt
		next.Draft.LastSavedAt = &savedAt
		effects := []Effect{Notify{Level: NotifySuccess, Key: NoticeProgressSaved}}
		if typed.Purpose == PersistSave {
			effects = append(effects, ClearLocalCache{}, Redirect{Path: ProgressPath})
		}
		return Outcome{State: next, Effects: effects}
	case PersistFailed:
		return Outcome{State: state, Effects: []Effect{Notify{Level: NotifyError, Key: NoticeSaveFailed}}}
	default:
		return reject(state, ErrEventNotAllowed)
	}
}

func (machine *Machine) advance(state State, event Advance) Outcome {
	if event.Step != state.Step {
		return reject(state, ErrStaleStep)
	}
	if event.Step >= models.StepReview {
		return reject(state, ErrEventNotAllowed)
	}
	slice := sliceValue(event.Slice)
	if slice == nil || slice.Step() != event.Step {
		return reject(state, ErrSliceMismatch)
	}

	normalized := machine.normalize(slice)
	if errs := machine.engine.Validate(normalized); len(errs) > 0 {
		return Outcome{State: state, Invalid: errs}
	}

	next := Active(event.Step+1, merge(state.Draft.Clone(), normalized))
	return Outcome{
		State: next,
		Effects: []Effect{
			PersistDraft{Purpose: PersistAdvance, Draft: next.Draft.Clone()},
			ScrollToTop{},
		},
	}
}

func (machine *Machine) saveAndExit(state State, event SaveAndExit) Outcome {
	if event.Step != state.Step {
		return reject(state, ErrStaleStep)
	}

	draft := state.Draft.Clone()
	if slice := sliceValue(event.Slice); slice != nil {
		if slice.Step() != event.Step {
			return reject(state, ErrSliceMismatch)
		}
		normalized := machine.normalize(slice)
		if machine.policy.SaveValidation == SaveStrict {
			if errs := machine.engine.Validate(normalized); len(errs) > 0 {
				return Outcome{State: state, Invalid: errs}
			}
		}
		draft = merge(draft, normalized)
	}

	next := Active(event.Step, draft)
	return Outcome{
		State:   next,
		Effects: []Effect{PersistDraft{Purpose: PersistSave, Draft: next.Draft.Clone()}},
	}
}

func (machine *Machine) submit(state State) Outcome {
	if state.Step != models.StepReview {
		return reject(state, ErrEventNotAllowed)
	}
	if !machine.complete(state.Draft) {
		return Outcome{State: state, Effects: []Effect{Notify{Level: NotifyError, Key: NoticeIncompleteDraft}}}
	}
	return Outcome{
		State:   State{Phase: PhaseSubmitting, Step: state.Step, Draft: state.Draft.Clone()},
		Effects: []Effect{SubmitDraft{Draft: state.Draft.Clone()}},
	}
}

// complete reports whether every slice the submission needs is present and valid.
func (machine *Machine) complete(draft models.OnboardingDraft) bool {
	if draft.BusinessProfile == nil || draft.VoiceAgent == nil || draft.CollectionFields == nil {
		return false
	}
	emailConfig := draft.EmailConfig()
	if emailConfig == nil {
		return false
	}

	slices := []any{*draft.BusinessProfile, *draft.VoiceAgent, *draft.CollectionFields, *emailConfig}
	if draft.EmergencyHandling != nil {
		slices = append(slices, *draft.EmergencyHandling)
	}
	for _, slice := range slices {
		if len(machine.engine.Validate(slice)) > 0 {
			return false
		}
	}
	return true
}

func (machine *Machine) fromSubmitting(state State, event Event) Outcome {
	switch typed := event.(type) {
	case SubmitSucceeded:
		draft := state.Draft.Clone()
		draft.IsSubmitted = true
		draft.SubmissionID = typed.Receipt.SubmissionID
		submittedAt := typed.Receipt.SubmittedAt
		draft.SubmittedAt = &submittedAt
		return Outcome{
			State: State{Phase: PhaseSubmitted, Draft: draft},
			Effects: []Effect{
				ClearLocalCache{},
				Notify{Level: NotifySuccess, Key: NoticeSubmitted},
				Redirect{Path: StatusPath, Delay: machine.policy.SubmitRedirectDelay},
			},
		}
	case SubmitFailed:
		return Outcome{
			State:   Active(state.Step, state.Draft.Clone()),
			Effects: []Effect{Notify{Level: NotifyError, Key: NoticeSubmitFailed}},
		}
	default:
		return reject(state, ErrEventNotAllowed)
	}
}

func (machine *Machine) fromSubmitted(state State, event Event) Outcome {
	switch typed := event.(type) {
	case Initialize:
		if !typed.Authenticated {
			return Outcome{State: state, Effects: []Effect{Redirect{Path: LoginPath}}}
		}
		return Outcome{State: state, Effects: []Effect{Redirect{Path: StatusPath}}}
	case DraftLoaded, LoadFailed, PersistSucceeded, PersistFailed:
		return Outcome{State: state, Effects: []Effect{Redirect{Path: StatusPath}}}
	default:
		return Outcome{
			State:   state,
			Effects: []Effect{Redirect{Path: StatusPath}},
			Err:     ErrAlreadySubmitted,
		}
	}
}

func (machine *Machine) normalize(slice models.StepSlice) models.StepSlice {
	switch typed := slice.(type) {
	case models.BusinessProfile:
		return typed.Normalized()
	case models.VoiceAgent:
		return typed.Normalized()
	case models.CollectionFields:
		return typed.Normalized()
	case models.EmergencyHandling:
		normalized := typed.Normalized()
		if normalized.Enabled && machine.policy.TriggerMethod == TriggerFixedPoundKey {
			normalized.TriggerMethod = models.TriggerPoundKey
		}
		return normalized
	case models.EmailConfig:
		return typed.Normalized()
	default:
		return slice
	}
}

func merge(draft models.OnboardingDraft, slice models.StepSlice) models.OnboardingDraft {
	switch typed := slice.(type) {
	case models.BusinessProfile:
		draft.BusinessProfile = &typed
	case models.VoiceAgent:
		draft.VoiceAgent = &typed
	case models.CollectionFields:
		if draft.CollectionFields != nil {
			typed.SummaryEmail = draft.CollectionFields.SummaryEmail
		}
		if len(typed.CustomFields) > models.MaxCustomFields {
			typed.CustomFields = typed.CustomFields[:models.MaxCustomFields]
		}
		draft.CollectionFields = &typed
	case models.EmergencyHandling:
		draft.EmergencyHandling = &typed
	case models.EmailConfig:
		if draft.CollectionFields == nil {
			draft.CollectionFields = &models.CollectionFields{}
		}
		draft.CollectionFields.SummaryEmail = typed.RecipientEmail
	}
	return draft
}

func sliceValue(slice models.StepSlice) models.StepSlice {
	switch typed := slice.(type) {
	case *models.BusinessProfile:
		if typed == nil {
			return nil
		}
		return *typed
	case *models.VoiceAgent:
		if typed == nil {
			return nil
		}
		return *typed
	case *models.CollectionFields:
		if typed == nil {
			return nil
		}
		return *typed
	case *models.EmergencyHandling:
		if typed == nil {
			return nil
		}
		return *typed
	case *models.EmailConfig:
		if typed == nil {
			return nil
		}
		return *typed
	default:
		return slice
	}
}

func clampStep(step int) int {
	if step < models.StepBusinessProfile {
		return models.StepBusinessProfile
	}
	if step > models.TotalSteps {
		return models.TotalSteps
	}
	return step
}

func reject(state State, err error) Outcome {
	return Outcome{State: state, Err: err}
}
