package wizard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseActive
	PhaseSubmitting
	PhaseSubmitted
)

func (phase Phase) String() string {
	switch phase {
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("phase(%d)", int(phase))
	}
}

func (phase Phase) MarshalText() ([]byte, error) {
	return []byte(phase.String()), nil
}

func (phase *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "loading":
		*phase = PhaseLoading
	case "active":
		*phase = PhaseActive
	case "submitting":
		*phase = PhaseSubmitting
	case "submitted":
		*phase = PhaseSubmitted
	default:
		return fmt.Errorf("unknown wizard phase %q", text)
	}
	return nil
}

// State is the orchestrator's tagged union. Step is meaningful in the
// active and submitting phases only.
type State struct {
	Phase      Phase                  `json:"phase"`
	Step       int                    `json:"step,omitempty"`
	Draft      models.OnboardingDraft `json:"draft"`
	LoadFailed bool                   `json:"loadFailed,omitempty"`
}

func Loading() State {
	return State{Phase: PhaseLoading}
}

func Active(step int, draft models.OnboardingDraft) State {
	draft.CurrentStep = step
	return State{Phase: PhaseActive, Step: step, Draft: draft}
}

func (state State) IsActive() bool {
	return state.Phase == PhaseActive
}

func (state State) Encode() ([]byte, error) {
	return json.Marshal(state)
}

func DecodeState(payload []byte) (State, error) {
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("decode wizard state: %w", err)
	}
	return state, nil
}

// Event is an input to Transition.
type Event interface {
	EventName() string
}

type Initialize struct {
	Authenticated bool
}

// DraftLoaded carries the remote record; a nil Draft means no record exists.
type DraftLoaded struct {
	Draft *models.OnboardingDraft
}

type LoadFailed struct {
	Err error
}

type Advance struct {
	Step  int
	Slice models.StepSlice
}

type GoBack struct{}

// SaveAndExit carries whatever the form holds; Slice may be nil on the review step.
type SaveAndExit struct {
	Step  int
	Slice models.StepSlice
}

type JumpTo struct {
	Step int
}

type Submit struct{}

type PersistSucceeded struct {
	Purpose PersistPurpose
	SavedAt time.Time
}

type PersistFailed struct {
	Purpose PersistPurpose
	Err     error
}

type SubmitSucceeded struct {
	Receipt models.SubmissionReceipt
}

type SubmitFailed struct {
	Err error
}

func (Initialize) EventName() string       { return "initialize" }
func (DraftLoaded) EventName() string      { return "draft_loaded" }
func (LoadFailed) EventName() string       { return "load_failed" }
func (Advance) EventName() string          { return "advance" }
func (GoBack) EventName() string           { return "go_back" }
func (SaveAndExit) EventName() string      { return "save_and_exit" }
func (JumpTo) EventName() string           { return "jump_to" }
func (Submit) EventName() string           { return "submit" }
func (PersistSucceeded) EventName() string { return "persist_succeeded" }
func (PersistFailed) EventName() string    { return "persist_failed" }
func (SubmitSucceeded) EventName() string  { return "submit_succeeded" }
func (SubmitFailed) EventName() string     { return "submit_failed" }

// Effect is work the caller performs after a transition.
type Effect interface {
	EffectName() string
}

type PersistPurpose string

const (
	PersistAdvance PersistPurpose = "advance"
	PersistSave    PersistPurpose = "save"
)

type FetchDraft struct{}

type PersistDraft struct {
	Purpose PersistPurpose
	Draft   models.OnboardingDraft
}

type SubmitDraft struct {
	Draft models.OnboardingDraft
}

type ClearLocalCache struct{}

type NotifyLevel string

const (
	NotifySuccess NotifyLevel = "success"
	NotifyInfo    NotifyLevel = "info"
	NotifyError   NotifyLevel = "error"
)

// Notify carries a message key resolved by the presentation layer.
type Notify struct {
	Level NotifyLevel
	Key   string
}

type Redirect struct {
	Path  string
	Delay time.Duration
}

type ScrollToTop struct{}

func (FetchDraft) EffectName() string      { return "fetch_draft" }
func (PersistDraft) EffectName() string    { return "persist_draft" }
func (SubmitDraft) EffectName() string     { return "submit_draft" }
func (ClearLocalCache) EffectName() string { return "clear_local_cache" }
func (Notify) EffectName() string          { return "notify" }
func (Redirect) EffectName() string        { return "redirect" }
func (ScrollToTop) EffectName() string     { return "scroll_to_top" }

const (
	LoginPath    = "/login"
	StatusPath   = "/status"
	ProgressPath = "/progress"
)

const (
	NoticeProgressSaved    = "notify.progress_saved"
	NoticeSaveFailed       = "notify.save_failed"
	NoticeLoadFailed       = "notify.load_failed"
	NoticeSubmitted        = "notify.submitted"
	NoticeSubmitFailed     = "notify.submit_failed"
	NoticeIncompleteDraft  = "notify.incomplete_draft"
	NoticeAlreadySubmitted = "notify.already_submitted"
)
