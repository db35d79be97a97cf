package wizard

import (
	"errors"
	"testing"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	return NewMachine(DefaultPolicy(), nil)
}

func testBusinessProfile() models.BusinessProfile {
	return models.BusinessProfile{
		BusinessName: "Acme Plumbing",
		Industry:     "Plumbing",
		Phone:        "555-123-4567",
		Email:        "office@acme.example",
		Address:      models.Address{Street: "1 Pipe Rd", City: "Austin", State: "TX", Zip: "73301"},
		Hours:        models.BusinessHours{MondayFriday: "8-5", Saturday: "9-12", Sunday: "Closed"},
	}
}

func testVoiceAgent() models.VoiceAgent {
	return models.VoiceAgent{
		AgentName:        "Riley",
		AgentPersonality: models.PersonalityFriendly,
		Greeting:         GenerateGreeting(models.PersonalityFriendly, "Acme Plumbing", "Riley"),
		Voice:            models.DefaultVoice,
	}
}

func testCollectionFields() models.CollectionFields {
	return models.CollectionFields{
		Urgency:      true,
		CustomFields: []models.CustomField{{Question: "Is water actively leaking?", Required: true}},
	}
}

func testEmergency() models.EmergencyHandling {
	return models.EmergencyHandling{Enabled: true, ForwardToNumber: "5559876543", TriggerMethod: models.TriggerPoundKey}
}

func effectOf[T Effect](effects []Effect) (T, bool) {
	for _, effect := range effects {
		if typed, ok := effect.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}

// completeThroughStep walks a fresh wizard forward with valid slices.
func completeThroughStep(t *testing.T, machine *Machine, last int) State {
	t.Helper()

	state := machine.Transition(Loading(), DraftLoaded{}).State
	slices := []models.StepSlice{
		testBusinessProfile(),
		testVoiceAgent(),
		testCollectionFields(),
		testEmergency(),
		models.EmailConfig{RecipientEmail: "owner@acme.example"},
	}
	for index, slice := range slices[:last] {
		outcome := machine.Transition(state, Advance{Step: index + 1, Slice: slice})
		require.NoError(t, outcome.Err)
		require.Empty(t, outcome.Invalid)
		state = outcome.State
	}
	return state
}

func TestInitializeWithoutSessionRedirectsToLogin(t *testing.T) {
	machine := newTestMachine(t)

	outcome := machine.Transition(Loading(), Initialize{Authenticated: false})

	redirect, ok := effectOf[Redirect](outcome.Effects)
	require.True(t, ok)
	assert.Equal(t, LoginPath, redirect.Path)
	assert.Equal(t, PhaseLoading, outcome.State.Phase)
}

func TestInitializeWithSessionFetchesDraft(t *testing.T) {
	machine := newTestMachine(t)

	outcome := machine.Transition(Loading(), Initialize{Authenticated: true})

	_, ok := effectOf[FetchDraft](outcome.Effects)
	assert.True(t, ok)
}

func TestFreshUserOpensAtStepOneWithEmptySlices(t *testing.T) {
	machine := newTestMachine(t)

	outcome := machine.Transition(Loading(), DraftLoaded{Draft: nil})

	assert.Equal(t, PhaseActive, outcome.State.Phase)
	assert.Equal(t, 1, outcome.State.Step)
	assert.Nil(t, outcome.State.Draft.BusinessProfile)
	assert.Nil(t, outcome.State.Draft.VoiceAgent)
	assert.Nil(t, outcome.State.Draft.CollectionFields)
	assert.Nil(t, outcome.State.Draft.EmergencyHandling)
	assert.Nil(t, outcome.State.Draft.EmailConfig())
}

func TestLoadFailureFailsOpenAtStepOne(t *testing.T) {
	machine := newTestMachine(t)

	outcome := machine.Transition(Loading(), LoadFailed{Err: errors.New("connection refused")})

	require.NoError(t, outcome.Err)
	assert.Equal(t, PhaseActive, outcome.State.Phase)
	assert.Equal(t, 1, outcome.State.Step)
	assert.True(t, outcome.State.LoadFailed)
}

func TestRestoringSubmittedRecordAlwaysRoutesToStatus(t *testing.T) {
	machine := newTestMachine(t)

	for _, step := range []int{0, 1, 3, 6, 42} {
		outcome := machine.Transition(Loading(), DraftLoaded{Draft: &models.OnboardingDraft{CurrentStep: step, IsSubmitted: true}})

		assert.Equal(t, PhaseSubmitted, outcome.State.Phase, "step %d", step)
		redirect, ok := effectOf[Redirect](outcome.Effects)
		require.True(t, ok)
		assert.Equal(t, StatusPath, redirect.Path)
	}
}

func TestRestoringDraftResumesStoredStep(t *testing.T) {
	machine := newTestMachine(t)
	profile := testBusinessProfile()

	outcome := machine.Transition(Loading(), DraftLoaded{Draft: &models.OnboardingDraft{CurrentStep: 3, BusinessProfile: &profile}})

	assert.Equal(t, 3, outcome.State.Step)
	assert.Equal(t, 3, outcome.State.Draft.CurrentStep)
	require.NotNil(t, outcome.State.Draft.BusinessProfile)
	assert.Equal(t, "Acme Plumbing", outcome.State.Draft.BusinessProfile.BusinessName)
}

func TestRestoringDraftWithoutStepDefaultsToOne(t *testing.T) {
	machine := newTestMachine(t)

	outcome := machine.Transition(Loading(), DraftLoaded{Draft: &models.OnboardingDraft{}})

	assert.Equal(t, 1, outcome.State.Step)
}

func TestAdvanceMergesPersistsAndMovesForward(t *testing.T) {
	machine := newTestMachine(t)
	state := machine.Transition(Loading(), DraftLoaded{}).State

	outcome := machine.Transition(state, Advance{Step: 1, Slice: testBusinessProfile()})

	require.NoError(t, outcome.Err)
	assert.Equal(t, 2, outcome.State.Step)
	persist, ok := effectOf[PersistDraft](outcome.Effects)
	require.True(t, ok)
	assert.Equal(t, PersistAdvance, persist.Purpose)
	assert.Equal(t, 2, persist.Draft.CurrentStep)
	require.NotNil(t, persist.Draft.BusinessProfile)
	_, scrolled := effectOf[ScrollToTop](outcome.Effects)
	assert.True(t, scrolled)
}

func TestAdvanceWithInvalidSliceChangesNothing(t *testing.T) {
	machine := newTestMachine(t)
	invalid := map[int]models.StepSlice{
		1: models.BusinessProfile{BusinessName: "A"},
		2: models.VoiceAgent{AgentName: "Riley"},
		3: models.CollectionFields{CustomFields: []models.CustomField{{Question: "Why"}}},
		4: models.EmergencyHandling{Enabled: true, TriggerMethod: models.TriggerPoundKey},
		5: models.EmailConfig{RecipientEmail: "nope"},
	}

	for step := 1; step <= 5; step++ {
		state := completeThroughStep(t, machine, step-1)
		require.Equal(t, step, state.Step)

		outcome := machine.Transition(state, Advance{Step: step, Slice: invalid[step]})

		assert.NotEmpty(t, outcome.Invalid, "step %d", step)
		assert.Empty(t, outcome.Effects, "step %d", step)
		assert.Equal(t, state, outcome.State, "step %d", step)
	}
}

func TestAdvanceRejectsEnabledEmergencyWithoutNumber(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 3)

	outcome := machine.Transition(state, Advance{Step: 4, Slice: models.EmergencyHandling{Enabled: true, TriggerMethod: models.TriggerPoundKey}})

	assert.True(t, outcome.Invalid.Has("forwardToNumber"))
	assert.Equal(t, 4, outcome.State.Step)
}

func TestAdvanceClearsDisabledEmergencyRouting(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 3)

	outcome := machine.Transition(state, Advance{Step: 4, Slice: models.EmergencyHandling{Enabled: false, ForwardToNumber: "12", TriggerMethod: models.TriggerKeyword}})

	require.Empty(t, outcome.Invalid)
	require.NotNil(t, outcome.State.Draft.EmergencyHandling)
	assert.Equal(t, models.EmergencyHandling{}, *outcome.State.Draft.EmergencyHandling)
}

func TestFixedTriggerPolicyForcesPoundKey(t *testing.T) {
	policy := DefaultPolicy()
	policy.TriggerMethod = TriggerFixedPoundKey
	machine := NewMachine(policy, nil)
	state := completeThroughStep(t, machine, 3)

	outcome := machine.Transition(state, Advance{Step: 4, Slice: models.EmergencyHandling{Enabled: true, ForwardToNumber: "5559876543"}})

	require.Empty(t, outcome.Invalid)
	assert.Equal(t, models.TriggerPoundKey, outcome.State.Draft.EmergencyHandling.TriggerMethod)
}

func TestAdvanceRejectsStaleStep(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 2)

	outcome := machine.Transition(state, Advance{Step: 1, Slice: testBusinessProfile()})

	assert.ErrorIs(t, outcome.Err, ErrStaleStep)
	assert.Equal(t, state, outcome.State)
}

func TestAdvanceRejectsSliceOfAnotherStep(t *testing.T) {
	machine := newTestMachine(t)
	state := machine.Transition(Loading(), DraftLoaded{}).State

	outcome := machine.Transition(state, Advance{Step: 1, Slice: testVoiceAgent()})

	assert.ErrorIs(t, outcome.Err, ErrSliceMismatch)
}

func TestEmailStepWritesSummaryEmail(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 5)

	require.NotNil(t, state.Draft.CollectionFields)
	assert.Equal(t, "owner@acme.example", state.Draft.CollectionFields.SummaryEmail)
	require.NotNil(t, state.Draft.EmailConfig())
	assert.Equal(t, "owner@acme.example", state.Draft.EmailConfig().RecipientEmail)
}

func TestCollectionStepKeepsSummaryEmail(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 5)
	state = machine.Transition(state, JumpTo{Step: 3}).State

	outcome := machine.Transition(state, Advance{Step: 3, Slice: models.CollectionFields{Email: true}})

	require.Empty(t, outcome.Invalid)
	assert.Equal(t, "owner@acme.example", outcome.State.Draft.CollectionFields.SummaryEmail)
	assert.True(t, outcome.State.Draft.CollectionFields.Email)
}

func TestGoBackIsLocalAndStopsAtStepOne(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 2)

	outcome := machine.Transition(state, GoBack{})
	assert.Equal(t, 2, outcome.State.Step)
	assert.Empty(t, outcome.Effects)

	first := machine.Transition(Loading(), DraftLoaded{}).State
	outcome = machine.Transition(first, GoBack{})
	assert.ErrorIs(t, outcome.Err, ErrEventNotAllowed)
	assert.Equal(t, 1, outcome.State.Step)
}

func TestJumpToOnlyMovesBackward(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 3)
	require.Equal(t, 4, state.Step)

	for _, target := range []int{4, 5, 6, 0, -1} {
		outcome := machine.Transition(state, JumpTo{Step: target})
		assert.ErrorIs(t, outcome.Err, ErrEventNotAllowed, "target %d", target)
		assert.Equal(t, 4, outcome.State.Step)
	}

	outcome := machine.Transition(state, JumpTo{Step: 2})
	require.NoError(t, outcome.Err)
	assert.Equal(t, 2, outcome.State.Step)
	assert.Empty(t, outcome.Effects)
	assert.NotNil(t, outcome.State.Draft.CollectionFields)
}

func TestSaveAndExitPersistsCurrentStepNotNext(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 2)

	outcome := machine.Transition(state, SaveAndExit{Step: 3, Slice: testCollectionFields()})

	require.NoError(t, outcome.Err)
	persist, ok := effectOf[PersistDraft](outcome.Effects)
	require.True(t, ok)
	assert.Equal(t, PersistSave, persist.Purpose)
	assert.Equal(t, 3, persist.Draft.CurrentStep)
	assert.Equal(t, 3, outcome.State.Step)
}

func TestLenientSaveKeepsIncompleteInput(t *testing.T) {
	machine := newTestMachine(t)
	state := machine.Transition(Loading(), DraftLoaded{}).State

	outcome := machine.Transition(state, SaveAndExit{Step: 1, Slice: models.BusinessProfile{BusinessName: "  Half done "}})

	require.Empty(t, outcome.Invalid)
	require.NotNil(t, outcome.State.Draft.BusinessProfile)
	assert.Equal(t, "Half done", outcome.State.Draft.BusinessProfile.BusinessName)
}

func TestStrictSaveValidatesLikeAdvance(t *testing.T) {
	policy := DefaultPolicy()
	policy.SaveValidation = SaveStrict
	machine := NewMachine(policy, nil)
	state := machine.Transition(Loading(), DraftLoaded{}).State

	outcome := machine.Transition(state, SaveAndExit{Step: 1, Slice: models.BusinessProfile{BusinessName: "Half done"}})

	assert.NotEmpty(t, outcome.Invalid)
	assert.Empty(t, outcome.Effects)
	assert.Nil(t, outcome.State.Draft.BusinessProfile)
}

func TestPersistResultsProduceNotifications(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 1)
	savedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	saved := machine.Transition(state, PersistSucceeded{Purpose: PersistSave, SavedAt: savedAt})
	redirect, ok := effectOf[Redirect](saved.Effects)
	require.True(t, ok)
	assert.Equal(t, ProgressPath, redirect.Path)
	_, cleared := effectOf[ClearLocalCache](saved.Effects)
	assert.True(t, cleared)
	require.NotNil(t, saved.State.Draft.LastSavedAt)
	assert.True(t, savedAt.Equal(*saved.State.Draft.LastSavedAt))

	failed := machine.Transition(state, PersistFailed{Purpose: PersistAdvance, Err: errors.New("timeout")})
	notice, ok := effectOf[Notify](failed.Effects)
	require.True(t, ok)
	assert.Equal(t, NotifyError, notice.Level)
	assert.Equal(t, state, failed.State)
}

func TestSubmitRequiresReviewStep(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 4)

	outcome := machine.Transition(state, Submit{})

	assert.ErrorIs(t, outcome.Err, ErrEventNotAllowed)
}

func TestSubmitIncompleteDraftNotifies(t *testing.T) {
	machine := newTestMachine(t)
	state := Active(models.StepReview, models.OnboardingDraft{})

	outcome := machine.Transition(state, Submit{})

	require.NoError(t, outcome.Err)
	notice, ok := effectOf[Notify](outcome.Effects)
	require.True(t, ok)
	assert.Equal(t, NoticeIncompleteDraft, notice.Key)
	assert.Equal(t, PhaseActive, outcome.State.Phase)
}

func TestSubmitSuccessReachesSubmitted(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 5)
	require.Equal(t, models.StepReview, state.Step)

	submitting := machine.Transition(state, Submit{})
	require.Equal(t, PhaseSubmitting, submitting.State.Phase)
	_, ok := effectOf[SubmitDraft](submitting.Effects)
	require.True(t, ok)

	receipt := models.SubmissionReceipt{SubmissionID: "4T-ABC123-2026-03-01", SubmittedAt: time.Now().UTC()}
	done := machine.Transition(submitting.State, SubmitSucceeded{Receipt: receipt})

	assert.Equal(t, PhaseSubmitted, done.State.Phase)
	assert.True(t, done.State.Draft.IsSubmitted)
	assert.Equal(t, receipt.SubmissionID, done.State.Draft.SubmissionID)
	redirect, ok := effectOf[Redirect](done.Effects)
	require.True(t, ok)
	assert.Equal(t, StatusPath, redirect.Path)
	assert.Equal(t, DefaultSubmitRedirectDelay, redirect.Delay)
	_, cleared := effectOf[ClearLocalCache](done.Effects)
	assert.True(t, cleared)
}

func TestSubmitFailureKeepsDraftAndAllowsRetry(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 5)

	submitting := machine.Transition(state, Submit{})
	failed := machine.Transition(submitting.State, SubmitFailed{Err: errors.New("network down")})

	assert.Equal(t, PhaseActive, failed.State.Phase)
	assert.Equal(t, models.StepReview, failed.State.Step)
	assert.Equal(t, state.Draft, failed.State.Draft)
	notice, ok := effectOf[Notify](failed.Effects)
	require.True(t, ok)
	assert.Equal(t, NoticeSubmitFailed, notice.Key)

	retry := machine.Transition(failed.State, Submit{})
	assert.Equal(t, PhaseSubmitting, retry.State.Phase)
}

func TestSubmittedStateRejectsMutations(t *testing.T) {
	machine := newTestMachine(t)
	submitted := State{Phase: PhaseSubmitted, Draft: models.OnboardingDraft{IsSubmitted: true}}

	events := []Event{
		Advance{Step: 1, Slice: testBusinessProfile()},
		SaveAndExit{Step: 1},
		GoBack{},
		JumpTo{Step: 1},
		Submit{},
	}
	for _, event := range events {
		outcome := machine.Transition(submitted, event)
		assert.ErrorIs(t, outcome.Err, ErrAlreadySubmitted, event.EventName())
		assert.Equal(t, submitted, outcome.State)
		redirect, ok := effectOf[Redirect](outcome.Effects)
		require.True(t, ok)
		assert.Equal(t, StatusPath, redirect.Path)
	}
}

func TestTransitionIsTotal(t *testing.T) {
	machine := newTestMachine(t)
	states := []State{
		Loading(),
		Active(1, models.OnboardingDraft{}),
		Active(models.StepReview, models.OnboardingDraft{}),
		{Phase: PhaseSubmitting, Step: models.StepReview},
		{Phase: PhaseSubmitted},
		{Phase: Phase(99)},
	}
	events := []Event{
		Initialize{Authenticated: true},
		Initialize{},
		DraftLoaded{},
		LoadFailed{},
		Advance{Step: 1, Slice: testBusinessProfile()},
		GoBack{},
		SaveAndExit{Step: 1},
		JumpTo{Step: 1},
		Submit{},
		PersistSucceeded{Purpose: PersistAdvance},
		PersistFailed{Purpose: PersistSave},
		SubmitSucceeded{},
		SubmitFailed{},
	}

	for _, state := range states {
		for _, event := range events {
			assert.NotPanics(t, func() {
				outcome := machine.Transition(state, event)
				if outcome.Rejected() {
					assert.Empty(t, outcome.Invalid)
				}
			}, "%s x %s", state.Phase, event.EventName())
		}
	}
}

func TestStateEncodingRoundTrip(t *testing.T) {
	machine := newTestMachine(t)
	state := completeThroughStep(t, machine, 3)

	payload, err := state.Encode()
	require.NoError(t, err)
	decoded, err := DecodeState(payload)
	require.NoError(t, err)

	assert.Equal(t, state, decoded)
}
