package services

import (
	"context"
	"errors"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/metrics"
	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/validation"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"go.uber.org/zap"
)

var (
	ErrNoDraft       = errors.New("no onboarding draft")
	ErrDraftPending  = errors.New("onboarding not submitted yet")
	ErrDraftComplete = errors.New("onboarding already submitted")
)

// DraftStore is the remote persistence of the onboarding record.
type DraftStore interface {
	FetchDraft(ctx context.Context, token string) (*models.OnboardingDraft, error)
	SaveDraft(ctx context.Context, token string, draft models.OnboardingDraft) error
	SubmitDraft(ctx context.Context, token string, draft models.OnboardingDraft) (models.SubmissionReceipt, error)
}

// DraftCache holds the serialized working state between requests.
type DraftCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

type Notification struct {
	Level wizard.NotifyLevel
	Key   string
}

// Result is what one wizard request produced once every effect has run.
type Result struct {
	State         wizard.State
	Invalid       validation.FieldErrors
	Notifications []Notification
	Redirect      string
	RedirectDelay time.Duration
	ScrollToTop   bool
	Unauthorized  bool
	Err           error
}

type OnboardingService struct {
	machine *wizard.Machine
	store   DraftStore
	cache   DraftCache
	logger  *zap.Logger
	locks   userLocks
	now     func() time.Time
}

func NewOnboardingService(machine *wizard.Machine, store DraftStore, cache DraftCache, logger *zap.Logger) *OnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingService{
		machine: machine,
		store:   store,
		cache:   cache,
		logger:  logger.Named("onboarding"),
		now:     time.Now,
	}
}

func (service *OnboardingService) Policy() wizard.Policy {
	return service.machine.Policy()
}

// Open returns the user's working state. The backend record is always read
// first: a submitted record wins over any cached state, otherwise the cached
// state is kept and the record restores only when nothing is cached.
func (service *OnboardingService) Open(ctx context.Context, session Session) Result {
	if !session.Authenticated() {
		return service.run(ctx, session, wizard.Loading(), wizard.Initialize{Authenticated: false})
	}

	unlock := service.locks.lock(session.CacheKey())
	defer unlock()

	if state, ok := service.loadCached(ctx, session); ok {
		return service.revalidate(ctx, session, state)
	}
	result, _ := service.current(ctx, session)
	return result
}

// revalidate checks a cached working state against the backend record. Fetch
// failures other than 401 keep the cached state.
func (service *OnboardingService) revalidate(ctx context.Context, session Session, cached wizard.State) Result {
	record, err := service.store.FetchDraft(ctx, session.Token)
	switch {
	case err != nil && remote.IsUnauthorized(err):
		return Result{State: cached, Unauthorized: true}
	case err != nil:
		service.logger.Warn("draft revalidation failed, keeping cached state", zap.Error(err))
		return Result{State: cached}
	case record != nil && record.IsSubmitted:
		service.logger.Info("cached wizard state superseded by submitted record",
			zap.String("submission_id", record.SubmissionID),
		)
		return service.run(ctx, session, wizard.Loading(), wizard.DraftLoaded{Draft: record})
	default:
		return Result{State: cached}
	}
}

func (service *OnboardingService) Advance(ctx context.Context, session Session, step int, slice models.StepSlice) Result {
	return service.apply(ctx, session, wizard.Advance{Step: step, Slice: slice})
}

func (service *OnboardingService) SaveAndExit(ctx context.Context, session Session, step int, slice models.StepSlice) Result {
	return service.apply(ctx, session, wizard.SaveAndExit{Step: step, Slice: slice})
}

func (service *OnboardingService) GoBack(ctx context.Context, session Session) Result {
	return service.apply(ctx, session, wizard.GoBack{})
}

func (service *OnboardingService) JumpTo(ctx context.Context, session Session, step int) Result {
	return service.apply(ctx, session, wizard.JumpTo{Step: step})
}

func (service *OnboardingService) Submit(ctx context.Context, session Session) Result {
	return service.apply(ctx, session, wizard.Submit{})
}

// Discard drops the cached working state, used on logout.
func (service *OnboardingService) Discard(ctx context.Context, session Session) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Delete(ctx, session.CacheKey()); err != nil {
		metrics.DraftCacheErrors.WithLabelValues("delete").Inc()
		service.logger.Warn("draft cache delete failed", zap.Error(err))
	}
}

type ProgressView struct {
	Summary      wizard.ProgressSummary
	BusinessName string
	LastSavedAt  *time.Time
}

// Progress reads the saved record, not the working state.
func (service *OnboardingService) Progress(ctx context.Context, session Session) (ProgressView, error) {
	draft, err := service.store.FetchDraft(ctx, session.Token)
	if err != nil {
		return ProgressView{}, err
	}
	if draft == nil {
		return ProgressView{}, ErrNoDraft
	}
	if draft.IsSubmitted {
		return ProgressView{}, ErrDraftComplete
	}
	return ProgressView{
		Summary:      wizard.Summarize(draft.CurrentStep),
		BusinessName: draft.BusinessName(),
		LastSavedAt:  draft.LastSavedAt,
	}, nil
}

type StatusView struct {
	SubmissionID string
	SubmittedAt  *time.Time
	BusinessName string
	Draft        models.OnboardingDraft
}

func (service *OnboardingService) Status(ctx context.Context, session Session) (StatusView, error) {
	draft, err := service.store.FetchDraft(ctx, session.Token)
	if err != nil {
		return StatusView{}, err
	}
	if draft == nil || !draft.IsSubmitted {
		return StatusView{}, ErrDraftPending
	}
	return StatusView{
		SubmissionID: draft.SubmissionID,
		SubmittedAt:  draft.SubmittedAt,
		BusinessName: draft.BusinessName(),
		Draft:        *draft,
	}, nil
}

func (service *OnboardingService) apply(ctx context.Context, session Session, event wizard.Event) Result {
	if !session.Authenticated() {
		return service.run(ctx, session, wizard.Loading(), wizard.Initialize{Authenticated: false})
	}

	unlock := service.locks.lock(session.CacheKey())
	defer unlock()

	opened, ready := service.current(ctx, session)
	if !ready {
		return opened
	}

	result := service.run(ctx, session, opened.State, event)
	result.Notifications = append(opened.Notifications, result.Notifications...)
	return result
}

// current loads the working state. ready is false when the state cannot
// take wizard events, for example after a redirect.
func (service *OnboardingService) current(ctx context.Context, session Session) (Result, bool) {
	if state, ok := service.loadCached(ctx, session); ok {
		return Result{State: state}, true
	}

	result := service.run(ctx, session, wizard.Loading(), wizard.Initialize{Authenticated: true})
	if result.Unauthorized || result.State.Phase == wizard.PhaseLoading {
		return result, false
	}
	return result, true
}

func (service *OnboardingService) run(ctx context.Context, session Session, state wizard.State, event wizard.Event) Result {
	result := Result{}
	clearCache := false

	queue := []wizard.Event{event}
	for first := true; len(queue) > 0; first = false {
		next := queue[0]
		queue = queue[1:]

		outcome := service.machine.Transition(state, next)
		metrics.WizardTransitions.WithLabelValues(next.EventName(), outcomeLabel(outcome)).Inc()
		if first {
			result.Err = outcome.Err
			result.Invalid = outcome.Invalid
		}
		if outcome.Err != nil {
			service.logger.Debug("wizard event rejected",
				zap.String("event", next.EventName()),
				zap.String("phase", state.Phase.String()),
				zap.Error(outcome.Err),
			)
		}
		state = outcome.State

		for _, effect := range outcome.Effects {
			switch typed := effect.(type) {
			case wizard.FetchDraft:
				draft, err := service.store.FetchDraft(ctx, session.Token)
				if err != nil {
					result.Unauthorized = result.Unauthorized || remote.IsUnauthorized(err)
					service.logger.Warn("draft load failed", zap.Error(err))
					queue = append(queue, wizard.LoadFailed{Err: err})
					continue
				}
				queue = append(queue, wizard.DraftLoaded{Draft: draft})
			case wizard.PersistDraft:
				if err := service.store.SaveDraft(ctx, session.Token, typed.Draft); err != nil {
					result.Unauthorized = result.Unauthorized || remote.IsUnauthorized(err)
					service.logger.Warn("draft save failed", zap.Int("step", typed.Draft.CurrentStep), zap.Error(err))
					queue = append(queue, wizard.PersistFailed{Purpose: typed.Purpose, Err: err})
					continue
				}
				queue = append(queue, wizard.PersistSucceeded{Purpose: typed.Purpose, SavedAt: service.now().UTC()})
			case wizard.SubmitDraft:
				receipt, err := service.store.SubmitDraft(ctx, session.Token, typed.Draft)
				if err != nil {
					result.Unauthorized = result.Unauthorized || remote.IsUnauthorized(err)
					service.logger.Warn("submission failed", zap.Error(err))
					queue = append(queue, wizard.SubmitFailed{Err: err})
					continue
				}
				service.logger.Info("onboarding submitted", zap.String("submission_id", receipt.SubmissionID))
				queue = append(queue, wizard.SubmitSucceeded{Receipt: receipt})
			case wizard.ClearLocalCache:
				clearCache = true
			case wizard.Notify:
				result.Notifications = append(result.Notifications, Notification{Level: typed.Level, Key: typed.Key})
			case wizard.Redirect:
				result.Redirect = typed.Path
				result.RedirectDelay = typed.Delay
			case wizard.ScrollToTop:
				result.ScrollToTop = true
			}
		}
	}

	result.State = state
	if session.Authenticated() {
		service.storeCached(ctx, session, state, clearCache)
	}
	return result
}

func (service *OnboardingService) loadCached(ctx context.Context, session Session) (wizard.State, bool) {
	if service.cache == nil {
		return wizard.State{}, false
	}

	payload, found, err := service.cache.Get(ctx, session.CacheKey())
	if err != nil {
		metrics.DraftCacheErrors.WithLabelValues("get").Inc()
		service.logger.Warn("draft cache read failed", zap.Error(err))
		return wizard.State{}, false
	}
	if !found {
		return wizard.State{}, false
	}

	state, err := wizard.DecodeState(payload)
	if err != nil || !state.IsActive() {
		service.logger.Warn("discarding unusable cached wizard state", zap.Error(err))
		_ = service.cache.Delete(ctx, session.CacheKey())
		return wizard.State{}, false
	}
	return state, true
}

func (service *OnboardingService) storeCached(ctx context.Context, session Session, state wizard.State, clear bool) {
	if service.cache == nil {
		return
	}

	key := session.CacheKey()
	if clear || !state.IsActive() || state.LoadFailed {
		if err := service.cache.Delete(ctx, key); err != nil {
			metrics.DraftCacheErrors.WithLabelValues("delete").Inc()
			service.logger.Warn("draft cache delete failed", zap.Error(err))
		}
		return
	}

	payload, err := state.Encode()
	if err != nil {
		service.logger.Error("encode wizard state", zap.Error(err))
		return
	}
	if err := service.cache.Set(ctx, key, payload); err != nil {
		metrics.DraftCacheErrors.WithLabelValues("set").Inc()
		service.logger.Warn("draft cache write failed", zap.Error(err))
	}
}

func outcomeLabel(outcome wizard.Outcome) string {
	switch {
	case outcome.Err != nil:
		return "rejected"
	case len(outcome.Invalid) > 0:
		return "invalid"
	default:
		return "applied"
	}
}
