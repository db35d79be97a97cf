package services

import (
	"context"
	"strings"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"go.uber.org/zap"
)

type SessionStatus string

const (
	SessionLoading       SessionStatus = "loading"
	SessionAuthenticated SessionStatus = "authenticated"
	SessionAnonymous     SessionStatus = "anonymous"
)

// Credential is what the browser keeps between requests.
type Credential struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Session is handed explicitly to every protected handler.
type Session struct {
	Status SessionStatus
	User   models.User
	Token  string
}

func (session Session) Authenticated() bool {
	return session.Status == SessionAuthenticated && session.Token != ""
}

// CacheKey identifies the user's working wizard state.
func (session Session) CacheKey() string {
	if id := strings.TrimSpace(session.User.ID); id != "" {
		return "user:" + id
	}
	return "email:" + models.NormalizeEmail(session.User.Email)
}

type IdentityClient interface {
	Me(ctx context.Context, token string) (models.User, error)
}

type SessionService struct {
	identity IdentityClient
	logger   *zap.Logger
}

func NewSessionService(identity IdentityClient, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{identity: identity, logger: logger.Named("session")}
}

// Resolve checks the stored credential with the backend. The second return
// value reports whether the credential must be dropped, which only happens
// on an authentication failure.
func (service *SessionService) Resolve(ctx context.Context, credential *Credential) (Session, bool) {
	if credential == nil || strings.TrimSpace(credential.Token) == "" {
		return Session{Status: SessionAnonymous}, false
	}

	user, err := service.identity.Me(ctx, credential.Token)
	if err == nil {
		return Session{Status: SessionAuthenticated, User: user, Token: credential.Token}, false
	}
	if remote.IsUnauthorized(err) {
		service.logger.Info("credential rejected", zap.String("user_id", credential.User.ID))
		return Session{Status: SessionAnonymous}, true
	}

	service.logger.Warn("identity check failed, using stored profile", zap.Error(err))
	if credential.User.ID != "" || credential.User.Email != "" {
		return Session{Status: SessionAuthenticated, User: credential.User, Token: credential.Token}, false
	}
	return Session{Status: SessionLoading, Token: credential.Token}, false
}
