package api

import (
	"context"
	"errors"
	"html/template"
	"io/fs"

	"github.com/dougwhitewolff/vasop-client/internal/i18n"
	"github.com/dougwhitewolff/vasop-client/internal/ratelimit"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"go.uber.org/zap"
)

const (
	authCookieName     = "vasop_auth"
	languageCookieName = "vasop_lang"
	FlashCookieName    = "vasop_flash"
	contextSessionKey  = "current_session"
	contextLanguageKey = "current_language"
	contextMessagesKey = "current_messages"

	authCookiePurpose = "auth"
)

// VoicePreviewer renders a short text with one of the agent voices.
type VoicePreviewer interface {
	PreviewVoice(ctx context.Context, token string, request remote.PreviewVoiceRequest) ([]byte, string, error)
}

type Dependencies struct {
	Sessions     *services.SessionService
	Auth         *services.AuthService
	Onboarding   *services.OnboardingService
	Voice        VoicePreviewer
	VoiceLimiter *ratelimit.KeyedLimiter
	I18n         *i18n.Manager
	Templates    fs.FS
	SecretKey    []byte
	CookieSecure bool
	Logger       *zap.Logger
}

type Handler struct {
	sessions     *services.SessionService
	auth         *services.AuthService
	onboarding   *services.OnboardingService
	voice        VoicePreviewer
	voiceLimiter *ratelimit.KeyedLimiter
	i18n         *i18n.Manager
	cookies      *cookieSealer
	cookieSecure bool
	logger       *zap.Logger
	templates    map[string]*template.Template
	partials     map[string]*template.Template
}

var pageTemplates = map[string][]string{
	"login":           nil,
	"signup":          nil,
	"forgot_password": nil,
	"reset_password":  nil,
	"onboarding": {
		"step_business_profile.html",
		"step_voice_agent.html",
		"step_collection_fields.html",
		"step_emergency_handling.html",
		"step_email_config.html",
		"step_review.html",
		"summary_email_preview.html",
	},
	"submitted":   nil,
	"progress":    nil,
	"status":      nil,
	"unavailable": nil,
	"not_found":   nil,
}

var partialTemplates = []string{"summary_email_preview.html"}

func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	if deps.Sessions == nil || deps.Auth == nil || deps.Onboarding == nil {
		return nil, errors.New("session, auth and onboarding services are required")
	}
	if deps.Templates == nil {
		return nil, errors.New("templates are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cookies, err := newCookieSealer(deps.SecretKey)
	if err != nil {
		return nil, err
	}

	funcMap := newTemplateFuncMap()
	templates, err := parsePageTemplates(deps.Templates, funcMap, pageTemplates)
	if err != nil {
		return nil, err
	}
	partials, err := parsePartialTemplates(deps.Templates, funcMap, partialTemplates)
	if err != nil {
		return nil, err
	}

	return &Handler{
		sessions:     deps.Sessions,
		auth:         deps.Auth,
		onboarding:   deps.Onboarding,
		voice:        deps.Voice,
		voiceLimiter: deps.VoiceLimiter,
		i18n:         deps.I18n,
		cookies:      cookies,
		cookieSecure: deps.CookieSecure,
		logger:       logger.Named("web"),
		templates:    templates,
		partials:     partials,
	}, nil
}
