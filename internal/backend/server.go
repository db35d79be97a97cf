package backend

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/db"
	"github.com/dougwhitewolff/vasop-client/internal/ratelimit"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const (
	BasePath = "/vasop"

	defaultOTPTTL           = 15 * time.Minute
	forgotPasswordLimit     = 3
	forgotPasswordWindow    = 15 * time.Minute
	loginAttemptLimit       = 10
	loginAttemptWindow      = 15 * time.Minute
	defaultPreviewTimeout   = 20 * time.Second
	accountLocalsKey        = "backend_account"
	genericForgotPasswordOK = "If an account exists for that email, a reset code has been sent."
)

var errPreviewUnavailable = errors.New("voice preview is not configured")

type Options struct {
	SecretKey      []byte
	TokenTTL       time.Duration
	OTPTTL         time.Duration
	TTSUpstreamURL string
	HTTPClient     *http.Client
}

// Server is a self-contained implementation of the onboarding backend API.
type Server struct {
	repos         *db.Repositories
	mailer        Mailer
	engine        *validation.Engine
	logger        *zap.Logger
	options       Options
	forgotLimiter *ratelimit.AttemptLimiter
	loginLimiter  *ratelimit.AttemptLimiter
	httpClient    *http.Client
	now           func() time.Time
}

func NewServer(repos *db.Repositories, mailer Mailer, options Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	if options.TokenTTL <= 0 {
		options.TokenTTL = defaultTokenTTL
	}
	if options.OTPTTL <= 0 {
		options.OTPTTL = defaultOTPTTL
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultPreviewTimeout}
	}

	return &Server{
		repos:         repos,
		mailer:        mailer,
		engine:        validation.Default(),
		logger:        logger.Named("backend"),
		options:       options,
		forgotLimiter: ratelimit.NewAttemptLimiter(forgotPasswordLimit, forgotPasswordWindow),
		loginLimiter:  ratelimit.NewAttemptLimiter(loginAttemptLimit, loginAttemptWindow),
		httpClient:    httpClient,
		now:           time.Now,
	}
}

// App builds a standalone fiber app serving the API under BasePath.
func (server *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "vasop-backend",
		ErrorHandler: server.errorHandler,
		BodyLimit:    1 << 20,
	})
	app.Use(recover.New())
	server.Register(app.Group(BasePath))
	return app
}

func (server *Server) Register(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/signup", server.Signup)
	auth.Post("/login", server.Login)
	auth.Get("/me", server.requireAccount, server.Me)
	auth.Post("/forgot-password", server.ForgotPassword)
	auth.Post("/reset-password", server.ResetPassword)

	onboarding := router.Group("/onboarding", server.requireAccount)
	onboarding.Post("/save", server.SaveDraft)
	onboarding.Get("/my-submission", server.MySubmission)
	onboarding.Post("/submit", server.Submit)
	onboarding.Post("/preview-voice", server.PreviewVoice)
}

func (server *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	} else {
		server.logger.Error("backend request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(remote.ErrorResponse{Message: message})
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(remote.ErrorResponse{Message: message})
}

func validationError(c *fiber.Ctx, message string, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(remote.ErrorResponse{Message: message, Errors: fields})
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
