package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/api"
	"github.com/dougwhitewolff/vasop-client/internal/backend"
	"github.com/dougwhitewolff/vasop-client/internal/cache"
	"github.com/dougwhitewolff/vasop-client/internal/cli"
	"github.com/dougwhitewolff/vasop-client/internal/config"
	"github.com/dougwhitewolff/vasop-client/internal/db"
	"github.com/dougwhitewolff/vasop-client/internal/i18n"
	"github.com/dougwhitewolff/vasop-client/internal/logging"
	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/ratelimit"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/dougwhitewolff/vasop-client/internal/templates"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	loginAttemptsPerWindow = 10
	loginAttemptWindow     = 15 * time.Minute
	snapshotPurgeInterval  = time.Hour
	shutdownTimeout        = 10 * time.Second
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "reset-password" {
		if err := runResetPassword(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "reset-password: %v\n", err)
			os.Exit(1)
		}
		return
	}

	flags := pflag.NewFlagSet("vasop", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func runResetPassword(args []string) error {
	flags := pflag.NewFlagSet("reset-password", pflag.ContinueOnError)
	email := flags.String("email", "", "account email")
	dbPath := flags.String("db", "data/vasop.db", "sqlite database path")
	if err := flags.Parse(args); err != nil {
		return err
	}
	return cli.RunResetPasswordCommand(os.Stdout, *dbPath, *email)
}

func run(cfg *config.Config, logger *zap.Logger) error {
	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()

	var database *gorm.DB
	if cfg.Backend.Embedded || cfg.Cache.Driver == config.CacheDriverSQLite {
		opened, err := db.OpenSQLite(cfg.Database.Path, logger)
		if err != nil {
			return fmt.Errorf("database init failed: %w", err)
		}
		database = opened
	}

	var backendApp *fiber.App
	if cfg.Backend.Embedded {
		backendApp = newEmbeddedBackend(cfg, database, logger)
		go func() {
			address := fmt.Sprintf("127.0.0.1:%d", cfg.Backend.Port)
			logger.Info("embedded backend listening", zap.String("address", address))
			if err := backendApp.Listen(address); err != nil {
				logger.Error("embedded backend exited", zap.Error(err))
			}
		}()
	}

	client := remote.NewClient(remoteBaseURL(cfg), cfg.Remote.Timeout, logger)

	draftCache, err := openDraftCache(lifecycleCtx, cfg, database, logger)
	if err != nil {
		return err
	}

	policy, err := cfg.WizardPolicy()
	if err != nil {
		return err
	}

	locales, templateFiles := assetSources(cfg)
	i18nManager, err := i18n.NewManager(cfg.Server.DefaultLanguage, locales)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	handler, err := api.NewHandler(api.Dependencies{
		Sessions:     services.NewSessionService(client, logger),
		Auth:         services.NewAuthService(client, nil, logger),
		Onboarding:   services.NewOnboardingService(wizard.NewMachine(policy, nil), client, draftCache, logger),
		Voice:        client,
		VoiceLimiter: ratelimit.NewKeyedLimiter(rate.Limit(float64(cfg.VoicePreview.RequestsPerMinute)/60), cfg.VoicePreview.Burst),
		I18n:         i18nManager,
		Templates:    templateFiles,
		SecretKey:    []byte(cfg.Server.SecretKey),
		CookieSecure: cfg.Server.CookieSecure,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "vasop",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logging.RequestLogger(logger))
	app.Use(compress.New())
	if cfg.Server.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}
	app.Use(handler.LanguageMiddleware)
	app.Use(csrf.New(csrfMiddlewareConfig(cfg.Server.CookieSecure)))
	app.Use(limiter.New(loginLimiterConfig(cfg.Server.CookieSecure)))

	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("server shutdown failed", zap.Error(err))
		}
		if backendApp != nil {
			if err := backendApp.ShutdownWithContext(shutdownCtx); err != nil {
				logger.Warn("embedded backend shutdown failed", zap.Error(err))
			}
		}
	}()

	address := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("vasop listening",
		zap.String("address", address),
		zap.String("remote", remoteBaseURL(cfg)),
		zap.String("cache", cfg.Cache.Driver),
	)
	return app.Listen(address)
}

func newEmbeddedBackend(cfg *config.Config, database *gorm.DB, logger *zap.Logger) *fiber.App {
	var mailer backend.Mailer
	if strings.TrimSpace(cfg.Backend.SMTP.Host) != "" {
		mailer = backend.NewSMTPMailer(backend.SMTPSettings{
			Host:     cfg.Backend.SMTP.Host,
			Port:     cfg.Backend.SMTP.Port,
			Username: cfg.Backend.SMTP.Username,
			Password: cfg.Backend.SMTP.Password,
			From:     cfg.Backend.SMTP.From,
		})
	} else {
		logger.Warn("backend.smtp.host is empty, reset codes are written to the log")
		mailer = backend.NewLogMailer(logger)
	}

	server := backend.NewServer(db.NewRepositories(database), mailer, backend.Options{
		SecretKey:      []byte(cfg.Server.SecretKey),
		TokenTTL:       cfg.Backend.TokenTTL,
		OTPTTL:         cfg.Backend.OTPTTL,
		TTSUpstreamURL: cfg.Backend.TTSUpstreamURL,
	}, logger)
	return server.App()
}

// remoteBaseURL points the client at the embedded backend when it runs.
func remoteBaseURL(cfg *config.Config) string {
	if cfg.Backend.Embedded {
		return fmt.Sprintf("http://127.0.0.1:%d", cfg.Backend.Port)
	}
	return strings.TrimRight(strings.TrimSpace(cfg.Remote.BaseURL), "/")
}

func openDraftCache(ctx context.Context, cfg *config.Config, database *gorm.DB, logger *zap.Logger) (services.DraftCache, error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverRedis:
		redisCache := cache.NewRedisDraftCache(cache.RedisOptions{
			Address:   cfg.Cache.Redis.Address,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
			TTL:       cfg.Cache.TTL,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("redis draft cache: %w", err)
		}
		go func() {
			<-ctx.Done()
			_ = redisCache.Close()
		}()
		return redisCache, nil
	case config.CacheDriverMemory:
		return cache.NewMemoryDraftCache(cfg.Cache.TTL), nil
	case config.CacheDriverSQLite:
		if database == nil {
			return nil, errors.New("sqlite draft cache needs a database")
		}
		snapshots := db.NewSnapshotRepository(database, cfg.Cache.TTL)
		go purgeSnapshots(ctx, snapshots, snapshotPurgeInterval, logger)
		return snapshots, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

type expiringStore interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func purgeSnapshots(ctx context.Context, store expiringStore, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired wizard snapshots", zap.Error(err))
				continue
			}
			if purged > 0 {
				logger.Debug("purged expired wizard snapshots", zap.Int64("count", purged))
			}
		}
	}
}

// assetSources prefers on-disk overrides and falls back to the embedded files.
func assetSources(cfg *config.Config) (fs.FS, fs.FS) {
	locales := i18n.EmbeddedLocales()
	if dir := strings.TrimSpace(cfg.Server.LocalesDir); dir != "" {
		locales = os.DirFS(dir)
	}
	var templateFiles fs.FS = templates.Files
	if dir := strings.TrimSpace(cfg.Server.TemplatesDir); dir != "" {
		templateFiles = os.DirFS(dir)
	}
	return locales, templateFiles
}

func csrfMiddlewareConfig(cookieSecure bool) csrf.Config {
	return csrf.Config{
		KeyLookup:      "form:csrf_token",
		CookieName:     "vasop_csrf",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   cookieSecure,
		ContextKey:     "csrf",
		Expiration:     12 * time.Hour,
	}
}

func loginLimiterConfig(cookieSecure bool) limiter.Config {
	return limiter.Config{
		Max:        loginAttemptsPerWindow,
		Expiration: loginAttemptWindow,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost || c.Path() != "/login"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return redirectWithErrorCode(c, "/login", "auth.error.too_many_requests", cookieSecure)
		},
	}
}

// redirectWithErrorCode flashes an error notice and keeps the typed email.
func redirectWithErrorCode(c *fiber.Ctx, path string, key string, cookieSecure bool) error {
	payload := api.FlashPayload{
		Notices: []api.FlashNotice{{Level: wizard.NotifyError, Key: key}},
		Email:   models.NormalizeEmail(c.FormValue("email")),
	}
	if serialized, err := json.Marshal(payload); err == nil {
		c.Cookie(&fiber.Cookie{
			Name:     api.FlashCookieName,
			Value:    base64.RawURLEncoding.EncodeToString(serialized),
			Path:     "/",
			HTTPOnly: true,
			Secure:   cookieSecure,
			SameSite: "Lax",
			Expires:  time.Now().Add(5 * time.Minute),
		})
	}
	return c.Redirect(path, fiber.StatusSeeOther)
}
