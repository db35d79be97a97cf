package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VASOP"

const minSecretKeyLength = 32

var (
	ErrMissingSecretKey     = errors.New("server.secret_key is required")
	ErrPlaceholderSecretKey = errors.New("server.secret_key uses a placeholder value")
	ErrShortSecretKey       = errors.New("server.secret_key must be at least 32 characters")
)

var placeholderSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

// RegisterFlags declares the command-line overrides understood by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a config file (yaml, json or toml)")
	flags.Int("port", 0, "HTTP port of the wizard")
	flags.Bool("embedded-backend", false, "serve the reference onboarding backend in-process")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("db", "", "sqlite database path")
}

// Load merges defaults, an optional config file, .env, VASOP_* environment
// variables and flags, in increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("config", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.secret_key", "")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.default_language", "en")
	v.SetDefault("server.templates_dir", "")
	v.SetDefault("server.locales_dir", "")
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("remote.base_url", "http://localhost:3001")
	v.SetDefault("remote.timeout", 15*time.Second)

	v.SetDefault("database.path", "data/vasop.db")

	v.SetDefault("cache.driver", CacheDriverSQLite)
	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "vasop:wizard:")

	v.SetDefault("wizard.save_validation", "lenient")
	v.SetDefault("wizard.trigger_method_policy", "user_choice")
	v.SetDefault("wizard.submit_redirect_delay", 2*time.Second)

	v.SetDefault("voice_preview.requests_per_minute", 6)
	v.SetDefault("voice_preview.burst", 2)

	v.SetDefault("backend.embedded", false)
	v.SetDefault("backend.port", 3001)
	v.SetDefault("backend.token_ttl", 7*24*time.Hour)
	v.SetDefault("backend.otp_ttl", 15*time.Minute)
	v.SetDefault("backend.tts_upstream_url", "")
	v.SetDefault("backend.smtp.host", "")
	v.SetDefault("backend.smtp.port", 587)
	v.SetDefault("backend.smtp.username", "")
	v.SetDefault("backend.smtp.password", "")
	v.SetDefault("backend.smtp.from", "no-reply@4trades.local")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"config":           "config",
		"port":             "server.port",
		"embedded-backend": "backend.embedded",
		"log-level":        "log.level",
		"db":               "database.path",
	}
	for flagName, key := range bindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", flagName, err)
		}
	}
	return nil
}

func (cfg *Config) Validate() error {
	secret, err := ValidateSecretKey(cfg.Server.SecretKey)
	if err != nil {
		return err
	}
	cfg.Server.SecretKey = secret

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", cfg.Server.Port)
	}
	if cfg.Backend.Embedded && (cfg.Backend.Port < 1 || cfg.Backend.Port > 65535) {
		return fmt.Errorf("backend.port %d is out of range", cfg.Backend.Port)
	}
	if cfg.Backend.Embedded && cfg.Backend.Port == cfg.Server.Port {
		return fmt.Errorf("backend.port must differ from server.port")
	}

	switch cfg.Cache.Driver {
	case CacheDriverSQLite, CacheDriverRedis, CacheDriverMemory:
	default:
		return fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}

	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		return errors.New("remote.base_url is required")
	}
	if cfg.Remote.Timeout <= 0 {
		return errors.New("remote.timeout must be positive")
	}
	if cfg.VoicePreview.RequestsPerMinute <= 0 || cfg.VoicePreview.Burst <= 0 {
		return errors.New("voice_preview limits must be positive")
	}
	if _, err := cfg.WizardPolicy(); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) WizardPolicy() (wizard.Policy, error) {
	policy := wizard.Policy{
		SaveValidation:      wizard.SaveValidation(strings.ToLower(strings.TrimSpace(cfg.Wizard.SaveValidation))),
		TriggerMethod:       wizard.TriggerMethodPolicy(strings.ToLower(strings.TrimSpace(cfg.Wizard.TriggerMethodPolicy))),
		SubmitRedirectDelay: cfg.Wizard.SubmitRedirectDelay,
	}
	if err := policy.Validate(); err != nil {
		return wizard.Policy{}, err
	}
	return policy, nil
}

// ValidateSecretKey rejects empty, placeholder and short secrets.
func ValidateSecretKey(raw string) (string, error) {
	secret := strings.TrimSpace(raw)
	if secret == "" {
		return "", ErrMissingSecretKey
	}
	if _, placeholder := placeholderSecretKeys[secret]; placeholder {
		return "", ErrPlaceholderSecretKey
	}
	if len(secret) < minSecretKeyLength {
		return "", ErrShortSecretKey
	}
	return secret, nil
}
