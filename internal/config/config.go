package config

import "time"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Remote       RemoteConfig       `mapstructure:"remote"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Wizard       WizardConfig       `mapstructure:"wizard"`
	VoicePreview VoicePreviewConfig `mapstructure:"voice_preview"`
	Backend      BackendConfig      `mapstructure:"backend"`
}

type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	SecretKey       string `mapstructure:"secret_key"`
	CookieSecure    bool   `mapstructure:"cookie_secure"`
	DefaultLanguage string `mapstructure:"default_language"`
	TemplatesDir    string `mapstructure:"templates_dir"`
	LocalesDir      string `mapstructure:"locales_dir"`
	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

const (
	CacheDriverSQLite = "sqlite"
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
	Redis  RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type WizardConfig struct {
	SaveValidation      string        `mapstructure:"save_validation"`
	TriggerMethodPolicy string        `mapstructure:"trigger_method_policy"`
	SubmitRedirectDelay time.Duration `mapstructure:"submit_redirect_delay"`
}

type VoicePreviewConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type BackendConfig struct {
	Embedded       bool          `mapstructure:"embedded"`
	Port           int           `mapstructure:"port"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	OTPTTL         time.Duration `mapstructure:"otp_ttl"`
	TTSUpstreamURL string        `mapstructure:"tts_upstream_url"`
	SMTP           SMTPConfig    `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}
