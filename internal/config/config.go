package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	Provider   ProviderConfig
	Governor   GovernorConfig
	Extraction ExtractionConfig
	Rules      RulesConfig
	CORS       CORSConfig
	Queue      QueueConfig
	Email      EmailConfig
	Cache      CacheConfig
}

// EmailConfig holds verdict notification settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// QueueConfig holds review queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig holds the local extraction cache settings.
type CacheConfig struct {
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// ProviderEndpointConfig holds settings for a single vision-analysis provider.
type ProviderEndpointConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ProviderConfig holds the primary and secondary extraction providers. The
// secondary one drives the second pass of dual validation; when unset, both
// passes use the primary provider.
type ProviderConfig struct {
	Primary   ProviderEndpointConfig `mapstructure:"primary"`
	Secondary ProviderEndpointConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, falling back to the primary.
func (p *ProviderConfig) SecondaryConfig() *ProviderEndpointConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return &p.Primary
}

// GovernorConfig bounds outbound provider calls.
type GovernorConfig struct {
	MaxConcurrentCalls int           `mapstructure:"max_concurrent_calls"`
	MinCallInterval    time.Duration `mapstructure:"min_call_interval"`
	CooldownDuration   time.Duration `mapstructure:"cooldown_duration"`
}

// ExtractionConfig controls how the orchestrator spends provider calls.
type ExtractionConfig struct {
	MaxUnclassifiedRetries int  `mapstructure:"max_unclassified_retries"`
	TypeBatchSize          int  `mapstructure:"type_batch_size"`
	MaxAttempts            int  `mapstructure:"max_attempts"`
	DualValidationEnabled  bool `mapstructure:"dual_validation_enabled"`
}

// RulesConfig holds rule engine tunables and announcement terms.
type RulesConfig struct {
	SealMatchThreshold float64   `mapstructure:"seal_match_threshold"`
	AnnouncementFile   string    `mapstructure:"announcement_file"`
	AnnouncementDate   time.Time `mapstructure:"announcement_date"`
	MinUnitArea        float64   `mapstructure:"min_unit_area"`
	MaxUnitArea        float64   `mapstructure:"max_unit_area"`
	MinUnits           int       `mapstructure:"min_units"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds API token settings.
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	Issuer      string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the HREVIEW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "hreview")
	v.SetDefault("db.password", "hreview_secret")
	v.SetDefault("db.name", "hreview_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.token_expiry", "12h")
	v.SetDefault("jwt.issuer", "housingreview")

	// S3 defaults
	v.SetDefault("s3.region", "ap-northeast-2")
	v.SetDefault("s3.bucket", "housingreview-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.concurrency", 2)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-northeast-2")
	v.SetDefault("email.from_address", "noreply@housingreview.kr")
	v.SetDefault("email.from_name", "Housing Review")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Cache defaults
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", "168h")

	// Provider defaults
	v.SetDefault("provider.primary.provider", "claude")
	v.SetDefault("provider.primary.api_key", "")
	v.SetDefault("provider.primary.default_model", "")
	v.SetDefault("provider.primary.timeout_secs", 120)
	v.SetDefault("provider.secondary.provider", "")
	v.SetDefault("provider.secondary.api_key", "")
	v.SetDefault("provider.secondary.default_model", "")
	v.SetDefault("provider.secondary.timeout_secs", 120)

	// Governor defaults
	v.SetDefault("governor.max_concurrent_calls", 5)
	v.SetDefault("governor.min_call_interval", "400ms")
	v.SetDefault("governor.cooldown_duration", "15s")

	// Extraction defaults
	v.SetDefault("extraction.max_unclassified_retries", 2)
	v.SetDefault("extraction.type_batch_size", 3)
	v.SetDefault("extraction.max_attempts", 3)
	v.SetDefault("extraction.dual_validation_enabled", false)

	// Rules defaults
	v.SetDefault("rules.seal_match_threshold", 45.0)
	v.SetDefault("rules.announcement_file", "")
	v.SetDefault("rules.announcement_date", "")
	v.SetDefault("rules.min_unit_area", 16.0)
	v.SetDefault("rules.max_unit_area", 85.0)
	v.SetDefault("rules.min_units", 15)

	// Bind environment variables explicitly for nested keys. The governor,
	// extraction and seal tunables keep their short operator-facing names.
	envBindings := map[string]string{
		"server.port":                         "HREVIEW_SERVER_PORT",
		"server.read_timeout":                 "HREVIEW_SERVER_READ_TIMEOUT",
		"server.write_timeout":                "HREVIEW_SERVER_WRITE_TIMEOUT",
		"server.environment":                  "HREVIEW_SERVER_ENVIRONMENT",
		"db.host":                             "HREVIEW_DB_HOST",
		"db.port":                             "HREVIEW_DB_PORT",
		"db.user":                             "HREVIEW_DB_USER",
		"db.password":                         "HREVIEW_DB_PASSWORD",
		"db.name":                             "HREVIEW_DB_NAME",
		"db.sslmode":                          "HREVIEW_DB_SSLMODE",
		"db.max_open":                         "HREVIEW_DB_MAX_OPEN",
		"db.max_idle":                         "HREVIEW_DB_MAX_IDLE",
		"jwt.secret":                          "HREVIEW_JWT_SECRET",
		"jwt.token_expiry":                    "HREVIEW_JWT_TOKEN_EXPIRY",
		"jwt.issuer":                          "HREVIEW_JWT_ISSUER",
		"s3.region":                           "HREVIEW_S3_REGION",
		"s3.bucket":                           "HREVIEW_S3_BUCKET",
		"s3.endpoint":                         "HREVIEW_S3_ENDPOINT",
		"s3.access_key":                       "HREVIEW_S3_ACCESS_KEY",
		"s3.secret_key":                       "HREVIEW_S3_SECRET_KEY",
		"s3.max_file_size_mb":                 "HREVIEW_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":                   "HREVIEW_S3_PRESIGN_EXPIRY",
		"log.level":                           "HREVIEW_LOG_LEVEL",
		"log.format":                          "HREVIEW_LOG_FORMAT",
		"cors.allowed_origins":                "HREVIEW_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":            "HREVIEW_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                   "HREVIEW_QUEUE_MAX_RETRIES",
		"queue.concurrency":                   "HREVIEW_QUEUE_CONCURRENCY",
		"email.provider":                      "HREVIEW_EMAIL_PROVIDER",
		"email.region":                        "HREVIEW_EMAIL_REGION",
		"email.from_address":                  "HREVIEW_EMAIL_FROM_ADDRESS",
		"email.from_name":                     "HREVIEW_EMAIL_FROM_NAME",
		"email.frontend_url":                  "HREVIEW_EMAIL_FRONTEND_URL",
		"cache.path":                          "HREVIEW_CACHE_PATH",
		"cache.ttl":                           "HREVIEW_CACHE_TTL",
		"provider.primary.provider":           "HREVIEW_PROVIDER_PRIMARY_PROVIDER",
		"provider.primary.api_key":            "HREVIEW_PROVIDER_PRIMARY_API_KEY",
		"provider.primary.default_model":      "HREVIEW_PROVIDER_PRIMARY_DEFAULT_MODEL",
		"provider.primary.timeout_secs":       "HREVIEW_PROVIDER_PRIMARY_TIMEOUT_SECS",
		"provider.secondary.provider":         "HREVIEW_PROVIDER_SECONDARY_PROVIDER",
		"provider.secondary.api_key":          "HREVIEW_PROVIDER_SECONDARY_API_KEY",
		"provider.secondary.default_model":    "HREVIEW_PROVIDER_SECONDARY_DEFAULT_MODEL",
		"provider.secondary.timeout_secs":     "HREVIEW_PROVIDER_SECONDARY_TIMEOUT_SECS",
		"governor.max_concurrent_calls":       "HREVIEW_MAX_CONCURRENT_CALLS",
		"governor.min_call_interval":          "HREVIEW_MIN_CALL_INTERVAL",
		"governor.cooldown_duration":          "HREVIEW_COOLDOWN_DURATION",
		"extraction.max_unclassified_retries": "HREVIEW_MAX_UNCLASSIFIED_RETRIES",
		"extraction.type_batch_size":          "HREVIEW_TYPE_BATCH_SIZE",
		"extraction.max_attempts":             "HREVIEW_EXTRACTION_MAX_ATTEMPTS",
		"extraction.dual_validation_enabled":  "HREVIEW_DUAL_VALIDATION_ENABLED",
		"rules.seal_match_threshold":          "HREVIEW_SEAL_MATCH_THRESHOLD",
		"rules.announcement_file":             "HREVIEW_ANNOUNCEMENT_FILE",
		"rules.announcement_date":             "HREVIEW_ANNOUNCEMENT_DATE",
		"rules.min_unit_area":                 "HREVIEW_MIN_UNIT_AREA",
		"rules.max_unit_area":                 "HREVIEW_MAX_UNIT_AREA",
		"rules.min_units":                     "HREVIEW_MIN_UNITS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if HREVIEW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HREVIEW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:      v.GetString("jwt.secret"),
		TokenExpiry: v.GetDuration("jwt.token_expiry"),
		Issuer:      v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Cache = CacheConfig{
		Path: v.GetString("cache.path"),
		TTL:  v.GetDuration("cache.ttl"),
	}
	cfg.Provider = ProviderConfig{
		Primary: ProviderEndpointConfig{
			Provider:     v.GetString("provider.primary.provider"),
			APIKey:       v.GetString("provider.primary.api_key"),
			DefaultModel: v.GetString("provider.primary.default_model"),
			TimeoutSecs:  v.GetInt("provider.primary.timeout_secs"),
		},
		Secondary: ProviderEndpointConfig{
			Provider:     v.GetString("provider.secondary.provider"),
			APIKey:       v.GetString("provider.secondary.api_key"),
			DefaultModel: v.GetString("provider.secondary.default_model"),
			TimeoutSecs:  v.GetInt("provider.secondary.timeout_secs"),
		},
	}
	cfg.Governor = GovernorConfig{
		MaxConcurrentCalls: v.GetInt("governor.max_concurrent_calls"),
		MinCallInterval:    v.GetDuration("governor.min_call_interval"),
		CooldownDuration:   v.GetDuration("governor.cooldown_duration"),
	}
	cfg.Extraction = ExtractionConfig{
		MaxUnclassifiedRetries: v.GetInt("extraction.max_unclassified_retries"),
		TypeBatchSize:          v.GetInt("extraction.type_batch_size"),
		MaxAttempts:            v.GetInt("extraction.max_attempts"),
		DualValidationEnabled:  v.GetBool("extraction.dual_validation_enabled"),
	}

	cfg.Rules = RulesConfig{
		SealMatchThreshold: v.GetFloat64("rules.seal_match_threshold"),
		AnnouncementFile:   v.GetString("rules.announcement_file"),
		MinUnitArea:        v.GetFloat64("rules.min_unit_area"),
		MaxUnitArea:        v.GetFloat64("rules.max_unit_area"),
		MinUnits:           v.GetInt("rules.min_units"),
	}
	if raw := strings.TrimSpace(v.GetString("rules.announcement_date")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, eris.Wrapf(err, "config: parse rules.announcement_date %q", raw)
		}
		cfg.Rules.AnnouncementDate = d
	}
	if cfg.Rules.AnnouncementFile != "" {
		if err := cfg.Rules.ApplyAnnouncementFile(cfg.Rules.AnnouncementFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects tunables the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Governor.MaxConcurrentCalls <= 0:
		return eris.New("config: max_concurrent_calls must be positive")
	case c.Governor.MinCallInterval < 0:
		return eris.New("config: min_call_interval must not be negative")
	case c.Governor.CooldownDuration < 0:
		return eris.New("config: cooldown_duration must not be negative")
	case c.Extraction.TypeBatchSize <= 0:
		return eris.New("config: type_batch_size must be positive")
	case c.Extraction.MaxUnclassifiedRetries < 0:
		return eris.New("config: max_unclassified_retries must not be negative")
	case c.Extraction.MaxAttempts <= 0:
		return eris.New("config: extraction max_attempts must be positive")
	case c.Rules.SealMatchThreshold < 0 || c.Rules.SealMatchThreshold > 100:
		return eris.New("config: seal_match_threshold must be within [0, 100]")
	case c.Rules.MinUnitArea > c.Rules.MaxUnitArea:
		return eris.New("config: min_unit_area exceeds max_unit_area")
	}
	return nil
}
