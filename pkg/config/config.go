package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Mailer    MailerConfig
	Scheduler SchedulerConfig
	Surveys   SurveyConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to validate access tokens issued by
// the identity provider. Token issuance lives outside this service.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailerConfig selects and configures the outbound email transport.
type MailerConfig struct {
	Provider  string // "sendgrid" or "console"
	APIKey    string
	FromName  string
	FromEmail string
}

// SchedulerConfig governs the campaign sweep and dispatch behaviour.
type SchedulerConfig struct {
	SweepEnabled  bool
	SweepInterval time.Duration
	SendTimeout   time.Duration
	// SendingTTL bounds how long a campaign may sit in `sending` before the
	// reconciler marks it failed.
	SendingTTL    time.Duration
	SweepWorkers  int
	SweepQueueLen int
}

// SurveyConfig tunes survey status resolution.
type SurveyConfig struct {
	StatusCacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mailer = MailerConfig{
		Provider:  v.GetString("MAILER_PROVIDER"),
		APIKey:    v.GetString("MAILER_API_KEY"),
		FromName:  v.GetString("MAILER_FROM_NAME"),
		FromEmail: v.GetString("MAILER_FROM_EMAIL"),
	}

	cfg.Scheduler = SchedulerConfig{
		SweepEnabled:  v.GetBool("SCHEDULER_SWEEP_ENABLED"),
		SweepInterval: parseDuration(v.GetString("SCHEDULER_SWEEP_INTERVAL"), time.Minute),
		SendTimeout:   parseDuration(v.GetString("SCHEDULER_SEND_TIMEOUT"), 30*time.Second),
		SendingTTL:    parseDuration(v.GetString("SCHEDULER_SENDING_TTL"), 15*time.Minute),
		SweepWorkers:  v.GetInt("SCHEDULER_SWEEP_WORKERS"),
		SweepQueueLen: v.GetInt("SCHEDULER_SWEEP_QUEUE_LEN"),
	}

	cfg.Surveys = SurveyConfig{
		StatusCacheTTL: parseDuration(v.GetString("SURVEY_STATUS_CACHE_TTL"), 2*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campaign_engine")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAILER_PROVIDER", "console")
	v.SetDefault("MAILER_API_KEY", "")
	v.SetDefault("MAILER_FROM_NAME", "Course Notifications")
	v.SetDefault("MAILER_FROM_EMAIL", "no-reply@localhost")

	v.SetDefault("SCHEDULER_SWEEP_ENABLED", true)
	v.SetDefault("SCHEDULER_SWEEP_INTERVAL", "1m")
	v.SetDefault("SCHEDULER_SEND_TIMEOUT", "30s")
	v.SetDefault("SCHEDULER_SENDING_TTL", "15m")
	v.SetDefault("SCHEDULER_SWEEP_WORKERS", 1)
	v.SetDefault("SCHEDULER_SWEEP_QUEUE_LEN", 4)

	v.SetDefault("SURVEY_STATUS_CACHE_TTL", "2m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
