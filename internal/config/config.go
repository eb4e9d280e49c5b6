package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Cloudinary CloudinaryConfig
	Gemini     GeminiConfig
	Notifier   NotifierConfig
	Pipeline   PipelineConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret           string
	AccessTokenTTLHours int
	BcryptCost          int
}

// CloudinaryConfig holds image hosting credentials and limits.
type CloudinaryConfig struct {
	URL            string
	Folder         string
	MaxUploadBytes int
}

// GeminiConfig holds vision model settings.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NotifierConfig controls the ticket insert watcher.
type NotifierConfig struct {
	WebhookURL             string
	Channel                string
	ReconnectSeconds       int
	DeliveryTimeoutSeconds int
}

// PipelineConfig controls the camera ingestion pipeline.
type PipelineConfig struct {
	SeverityThreshold      int
	MaxImages              int
	IntervalHours          int
	RetryBackoffMinutes    int
	CameraListURL          string
	CameraImageURLTemplate string
	DemoImagesDir          string
	UploadImages           bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "streetsweep-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("JWT_SECRET", "dev-secret"),
			AccessTokenTTLHours: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_HOURS", 12),
			BcryptCost:          getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Cloudinary: CloudinaryConfig{
			URL:            os.Getenv("CLOUDINARY_URL"),
			Folder:         getEnv("CLOUDINARY_FOLDER", "streetsweep"),
			MaxUploadBytes: getEnvAsInt("CLOUDINARY_MAX_UPLOAD_BYTES", 10_000_000),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GOOGLE_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Notifier: NotifierConfig{
			WebhookURL:             getEnv("WEBHOOK_URL", ""),
			Channel:                getEnv("NOTIFIER_CHANNEL", "ticket_inserts"),
			ReconnectSeconds:       getEnvAsInt("NOTIFIER_RECONNECT_SECONDS", 2),
			DeliveryTimeoutSeconds: getEnvAsInt("NOTIFIER_DELIVERY_TIMEOUT_SECONDS", 3),
		},
		Pipeline: PipelineConfig{
			SeverityThreshold:      getEnvAsInt("PIPELINE_SEVERITY_THRESHOLD", 4),
			MaxImages:              getEnvAsInt("PIPELINE_MAX_IMAGES", 50),
			IntervalHours:          getEnvAsInt("PIPELINE_INTERVAL_HOURS", 14*24),
			RetryBackoffMinutes:    getEnvAsInt("PIPELINE_RETRY_BACKOFF_MINUTES", 60),
			CameraListURL:          getEnv("CAMERA_LIST_URL", "https://opendata.toronto.ca/transportation/tmc/rescucameraimages/Data/tmcearthcameras.json"),
			CameraImageURLTemplate: getEnv("CAMERA_IMAGE_URL_TEMPLATE", "https://opendata.toronto.ca/transportation/tmc/rescucameraimages/CameraImages/loc%s.jpg"),
			DemoImagesDir:          getEnv("PIPELINE_DEMO_IMAGES_DIR", "demoimages"),
			UploadImages:           getEnvAsBool("PIPELINE_UPLOAD_IMAGES", true),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// BodyLimit returns the HTTP body cap. A max-size raw image arrives
// base64-encoded inside a JSON payload, so the cap covers the encoded
// form (4 bytes per 3 raw) plus a megabyte of envelope slack.
func (c CloudinaryConfig) BodyLimit() int {
	return (c.MaxUploadBytes+2)/3*4 + 1<<20
}

// ReconnectBackoff returns the watcher resubscribe delay.
func (n NotifierConfig) ReconnectBackoff() time.Duration {
	if n.ReconnectSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(n.ReconnectSeconds) * time.Second
}

// DeliveryTimeout returns the webhook POST timeout.
func (n NotifierConfig) DeliveryTimeout() time.Duration {
	if n.DeliveryTimeoutSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(n.DeliveryTimeoutSeconds) * time.Second
}

// Interval returns the scheduled run period.
func (p PipelineConfig) Interval() time.Duration {
	if p.IntervalHours <= 0 {
		return 14 * 24 * time.Hour
	}
	return time.Duration(p.IntervalHours) * time.Hour
}

// RetryBackoff returns the wait after a failed cycle.
func (p PipelineConfig) RetryBackoff() time.Duration {
	if p.RetryBackoffMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(p.RetryBackoffMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
