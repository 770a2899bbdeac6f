package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/carepulse-backend/internal/data/db"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/envutil"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/platform/openai"
	"github.com/yungbote/carepulse-backend/internal/platform/redis"
	"github.com/yungbote/carepulse-backend/internal/platform/sendgrid"
	"github.com/yungbote/carepulse-backend/internal/platform/twilio"
)

const (
	MomentStoreGorm  = "gorm"
	MomentStoreMongo = "mongo"

	SpeechProviderOpenAI = "openai"
	SpeechProviderGCP    = "gcp"
)

type Config struct {
	Port        string
	ServiceName string
	Environment string

	DB db.Config

	MomentStore string
	MongoURI    string
	MongoDB     string

	MediaDir       string
	MediaBaseURL   string
	MediaRoute     string
	MediaWorkDir   string
	MaxUploadBytes int64
	FFmpegPath     string
	FFprobePath    string

	OpenAI         openai.Config
	SpeechProvider string

	Twilio        twilio.Config
	SendGrid      sendgrid.Config
	NotifyChannel string

	Redis redis.Config

	JWTSecretKey string
	CORSOrigins  []string

	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	JobMaxAttempts     int
	JobRetryDelay      time.Duration
	JobTimeout         time.Duration

	TaskReminderLead time.Duration
	CleanupSchedule  string
	CleanupMaxAge    time.Duration

	MetricsEnabled     bool
	QueueDepthInterval time.Duration
	Otel               observability.OtelConfig
}

// LoadConfig reads the environment. When CONFIG_FILE names a YAML file its
// top-level keys fill in any variable the environment leaves unset.
func LoadConfig(log *logger.Logger) (Config, error) {
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		n, err := applyConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		log.Info("Loaded config file", "path", path, "keys_applied", n)
	}

	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "carepulse-backend"),
		Environment: envutil.String("APP_ENV", "development"),

		DB: db.Config{
			Driver:           strings.ToLower(envutil.String("DB_DRIVER", "sqlite")),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "carepulse"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       envutil.String("SQLITE_PATH", "carepulse.db"),
		},

		MomentStore: strings.ToLower(envutil.String("MOMENT_STORE", MomentStoreGorm)),
		MongoURI:    envutil.String("MONGO_URI", ""),
		MongoDB:     envutil.String("MONGO_DB", "carepulse"),

		MediaDir:       envutil.String("MEDIA_DIR", "uploads"),
		MediaBaseURL:   envutil.String("MEDIA_BASE_URL", "/media"),
		MediaRoute:     envutil.String("MEDIA_ROUTE", "/media"),
		MediaWorkDir:   envutil.String("MEDIA_WORK_DIR", filepath.Join(os.TempDir(), "carepulse-media")),
		MaxUploadBytes: int64(envutil.Int("MAX_UPLOAD_MB", 200)) << 20,
		FFmpegPath:     envutil.String("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:    envutil.String("FFPROBE_PATH", "ffprobe"),

		OpenAI:         openai.ConfigFromEnv(),
		SpeechProvider: strings.ToLower(envutil.String("SPEECH_PROVIDER", SpeechProviderOpenAI)),

		Twilio:        twilio.ConfigFromEnv(),
		SendGrid:      sendgrid.ConfigFromEnv(),
		NotifyChannel: strings.ToLower(envutil.String("NOTIFY_CHANNEL", "whatsapp")),

		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", "carepulse.moments"),
		},

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:  splitList(envutil.String("CORS_ORIGINS", "")),

		WorkerConcurrency:  envutil.Int("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: envutil.Duration("WORKER_POLL_INTERVAL", time.Second),
		JobMaxAttempts:     envutil.Int("JOB_MAX_ATTEMPTS", 3),
		JobRetryDelay:      envutil.Duration("JOB_RETRY_DELAY", 30*time.Second),
		JobTimeout:         envutil.Duration("JOB_TIMEOUT", 10*time.Minute),

		TaskReminderLead: envutil.Duration("TASK_REMINDER_LEAD", time.Hour),
		CleanupSchedule:  envutil.String("CLEANUP_SCHEDULE", "@hourly"),
		CleanupMaxAge:    envutil.Duration("CLEANUP_MAX_AGE", 24*time.Hour),

		MetricsEnabled:     envutil.Bool("METRICS_ENABLED", true),
		QueueDepthInterval: envutil.Duration("METRICS_QUEUE_INTERVAL", 15*time.Second),
	}
	cfg.Otel = observability.OtelConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false),
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     envutil.String("APP_VERSION", "dev"),
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		SampleRatio: envFloat("OTEL_SAMPLER_RATIO", 1),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	switch c.MomentStore {
	case MomentStoreGorm:
	case MomentStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MOMENT_STORE=mongo requires MONGO_URI")
		}
	default:
		return fmt.Errorf("MOMENT_STORE must be gorm or mongo, got %q", c.MomentStore)
	}
	switch c.SpeechProvider {
	case SpeechProviderOpenAI, SpeechProviderGCP:
	default:
		return fmt.Errorf("SPEECH_PROVIDER must be openai or gcp, got %q", c.SpeechProvider)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be >= 1")
	}
	return nil
}

// applyConfigFile exports the file's scalar values for keys the environment
// does not already set. Nested maps and lists are rejected.
func applyConfigFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read config file: %w", err)
	}
	var values map[string]interface{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return 0, fmt.Errorf("parse config file: %w", err)
	}
	applied := 0
	for key, v := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			return applied, fmt.Errorf("config key %s: only scalar values are supported", key)
		}
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		val := ""
		if v != nil {
			val = fmt.Sprint(v)
		}
		if err := os.Setenv(key, val); err != nil {
			return applied, fmt.Errorf("set %s: %w", key, err)
		}
		applied++
	}
	return applied, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envFloat(name string, def float64) float64 {
	v := envutil.String(name, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
