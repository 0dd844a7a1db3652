package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/db"
	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/observability"
)

const defaultJWTSecret = "defaultsecret"

type StorageConfig struct {
	Mode           string
	EmulatorHost   string
	PublicBaseURL  string
	VideosBucket   string
	VideosCDN      string
	PostersBucket  string
	PostersCDN     string
	LocalDir       string
	LocalBaseURL   string
	MaxUploadBytes int64
}

type CacheConfig struct {
	Backend   string
	TTL       time.Duration
	Size      int
	RedisAddr string
	RedisDB   int
}

type MailConfig struct {
	SendGridAPIKey  string
	SendGridBaseURL string
	FromEmail       string
	FromName        string
	LeadRecipients  []string
}

type Config struct {
	Port    string
	LogMode string

	DB db.Config

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Storage StorageConfig
	Cache   CacheConfig
	Mail    MailConfig

	CORSAllowedOrigins []string
	FormTTL            time.Duration
	FormCapacity       int
	SpoolDir           string
	MetricsEnabled     bool

	OTel observability.OtelConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_MODE", "development")

	v.SetDefault("DB_DRIVER", db.DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_NAME", "saarthak")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "saarthak.db")

	v.SetDefault("JWT_SECRET_KEY", defaultJWTSecret)
	v.SetDefault("ACCESS_TOKEN_TTL", 3600)
	v.SetDefault("REFRESH_TOKEN_TTL", 86400)

	v.SetDefault("VIDEOS_BUCKET", "saarthak-videos")
	v.SetDefault("POSTERS_BUCKET", "saarthak-posters")
	v.SetDefault("LOCAL_STORAGE_DIR", filepath.Join("data", "media"))
	v.SetDefault("LOCAL_STORAGE_BASE_URL", "http://localhost:8080/media")
	v.SetDefault("MAX_UPLOAD_BYTES", 32<<20)

	v.SetDefault("CACHE_BACKEND", cacheBackendMemory)
	v.SetDefault("CACHE_TTL", cache.DefaultTTL.String())
	v.SetDefault("CACHE_SIZE", cache.DefaultSize)

	v.SetDefault("SENDGRID_FROM_NAME", "SAARTHAK")

	v.SetDefault("FORM_TTL", lifecycle.DefaultFormTTL.String())
	v.SetDefault("FORM_CAPACITY", lifecycle.DefaultFormCapacity)
	v.SetDefault("METRICS_ENABLED", true)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", observability.DefaultServiceName)
	v.SetDefault("OTEL_SAMPLER_RATIO", 0.1)
}

// LoadConfig reads settings from the environment, layered over an optional
// YAML file at path. Keys in the file are the lower-cased variable names.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return configFrom(v)
}

func configFrom(v *viper.Viper) (Config, error) {
	var errs []error
	dur := func(key string) time.Duration {
		d, err := durationSetting(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	spool := strings.TrimSpace(v.GetString("SPOOL_DIR"))
	if spool == "" {
		spool = filepath.Join(os.TempDir(), "saarthak-uploads")
	}

	cfg := Config{
		Port:    strings.TrimSpace(v.GetString("PORT")),
		LogMode: strings.TrimSpace(v.GetString("LOG_MODE")),
		DB: db.Config{
			Driver: v.GetString("DB_DRIVER"),
			Postgres: db.PostgresConfig{
				DSN:      v.GetString("POSTGRES_DSN"),
				Host:     v.GetString("POSTGRES_HOST"),
				Port:     v.GetString("POSTGRES_PORT"),
				User:     v.GetString("POSTGRES_USER"),
				Password: v.GetString("POSTGRES_PASSWORD"),
				Name:     v.GetString("POSTGRES_NAME"),
				SSLMode:  v.GetString("POSTGRES_SSLMODE"),
			},
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		JWTSecretKey:    v.GetString("JWT_SECRET_KEY"),
		AccessTokenTTL:  dur("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: dur("REFRESH_TOKEN_TTL"),
		Storage: StorageConfig{
			Mode:           v.GetString("OBJECT_STORAGE_MODE"),
			EmulatorHost:   v.GetString("STORAGE_EMULATOR_HOST"),
			PublicBaseURL:  v.GetString("OBJECT_STORAGE_PUBLIC_BASE_URL"),
			VideosBucket:   v.GetString("VIDEOS_BUCKET"),
			VideosCDN:      v.GetString("VIDEOS_CDN_DOMAIN"),
			PostersBucket:  v.GetString("POSTERS_BUCKET"),
			PostersCDN:     v.GetString("POSTERS_CDN_DOMAIN"),
			LocalDir:       v.GetString("LOCAL_STORAGE_DIR"),
			LocalBaseURL:   v.GetString("LOCAL_STORAGE_BASE_URL"),
			MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		},
		Cache: CacheConfig{
			Backend:   strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
			TTL:       dur("CACHE_TTL"),
			Size:      v.GetInt("CACHE_SIZE"),
			RedisAddr: strings.TrimSpace(v.GetString("REDIS_ADDR")),
			RedisDB:   v.GetInt("REDIS_DB"),
		},
		Mail: MailConfig{
			SendGridAPIKey:  strings.TrimSpace(v.GetString("SENDGRID_API_KEY")),
			SendGridBaseURL: strings.TrimSpace(v.GetString("SENDGRID_BASE_URL")),
			FromEmail:       strings.TrimSpace(v.GetString("SENDGRID_FROM_EMAIL")),
			FromName:        strings.TrimSpace(v.GetString("SENDGRID_FROM_NAME")),
			LeadRecipients:  splitList(v.GetString("LEAD_ALERT_RECIPIENTS")),
		},
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		FormTTL:            dur("FORM_TTL"),
		FormCapacity:       v.GetInt("FORM_CAPACITY"),
		SpoolDir:           spool,
		MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
		OTel: observability.OtelConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
			Endpoint:    strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
			Headers:     observability.ParseHeaders(v.GetString("OTEL_EXPORTER_OTLP_HEADERS")),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			SampleRatio: clampRatio(v.GetFloat64("OTEL_SAMPLER_RATIO")),
		},
	}

	switch cfg.Cache.Backend {
	case cacheBackendMemory:
	case cacheBackendRedis:
		if cfg.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("CACHE_BACKEND=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported CACHE_BACKEND %q (allowed: %q, %q)", cfg.Cache.Backend, cacheBackendMemory, cacheBackendRedis))
	}
	if cfg.Mail.SendGridAPIKey != "" && cfg.Mail.FromEmail == "" {
		errs = append(errs, errors.New("SENDGRID_API_KEY requires SENDGRID_FROM_EMAIL"))
	}
	if cfg.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	return cfg, errors.Join(errs...)
}

// durationSetting accepts a bare integer as seconds, otherwise a Go duration
// string like "15m".
func durationSetting(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", raw)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clampRatio(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func (c Config) Address() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
