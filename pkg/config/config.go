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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Feed     FeedConfig
	Sync     SyncConfig
	Matching MatchingConfig
	Cache    CacheConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FeedConfig points the engine at the external spreadsheet export endpoint.
type FeedConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SyncConfig drives the background auto-sync queue.
type SyncConfig struct {
	AutoEnabled bool
	Interval    time.Duration
	Workers     int
}

// MatchingConfig tunes column sniffing and validation without code changes:
// form headers are operator-defined free text and vary by locale.
type MatchingConfig struct {
	RequiredFields []string
	ChildKeywords  []string
	ParentKeywords []string
	EmailKeywords  []string
	PhoneKeywords  []string
}

// CacheConfig governs classification snapshot caching.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Feed = FeedConfig{
		BaseURL: v.GetString("FEED_BASE_URL"),
		Timeout: parseDuration(v.GetString("FEED_TIMEOUT"), 30*time.Second),
	}

	cfg.Sync = SyncConfig{
		AutoEnabled: v.GetBool("SYNC_AUTO_ENABLED"),
		Interval:    parseDuration(v.GetString("SYNC_INTERVAL"), 15*time.Minute),
		Workers:     v.GetInt("SYNC_WORKERS"),
	}

	cfg.Matching = MatchingConfig{
		RequiredFields: splitAndTrim(v.GetString("MATCHING_REQUIRED_FIELDS")),
		ChildKeywords:  splitAndTrim(v.GetString("MATCHING_CHILD_KEYWORDS")),
		ParentKeywords: splitAndTrim(v.GetString("MATCHING_PARENT_KEYWORDS")),
		EmailKeywords:  splitAndTrim(v.GetString("MATCHING_EMAIL_KEYWORDS")),
		PhoneKeywords:  splitAndTrim(v.GetString("MATCHING_PHONE_KEYWORDS")),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CLASSIFICATION_CACHE"),
		TTL:     parseDuration(v.GetString("CLASSIFICATION_CACHE_TTL"), 5*time.Minute),
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
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MATCHING_REQUIRED_FIELDS", "Timestamp")
	v.SetDefault("SYNC_WORKERS", 2)
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
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
