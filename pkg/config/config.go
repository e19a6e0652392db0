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

	RecordStore RecordStoreConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Phone       PhoneConfig
	Enrollment  EnrollmentConfig
	Resolver    ResolverConfig
	Import      ImportConfig
}

// RecordStoreConfig describes the external CMS holding all persistent records.
type RecordStoreConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
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

// PhoneConfig controls phone number canonicalisation.
type PhoneConfig struct {
	CountryCode string
}

// EnrollmentConfig carries the hard seat limit shared by the roster and
// exchange services. MaxSeats is explicit configuration, never read from
// ambient state, so the capacity engine stays pure.
type EnrollmentConfig struct {
	MaxSeats int
}

// ResolverConfig tunes identity resolution caching.
type ResolverConfig struct {
	CacheTTL time.Duration
}

// ImportConfig bounds a single roster import invocation.
type ImportConfig struct {
	MaxPerRequest int
	BatchSize     int
	BatchDelay    time.Duration
	RowTimeout    time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
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

	cfg.RecordStore = RecordStoreConfig{
		BaseURL: strings.TrimRight(v.GetString("RECORD_STORE_URL"), "/"),
		Token:   v.GetString("RECORD_STORE_TOKEN"),
		Timeout: parseDuration(v.GetString("RECORD_STORE_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Enabled:  v.GetBool("REDIS_ENABLED"),
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

	cfg.Phone = PhoneConfig{
		CountryCode: v.GetString("PHONE_COUNTRY_CODE"),
	}

	cfg.Enrollment = EnrollmentConfig{
		MaxSeats: v.GetInt("MAX_SEATS"),
	}

	cfg.Resolver = ResolverConfig{
		CacheTTL: parseDuration(v.GetString("RESOLVER_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Import = ImportConfig{
		MaxPerRequest: v.GetInt("IMPORT_MAX_PER_REQUEST"),
		BatchSize:     v.GetInt("IMPORT_BATCH_SIZE"),
		BatchDelay:    parseDuration(v.GetString("IMPORT_BATCH_DELAY"), 500*time.Millisecond),
		RowTimeout:    parseDuration(v.GetString("IMPORT_ROW_TIMEOUT"), 10*time.Second),
		MaxRetries:    v.GetInt("IMPORT_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("IMPORT_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("RECORD_STORE_URL", "http://localhost:1337/api")
	v.SetDefault("RECORD_STORE_TOKEN", "")
	v.SetDefault("RECORD_STORE_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", false)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "mentoria-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PHONE_COUNTRY_CODE", "55")
	v.SetDefault("MAX_SEATS", 15)
	v.SetDefault("RESOLVER_CACHE_TTL", "5m")

	v.SetDefault("IMPORT_MAX_PER_REQUEST", 50)
	v.SetDefault("IMPORT_BATCH_SIZE", 5)
	v.SetDefault("IMPORT_BATCH_DELAY", "500ms")
	v.SetDefault("IMPORT_ROW_TIMEOUT", "10s")
	v.SetDefault("IMPORT_MAX_RETRIES", 3)
	v.SetDefault("IMPORT_RETRY_DELAY", "1s")
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
