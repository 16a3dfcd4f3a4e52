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
	Timezone  string

	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Reports   ReportsConfig
	Audit     AuditConfig
}

// HTTPConfig bounds the lifetime of server connections.
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
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
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds token signing settings. An empty Secret is allowed at load
// time; token operations then fail per request.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig controls account registration and the bootstrap administrator.
type AuthConfig struct {
	EnableRegistration bool
	AdminUsername      string
	AdminPassword      string
	AdminEmail         string
	AdminDepartment    string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReportsConfig configures temp file handling for generated exports.
type ReportsConfig struct {
	TempDir         string
	TempTTL         time.Duration
	CleanupSchedule string
}

// AuditConfig sizes the asynchronous audit writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	Retries    int
}

// Location resolves the configured timezone, falling back to the server's
// local zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("APP_TIMEZONE")

	cfg.HTTP = HTTPConfig{
		ReadTimeout:     parseDuration(v.GetString("HTTP_READ_TIMEOUT"), 15*time.Second),
		WriteTimeout:    parseDuration(v.GetString("HTTP_WRITE_TIMEOUT"), 60*time.Second),
		ShutdownTimeout: parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 15*time.Second),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
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

	cfg.Auth = AuthConfig{
		EnableRegistration: v.GetBool("ENABLE_REGISTRATION"),
		AdminUsername:      v.GetString("ADMIN_USERNAME"),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		AdminEmail:         v.GetString("ADMIN_EMAIL"),
		AdminDepartment:    v.GetString("ADMIN_DEPARTMENT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled: v.GetBool("DASHBOARD_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 30*time.Second),
	}

	cfg.Reports = ReportsConfig{
		TempDir:         v.GetString("REPORTS_TEMP_DIR"),
		TempTTL:         parseDuration(v.GetString("REPORTS_TEMP_TTL"), time.Hour),
		CleanupSchedule: v.GetString("REPORTS_CLEANUP_SCHEDULE"),
	}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
		Retries:    v.GetInt("AUDIT_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("APP_TIMEZONE", "")

	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "60s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "screen_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "screen-admin-api")

	v.SetDefault("ENABLE_REGISTRATION", false)
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_DEPARTMENT", "Administration")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DASHBOARD_CACHE_ENABLED", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")

	v.SetDefault("REPORTS_TEMP_DIR", "./tmp/reports")
	v.SetDefault("REPORTS_TEMP_TTL", "1h")
	v.SetDefault("REPORTS_CLEANUP_SCHEDULE", "@every 1h")

	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_BUFFER_SIZE", 256)
	v.SetDefault("AUDIT_RETRIES", 3)
}

// isMissingFile reports a plain "no such file" from viper, which happens when
// SetConfigFile points at an absent .env.
func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file")
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
