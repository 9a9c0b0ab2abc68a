package config

import (
	"errors"
	"io/fs"
	"strconv"
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
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	Inventory InventoryConfig
	QR        QRConfig
	Reports   ReportsConfig
	Cache     CacheConfig
	Audit     AuditConfig
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
	ConnMaxAge   time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// SessionConfig controls idle logout and cookie lifetime.
type SessionConfig struct {
	TimeoutMinutes   int
	RememberDays     int
	ActivityThrottle time.Duration
	CookieName       string
	CSRFCookieName   string
	CookieDomain     string
	CookieSecure     bool
}

// IdleTimeout returns SESSION_TIMEOUT_MINUTES as a duration.
func (s SessionConfig) IdleTimeout() time.Duration {
	if s.TimeoutMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.TimeoutMinutes) * time.Minute
}

// RememberFor returns the remember-me cookie lifetime.
func (s SessionConfig) RememberFor() time.Duration {
	if s.RememberDays <= 0 {
		return 14 * 24 * time.Hour
	}
	return time.Duration(s.RememberDays) * 24 * time.Hour
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// InventoryConfig carries assignment engine limits and alert horizons.
type InventoryConfig struct {
	MaxDevicesPerStaff         int
	AssignmentNotificationDays int
	WarrantyAlertDays          int
	StaffCleanupInterval       time.Duration
	StaffInactiveGraceDays     int
	BulkChunkSize              int
}

// QRConfig configures payload URLs, image geometry and label output.
type QRConfig struct {
	BaseURL    string
	ModuleSize int
	Border     int
	LabelDir   string
}

// ReportsConfig configures report previews and asynchronous exports.
type ReportsConfig struct {
	MaxRecords        int
	GenerationTimeout time.Duration
	CacheTimeout      time.Duration
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// CacheConfig governs the derived stats cache.
type CacheConfig struct {
	Enabled          bool
	QuickStatsTTL    time.Duration
	SystemStatsTTL   time.Duration
	NotificationsTTL time.Duration
}

type AuditConfig struct {
	RetentionDays int
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

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxAge:   parseDuration(v.GetString("CONN_MAX_AGE"), 5*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Session = SessionConfig{
		TimeoutMinutes:   v.GetInt("SESSION_TIMEOUT_MINUTES"),
		RememberDays:     v.GetInt("SESSION_REMEMBER_DAYS"),
		ActivityThrottle: parseDuration(v.GetString("SESSION_ACTIVITY_THROTTLE"), 5*time.Minute),
		CookieName:       v.GetString("SESSION_COOKIE_NAME"),
		CSRFCookieName:   v.GetString("CSRF_COOKIE_NAME"),
		CookieDomain:     v.GetString("SESSION_COOKIE_DOMAIN"),
		CookieSecure:     v.GetBool("SESSION_COOKIE_SECURE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Inventory = InventoryConfig{
		MaxDevicesPerStaff:         v.GetInt("MAX_DEVICES_PER_STAFF"),
		AssignmentNotificationDays: v.GetInt("ASSIGNMENT_NOTIFICATION_DAYS"),
		WarrantyAlertDays:          v.GetInt("WARRANTY_ALERT_DAYS"),
		StaffCleanupInterval:       parseDuration(v.GetString("STAFF_CLEANUP_INTERVAL"), 24*time.Hour),
		StaffInactiveGraceDays:     v.GetInt("STAFF_INACTIVE_GRACE_DAYS"),
		BulkChunkSize:              v.GetInt("BULK_CHUNK_SIZE"),
	}

	cfg.QR = QRConfig{
		BaseURL:    strings.TrimRight(v.GetString("QR_CODE_BASE_URL"), "/"),
		ModuleSize: v.GetInt("QR_CODE_MODULE_SIZE"),
		Border:     v.GetInt("QR_CODE_BORDER"),
		LabelDir:   v.GetString("QR_LABEL_STORAGE_DIR"),
	}

	cfg.Reports = ReportsConfig{
		MaxRecords:        v.GetInt("MAX_REPORT_RECORDS"),
		GenerationTimeout: parseSeconds(v.GetString("REPORT_GENERATION_TIMEOUT"), 5*time.Minute),
		CacheTimeout:      parseSeconds(v.GetString("REPORT_CACHE_TIMEOUT"), time.Hour),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	cfg.Cache = CacheConfig{
		Enabled:          v.GetBool("ENABLE_STATS_CACHE"),
		QuickStatsTTL:    parseDuration(v.GetString("QUICK_STATS_CACHE_TTL"), 5*time.Minute),
		SystemStatsTTL:   parseDuration(v.GetString("SYSTEM_STATS_CACHE_TTL"), 15*time.Minute),
		NotificationsTTL: parseDuration(v.GetString("NOTIFICATIONS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Audit = AuditConfig{RetentionDays: v.GetInt("AUDIT_LOG_RETENTION_DAYS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bps_inventory")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("CONN_MAX_AGE", "5m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "bps-inventory")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("SESSION_TIMEOUT_MINUTES", 60)
	v.SetDefault("SESSION_REMEMBER_DAYS", 14)
	v.SetDefault("SESSION_ACTIVITY_THROTTLE", "5m")
	v.SetDefault("SESSION_COOKIE_NAME", "bps_session")
	v.SetDefault("CSRF_COOKIE_NAME", "bps_csrf")
	v.SetDefault("SESSION_COOKIE_DOMAIN", "")
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAX_DEVICES_PER_STAFF", 5)
	v.SetDefault("ASSIGNMENT_NOTIFICATION_DAYS", 7)
	v.SetDefault("WARRANTY_ALERT_DAYS", 30)
	v.SetDefault("STAFF_CLEANUP_INTERVAL", "24h")
	v.SetDefault("STAFF_INACTIVE_GRACE_DAYS", 365)
	v.SetDefault("BULK_CHUNK_SIZE", 25)

	v.SetDefault("QR_CODE_BASE_URL", "http://127.0.0.1:8000")
	v.SetDefault("QR_CODE_MODULE_SIZE", 10)
	v.SetDefault("QR_CODE_BORDER", 4)
	v.SetDefault("QR_LABEL_STORAGE_DIR", "./labels")

	v.SetDefault("MAX_REPORT_RECORDS", 10000)
	v.SetDefault("REPORT_GENERATION_TIMEOUT", "300")
	v.SetDefault("REPORT_CACHE_TIMEOUT", "3600")
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 2)
	v.SetDefault("REPORTS_WORKER_RETRIES", 1)

	v.SetDefault("ENABLE_STATS_CACHE", true)
	v.SetDefault("QUICK_STATS_CACHE_TTL", "5m")
	v.SetDefault("SYSTEM_STATS_CACHE_TTL", "15m")
	v.SetDefault("NOTIFICATIONS_CACHE_TTL", "10m")

	v.SetDefault("AUDIT_LOG_RETENTION_DAYS", 730)
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

// parseSeconds accepts either a bare number of seconds or a Go duration string.
func parseSeconds(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return parseDuration(raw, fallback)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
