package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPath is where Load looks for the JSON config file.
const DefaultPath = "config/config.json"

// AppConfig holds environment driven configuration values.
// Secrets never have defaults inside code and must be provided via the config file or the environment.
type AppConfig struct {
	AppPort     string
	TLSCertFile string
	TLSKeyFile  string
	// Session cookie
	SessionSecret       string
	SessionCookieName   string
	SessionCookieDomain string
	SessionTTLHours     int
	// Provisioning
	AdminSecret             string
	AdminRateLimitPerMinute int
	AllowedOrigins          []string
	// Calendar day boundary for streaks and daily content, e.g. "Europe/Berlin"
	Timezone string
	// YAML catalog of photos, messages, minigames and special days
	ContentPath   string
	DefaultLocale string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for state cache and session revocation
	RedisHost            string
	RedisPort            int
	RedisDB              int
	RedisPassword        string
	StateCacheTTLSeconds int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// Location resolves Timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SessionTTL is the lifetime of the visitor session cookie.
func (c AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Load reads configuration with precedence: JSON file -> defaults -> environment variables.
// A missing file is not an error; invalid JSON is.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	if path == "" {
		path = DefaultPath
	}
	if err := loadJSONConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that have no safe default.
func (c AppConfig) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must be set")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
		}
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// loadJSONConfig reads a JSON file into cfg if present. Both flat keys and the
// grouped sections "app", "session", "database", "redis" and "log" are accepted.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	sections := []map[string]any{raw}
	for _, name := range []string{"app", "session", "database", "redis", "log", "gin"} {
		if m, ok := raw[name].(map[string]any); ok {
			sections = append(sections, m)
		}
	}

	for _, m := range sections {
		setString(m, "AppPort", &out.AppPort)
		setString(m, "TLSCertFile", &out.TLSCertFile)
		setString(m, "TLSKeyFile", &out.TLSKeyFile)
		setString(m, "SessionSecret", &out.SessionSecret)
		setString(m, "SessionCookieName", &out.SessionCookieName)
		setString(m, "SessionCookieDomain", &out.SessionCookieDomain)
		setInt(m, "SessionTTLHours", &out.SessionTTLHours)
		setString(m, "AdminSecret", &out.AdminSecret)
		setInt(m, "AdminRateLimitPerMinute", &out.AdminRateLimitPerMinute)
		setStringSlice(m, "AllowedOrigins", &out.AllowedOrigins)
		setString(m, "Timezone", &out.Timezone)
		setString(m, "ContentPath", &out.ContentPath)
		setString(m, "DefaultLocale", &out.DefaultLocale)

		setString(m, "DBDriver", &out.DBDriver)
		setString(m, "DatabaseURI", &out.DatabaseURI)
		setString(m, "DBHost", &out.DBHost)
		setString(m, "DBPort", &out.DBPort)
		setString(m, "DBUser", &out.DBUser)
		setString(m, "DBPassword", &out.DBPassword)
		setString(m, "DBName", &out.DBName)

		setString(m, "RedisHost", &out.RedisHost)
		setInt(m, "RedisPort", &out.RedisPort)
		setInt(m, "RedisDB", &out.RedisDB)
		setString(m, "RedisPassword", &out.RedisPassword)
		setInt(m, "StateCacheTTLSeconds", &out.StateCacheTTLSeconds)

		setString(m, "GinMode", &out.GinMode)
		setString(m, "GinPath", &out.GinPath)

		setString(m, "LogLevel", &out.LogLevel)
		setString(m, "LogPath", &out.LogPath)
		setInt(m, "LogMaxSizeMB", &out.LogMaxSizeMB)
		setInt(m, "LogMaxBackups", &out.LogMaxBackups)
		setInt(m, "LogMaxAgeDays", &out.LogMaxAgeDays)
		setBool(m, "LogCompress", &out.LogCompress)
	}
	return nil
}

func setString(m map[string]any, key string, dst *string) {
	if v, ok := m[key].(string); ok && v != "" {
		*dst = v
	}
}

func setInt(m map[string]any, key string, dst *int) {
	if v, ok := m[key].(float64); ok && v != 0 {
		*dst = int(v)
	}
}

func setBool(m map[string]any, key string, dst *bool) {
	if v, ok := m[key].(bool); ok {
		*dst = v
	}
}

func setStringSlice(m map[string]any, key string, dst *[]string) {
	arr, ok := m[key].([]any)
	if !ok {
		return
	}
	res := make([]string, 0, len(arr))
	for _, it := range arr {
		if s, ok := it.(string); ok {
			res = append(res, s)
		}
	}
	if len(res) > 0 {
		*dst = res
	}
}

// applyDefaults fills zero values.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = "keepsake_session"
	}
	if c.SessionTTLHours == 0 {
		c.SessionTTLHours = 24 * 365
	}
	if c.AdminRateLimitPerMinute == 0 {
		c.AdminRateLimitPerMinute = 10
	}
	if c.ContentPath == "" {
		c.ContentPath = "config/content.yaml"
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = "en"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBName == "" {
		c.DBName = "keepsake"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.StateCacheTTLSeconds == 0 {
		c.StateCacheTTLSeconds = 600
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	strs := map[string]*string{
		"APP_PORT":              &c.AppPort,
		"TLS_CERT_FILE":         &c.TLSCertFile,
		"TLS_KEY_FILE":          &c.TLSKeyFile,
		"SESSION_SECRET":        &c.SessionSecret,
		"SESSION_COOKIE_NAME":   &c.SessionCookieName,
		"SESSION_COOKIE_DOMAIN": &c.SessionCookieDomain,
		"ADMIN_SECRET":          &c.AdminSecret,
		"TIMEZONE":              &c.Timezone,
		"CONTENT_PATH":          &c.ContentPath,
		"DEFAULT_LOCALE":        &c.DefaultLocale,
		"DB_DRIVER":             &c.DBDriver,
		"DATABASE_URI":          &c.DatabaseURI,
		"DB_HOST":               &c.DBHost,
		"DB_PORT":               &c.DBPort,
		"DB_USER":               &c.DBUser,
		"DB_PASSWORD":           &c.DBPassword,
		"DB_NAME":               &c.DBName,
		"REDIS_HOST":            &c.RedisHost,
		"REDIS_PASSWORD":        &c.RedisPassword,
		"GIN_MODE":              &c.GinMode,
		"GIN_PATH":              &c.GinPath,
		"LOG_LEVEL":             &c.LogLevel,
		"LOG_PATH":              &c.LogPath,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SESSION_TTL_HOURS":           &c.SessionTTLHours,
		"ADMIN_RATE_LIMIT_PER_MINUTE": &c.AdminRateLimitPerMinute,
		"REDIS_PORT":                  &c.RedisPort,
		"REDIS_DB":                    &c.RedisDB,
		"STATE_CACHE_TTL_SECONDS":     &c.StateCacheTTLSeconds,
		"LOG_MAX_SIZE_MB":             &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":             &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":            &c.LogMaxAgeDays,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value for %s: %w", key, err)
			}
			*dst = i
		}
	}

	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "true"
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	return nil
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
