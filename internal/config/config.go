package config

import (
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port           string
	SecureCookie   bool
	TrustedProxies []string

	// Logging
	LogLevel  string
	LogFormat string

	// Sessions
	SessionTTL  time.Duration
	MaxSessions int

	// Export
	ExportScale         float64
	ExportTimeout       time.Duration
	DownloadTTL         time.Duration
	ExportRatePerMinute int

	// parse problems found while reading the environment
	invalid []string
}

// Load reads the configuration from the environment. Variables from the
// given .env files (".env" when none are named) fill in anything the
// environment does not already set; missing files are ignored.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.Port = getEnv("PORT", "8081")
	cfg.SecureCookie = cfg.getEnvBool("SECURE_COOKIE", false)
	cfg.TrustedProxies = getEnvList("TRUSTED_PROXIES")

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))

	cfg.SessionTTL = cfg.getEnvDuration("SESSION_TTL", 2*time.Hour)
	cfg.MaxSessions = cfg.getEnvInt("MAX_SESSIONS", 1000)

	cfg.ExportScale = cfg.getEnvFloat("EXPORT_SCALE", 2)
	cfg.ExportTimeout = cfg.getEnvDuration("EXPORT_TIMEOUT", 10*time.Second)
	cfg.DownloadTTL = cfg.getEnvDuration("DOWNLOAD_TTL", 2*time.Minute)
	cfg.ExportRatePerMinute = cfg.getEnvInt("EXPORT_RATE_PER_MINUTE", 20)

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.invalid...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR range", cidr))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}

	if c.ExportScale < 1 || c.ExportScale > 4 {
		errors = append(errors, fmt.Sprintf("invalid export scale %g: must be between 1 and 4", c.ExportScale))
	}
	if c.ExportTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export timeout %v: must be at least 1 second", c.ExportTimeout))
	}
	if c.DownloadTTL < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid download TTL %v: must be at least 10 seconds", c.DownloadTTL))
	}
	if c.ExportRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid export rate %d: must be at least 1 per minute", c.ExportRatePerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) getEnvFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.invalid = append(c.invalid, fmt.Sprintf("invalid %s '%s': must be a number", key, value))
		return defaultValue
	}
	return f
}

func (c *Config) getEnvBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("invalid %s '%s': must be true or false", key, value))
		return defaultValue
	}
	return b
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("invalid %s '%s': must be a duration like 30s or 2h", key, value))
		return defaultValue
	}
	return d
}
