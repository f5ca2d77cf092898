package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type Config struct {
	// HTTP Server
	Port string

	// Finance backend
	APIBaseURL string
	APITimeout time.Duration
	OwnerID    string

	// Display
	Locale              string
	Currency            string
	ErrorDisplay        time.Duration
	UploadStatusDisplay time.Duration
	CarouselInterval    time.Duration
	CarouselAutoplay    bool

	// Sessions and rate limiting
	SessionTTL         time.Duration
	SessionMax         int
	RateLimitPerMinute int

	// Logging
	LogLevel   string
	TUILogFile string

	// Export
	ExportSink            string
	ExportDir             string
	ExportGCSBucket       string
	ExportGCSPrefix       string
	GoogleCredentialsFile string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:5000/api"),
		APITimeout: getEnvDuration("API_TIMEOUT", 10*time.Second),
		OwnerID:    getEnv("OWNER_ID", "1"),

		Locale:              getEnv("LOCALE", "ko-KR"),
		Currency:            getEnv("CURRENCY", "KRW"),
		ErrorDisplay:        getEnvDuration("ERROR_DISPLAY", 5*time.Second),
		UploadStatusDisplay: getEnvDuration("UPLOAD_STATUS_DISPLAY", 3*time.Second),
		CarouselInterval:    getEnvDuration("CAROUSEL_INTERVAL", 5*time.Second),
		CarouselAutoplay:    getEnvBool("CAROUSEL_AUTOPLAY", true),

		SessionTTL:         getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMax:         getEnvInt("SESSION_MAX", 500),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		TUILogFile: getEnv("TUI_LOG_FILE", ""),

		ExportSink:            getEnv("EXPORT_SINK", "file"),
		ExportDir:             getEnv("EXPORT_DIR", "./exports"),
		ExportGCSBucket:       getEnv("EXPORT_GCS_BUCKET", ""),
		ExportGCSPrefix:       getEnv("EXPORT_GCS_PREFIX", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate backend URL
	if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.APITimeout < time.Second || c.APITimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 1s and 5m", c.APITimeout))
	}

	if strings.TrimSpace(c.OwnerID) == "" {
		errors = append(errors, "owner ID cannot be empty")
	}

	// Validate display settings
	if _, err := language.Parse(c.Locale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid locale '%s': %v", c.Locale, err))
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be an ISO 4217 code", c.Currency))
	}
	if c.ErrorDisplay < time.Second {
		errors = append(errors, fmt.Sprintf("invalid error display %v: must be at least 1 second", c.ErrorDisplay))
	}
	if c.UploadStatusDisplay < time.Second {
		errors = append(errors, fmt.Sprintf("invalid upload status display %v: must be at least 1 second", c.UploadStatusDisplay))
	}
	if c.CarouselInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid carousel interval %v: must be at least 1 second", c.CarouselInterval))
	}

	// Validate sessions
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	// Validate export sink
	switch c.ExportSink {
	case "file":
		if c.ExportDir == "" {
			errors = append(errors, "export directory cannot be empty when using file sink")
		}
	case "gcs":
		if c.ExportGCSBucket == "" {
			errors = append(errors, "EXPORT_GCS_BUCKET is required when using gcs sink")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid export sink '%s': must be one of [file gcs]", c.ExportSink))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
