package lessonapi

import (
	"fmt"
	"os"
	"time"
)

// Config holds the backend client configuration.
type Config struct {
	// BaseURL is the lesson service base URL. Required.
	BaseURL string

	// Timeout bounds each individual HTTP attempt. Default: 15s.
	Timeout time.Duration

	// RetryBackoff is the fixed delay before the single retry. Default: 1s.
	RetryBackoff time.Duration

	// TutorEnabled reports whether the AI tutor capability is available on
	// this deployment. Callers check Service.TutorAvailable instead of
	// probing for the operation at runtime.
	TutorEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		RetryBackoff: 1 * time.Second,
		TutorEnabled: true,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("LESSON_API_BASE_URL"); u != "" {
		cfg.BaseURL = u
	}
	if t := os.Getenv("LESSON_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}
	if b := os.Getenv("LESSON_API_RETRY_BACKOFF"); b != "" {
		if d, err := time.ParseDuration(b); err == nil {
			cfg.RetryBackoff = d
		}
	}
	if v := os.Getenv("LESSON_TUTOR_ENABLED"); v == "false" || v == "0" {
		cfg.TutorEnabled = false
	}

	return cfg
}

// Validate checks that required fields are set.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("LESSON_API_BASE_URL is required")
	}
	return nil
}
