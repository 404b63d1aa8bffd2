// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/uvieugono/lesson-platform-clean/internal/lessonapi"
)

// Config holds the application-level settings for one session run.
type Config struct {
	// API is the backend client configuration.
	API lessonapi.Config

	// StudentID identifies the student for all backend calls.
	StudentID string

	// NotesDir is where exported lesson notes are written.
	NotesDir string

	// ExamDuration is the exam countdown length.
	ExamDuration time.Duration

	// TutorQuota is the number of tutor messages a student may send per
	// session.
	TutorQuota int
}

// Load reads configuration from a .env file (if present) and the
// environment, applying defaults for unset values.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		API:          lessonapi.ConfigFromEnv(),
		StudentID:    getenvDefault("LESSON_STUDENT_ID", "demo-student"),
		NotesDir:     getenvDefault("LESSON_NOTES_DIR", "."),
		ExamDuration: getDurationDefault("LESSON_EXAM_DURATION", 60*time.Second),
		TutorQuota:   getIntDefault("LESSON_TUTOR_QUOTA", 10),
	}
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getDurationDefault(k string, fallback time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getIntDefault(k string, fallback int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
