package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uvieugono/lesson-platform-clean/internal/app"
	"github.com/uvieugono/lesson-platform-clean/internal/config"
	"github.com/uvieugono/lesson-platform-clean/internal/lessonapi"
	sess "github.com/uvieugono/lesson-platform-clean/internal/session"
	"github.com/uvieugono/lesson-platform-clean/internal/store"
)

// defaultLessons is the starter catalogue offered on the home screen.
// Any other lesson path can be typed in directly.
var defaultLessons = []string{
	"maths/2d-shapes-intro",
	"maths/fractions-basics",
	"maths/multiplication-tables",
}

// runApp loads config, wires the client stack and launches the TUI.
func runApp(cmd *cobra.Command) error {
	cfg := config.Load()
	if s, _ := cmd.Flags().GetString("student"); s != "" {
		cfg.StudentID = s
	}
	if err := cfg.API.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	log := newLogger()
	defer log.Sync()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// Transport stack: HTTP with per-call timeout, one bounded retry for
	// transient failures, then request/response logging.
	transport := lessonapi.WithLogging(
		lessonapi.WithRetry(lessonapi.NewHTTPTransport(cfg.API), cfg.API.RetryBackoff),
		log,
	)
	svc := lessonapi.NewService(transport, cfg.API)

	ctrl := sess.New(sess.Options{
		Service:      svc,
		Events:       st,
		Logger:       log,
		StudentID:    cfg.StudentID,
		NotesDir:     cfg.NotesDir,
		ExamDuration: cfg.ExamDuration,
		TutorQuota:   cfg.TutorQuota,
	})

	return app.Run(app.Options{
		Controller: ctrl,
		StudentID:  cfg.StudentID,
		Lessons:    defaultLessons,
	})
}

// newLogger builds a file logger when LESSON_DEBUG is set. The TUI owns
// the terminal, so logs never go to stdout.
func newLogger() *zap.Logger {
	if os.Getenv("LESSON_DEBUG") == "" {
		return zap.NewNop()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"lesson-debug.log"}
	log, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
