package cmd

import (
	"github.com/spf13/cobra"

	"github.com/uvieugono/lesson-platform-clean/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Interactive lesson sessions in the terminal",
	Long:  "Lessons — terminal client for interactive lesson sessions with quizzes, exams and an AI tutor.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LESSON_DB env var)")
	rootCmd.PersistentFlags().String("student", "", "Student ID (overrides LESSON_STUDENT_ID env var)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(eventsCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then LESSON_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
