package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uvieugono/lesson-platform-clean/internal/store"
)

// eventsCmd prints the recorded analytics events for one session. Useful
// for checking what a session actually did without opening the database.
var eventsCmd = &cobra.Command{
	Use:   "events <session-id>",
	Short: "Print the recorded events for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		events, err := st.Events(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("no events recorded for", args[0])
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %-16s %s\n", e.CreatedAt.Format("15:04:05"), e.Type, e.Payload)
		}
		return nil
	},
}
