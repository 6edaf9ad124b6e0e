package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/gating"
)

var playCmd = &cobra.Command{
	Use:   "play <lesson-id>",
	Short: "Open a lesson directly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		student, err := requireStudent()
		if err != nil {
			return err
		}
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		l, err := cat.Lesson(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		sessions, err := st.ProgressRepo().ListSessions(cmd.Context(), student)
		st.Close()
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if !gating.Unlocked(cat, sessions, policy(), l.ID) {
			return fmt.Errorf("lesson %q is locked for %s: pass the previous lesson first", l.ID, student)
		}

		return runApp(cmd, &catalog.Lesson{ID: l.ID})
	},
}
