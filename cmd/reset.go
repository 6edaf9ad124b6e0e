package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplay/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset <lesson-id>",
	Short: "Delete the student's progress in a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		student, err := requireStudent()
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("this deletes %s's session and answers for %q; rerun with --yes", student, args[0])
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		repo := st.ProgressRepo()
		if _, err := repo.FindSession(cmd.Context(), student, args[0]); errors.Is(err, store.ErrNotFound) {
			fmt.Println("Nothing to reset.")
			return nil
		}
		if err := repo.DeleteSession(cmd.Context(), student, args[0]); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Printf("Reset %s for %s.\n", args[0], student)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
