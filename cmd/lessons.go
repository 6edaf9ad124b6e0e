package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplay/internal/gating"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List lessons with the student's lock state and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		student, err := requireStudent()
		if err != nil {
			return err
		}
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ProgressRepo().ListSessions(cmd.Context(), student)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		fmt.Printf("%-20s  %-32s  %-9s  %-8s  %s\n", "ID", "Title", "Questions", "Attempt", "Status")
		fmt.Println(strings.Repeat("─", 92))
		for _, e := range gating.Evaluate(cat, sessions, policy()) {
			attempt := "-"
			status := e.Reason.String()
			if s := e.Session; s != nil {
				attempt = fmt.Sprint(s.Attempt)
				switch {
				case s.Completed && s.Passed:
					status = "passed"
				case s.Completed:
					status = "completed"
				default:
					status = fmt.Sprintf("in progress at %ds", s.VideoPositionSeconds)
				}
			}
			fmt.Printf("%-20s  %-32s  %-9d  %-8s  %s\n",
				truncate(e.Lesson.ID, 20), truncate(e.Lesson.Title, 32), len(e.Lesson.Questions), attempt, status)
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
