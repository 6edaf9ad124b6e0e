package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplay/internal/lesson"
	"github.com/abhisek/lessonplay/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results <lesson-id>",
	Short: "Show the student's results for a lesson",
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
		defer st.Close()

		rep, err := lesson.LoadReport(cmd.Context(), st.ProgressRepo(), student, l)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Printf("%s has not started %q yet.\n", student, l.Title)
			return nil
		}
		if err != nil {
			return err
		}

		r := rep.Results
		state := "in progress"
		if rep.Session.Completed {
			state = "completed"
		}
		fmt.Printf("%s · %s · attempt %d (%s)\n", l.Title, student, rep.Session.Attempt, state)
		fmt.Printf("Score: %d%% (%d/%d correct, pass mark %d%%)\n\n",
			r.Percentage, r.Correct, r.Total, cfg.Engine.PassMark)

		fmt.Printf("%-3s  %-16s  %-8s  %s\n", "", "Question", "Variant", "Answer")
		fmt.Println(strings.Repeat("─", 60))
		for _, it := range r.Items {
			mark, answer := "-", "not answered"
			if it.Answered {
				mark = "✓"
				if !it.Correct {
					mark = "✗"
				}
				answer = fmt.Sprintf("option %d", it.SelectedOption+1)
			}
			fmt.Printf("%-3s  %-16s  %-8d  %s\n", mark, truncate(it.Question.ID, 16), it.Variant.ID, answer)
		}
		return nil
	},
}
