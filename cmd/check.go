package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplay/internal/catalog"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the lesson catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, issues, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		questions := 0
		for _, l := range cat.Lessons {
			questions += len(l.Questions)
		}
		fmt.Printf("%s: %d lessons, %d questions\n", cfg.Catalog.Path, len(cat.Lessons), questions)
		for _, is := range issues {
			fmt.Println("  warning:", is)
		}
		if len(issues) == 0 {
			fmt.Println("No issues found.")
		}
		return nil
	},
}
