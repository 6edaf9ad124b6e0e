package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/llm"
	"github.com/abhisek/lessonplay/internal/variantgen"
)

var variantsCmd = &cobra.Command{
	Use:   "variants [lesson-id]",
	Short: "Author question variants with an LLM and save them to the catalog",
	Long: `Generates alternative renderings of catalog questions so retries and
review attempts don't repeat the same wording. Every question is brought
up to --per-question variants; existing variants are kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		perQuestion, _ := cmd.Flags().GetInt("per-question")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		var lessonID string
		if len(args) == 1 {
			lessonID = args[0]
		}

		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		if lessonID != "" {
			if _, err := cat.Lesson(lessonID); err != nil {
				return err
			}
		}

		provider, err := llm.NewProvider(cmd.Context(), llm.FromSettings(cfg.LLM), logger)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		gcfg := variantgen.DefaultConfig()
		if perQuestion > 0 {
			gcfg.PerQuestion = perQuestion
		}
		gen := variantgen.New(provider, gcfg, logger)

		rep, err := gen.Author(cmd.Context(), cat, lessonID)
		if err != nil {
			// Keep what was generated before the failure.
			logger.Error("variant authoring stopped", zap.Error(err))
			fmt.Println("Stopped early:", err)
		}

		fmt.Printf("Added %d variants.\n", rep.Added)
		for _, q := range rep.Skipped {
			fmt.Println("  skipped after repeated rejections:", q)
		}
		if dryRun || rep.Added == 0 {
			return nil
		}
		if issues := catalog.Check(cat); len(issues) > 0 {
			for _, is := range issues {
				fmt.Println("  warning:", is)
			}
		}
		if err := catalog.Save(cfg.Catalog.Path, cat); err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
		fmt.Println("Saved", cfg.Catalog.Path)
		return nil
	},
}

func init() {
	variantsCmd.Flags().Int("per-question", 0, "Variants per question (default 2)")
	variantsCmd.Flags().Bool("dry-run", false, "Generate without saving")
}
