package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/media"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Read video durations with ffprobe and fill them into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		write, _ := cmd.Flags().GetBool("write")

		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		base := filepath.Dir(cfg.Catalog.Path)

		changed := 0
		for i := range cat.Lessons {
			l := &cat.Lessons[i]
			if l.Video == "" {
				continue
			}
			path := l.Video
			if !filepath.IsAbs(path) {
				path = filepath.Join(base, path)
			}
			d, err := media.Probe(path)
			if err != nil {
				logger.Warn("probe failed", zap.String("lesson", l.ID), zap.Error(err))
				fmt.Printf("%-20s  error: %v\n", l.ID, err)
				continue
			}
			mark := ""
			if d != l.DurationSeconds {
				mark = fmt.Sprintf("  (catalog says %ds)", l.DurationSeconds)
				l.DurationSeconds = d
				changed++
			}
			fmt.Printf("%-20s  %ds%s\n", l.ID, d, mark)
		}

		if changed == 0 || !write {
			if changed > 0 {
				fmt.Printf("\n%d durations differ; rerun with --write to update the catalog.\n", changed)
			}
			return nil
		}
		if err := catalog.Save(cfg.Catalog.Path, cat); err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
		fmt.Printf("\nUpdated %d durations in %s.\n", changed, cfg.Catalog.Path)
		return nil
	},
}

func init() {
	probeCmd.Flags().Bool("write", false, "Write probed durations back to the catalog")
}
