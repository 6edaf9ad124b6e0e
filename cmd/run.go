package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonplay/internal/app"
	"github.com/abhisek/lessonplay/internal/auth"
	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/lesson"
)

// runApp opens the store, builds dependencies, and launches the TUI.
// When start is set the lesson opens directly.
func runApp(cmd *cobra.Command, start *catalog.Lesson) error {
	ctx := cmd.Context()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	if start != nil {
		if start, err = cat.Lesson(start.ID); err != nil {
			return err
		}
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	n, closeNotifier := newNotifier(ctx)
	defer closeNotifier()

	// One queue for the whole run; closing it drains progress writes
	// before the store closes.
	writes := lesson.NewQueue(logger.Named("writes"), writeTimeout)
	defer writes.Close()

	session := auth.NewSession(cfg.Student.ID)
	if cfg.Student.ID != "" && session.StudentID() == "" {
		return fmt.Errorf("student id %q: %w", cfg.Student.ID, auth.ErrInvalidID)
	}

	return app.Run(app.Options{
		Catalog:     cat,
		Repo:        st.ProgressRepo(),
		Auth:        session,
		Policy:      policy(),
		Player:      playerOptions(st.ProgressRepo(), n, writes),
		Logger:      logger,
		StartLesson: start,
	})
}
