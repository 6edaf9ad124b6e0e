package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/auth"
	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/config"
	"github.com/abhisek/lessonplay/internal/gating"
	"github.com/abhisek/lessonplay/internal/lesson"
	"github.com/abhisek/lessonplay/internal/logging"
	"github.com/abhisek/lessonplay/internal/notify"
	"github.com/abhisek/lessonplay/internal/screens/player"
	"github.com/abhisek/lessonplay/internal/store"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

// writeTimeout bounds each batch of progress writes.
const writeTimeout = 5 * time.Second

var rootCmd = &cobra.Command{
	Use:   "lessonplay",
	Short: "Video lessons with timed questions",
	Long:  "lessonplay plays lesson videos in the terminal, pauses for questions at set points and tracks each student's progress.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default ./lessonplay.yaml or $XDG_CONFIG_HOME/lessonplay/lessonplay.yaml)")
	pf.String("db", "", "SQLite path or postgres:// URL (overrides db.dsn)")
	pf.String("catalog", "", "Lesson catalog YAML (overrides catalog.path)")
	pf.String("student", "", "Student id (overrides student.id)")
	pf.String("log-level", "", "Log level (overrides log.level)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(variantsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) error {
	file, _ := cmd.Flags().GetString("config")
	c, err := config.Load(file)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("db"); v != "" {
		c.DB.DSN = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		c.Catalog.Path = v
	}
	if v, _ := cmd.Flags().GetString("student"); v != "" {
		c.Student.ID = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		c.Log.Level = v
	}

	l, err := logging.New(c.Log)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	logger.Debug("config loaded", zap.String("file", c.File), zap.String("command", cmd.Name()))
	return nil
}

// openStore opens db.dsn, falling back to the default sqlite path.
func openStore(ctx context.Context) (*store.Store, error) {
	dsn := cfg.DB.DSN
	if dsn == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dsn = p
	}
	st, err := store.OpenContext(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// loadCatalog reads the catalog and logs authoring issues.
func loadCatalog() (*catalog.Catalog, error) {
	cat, issues, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	for _, is := range issues {
		logger.Warn("catalog issue", zap.String("issue", is.String()))
	}
	return cat, nil
}

// requireStudent returns the configured student or an error naming the
// ways to set one.
func requireStudent() (string, error) {
	if err := auth.Validate(cfg.Student.ID); err != nil {
		return "", fmt.Errorf("%w (set --student, student.id or LESSONPLAY_STUDENT_ID)", lesson.ErrNoStudent)
	}
	return cfg.Student.ID, nil
}

// newNotifier builds the lifecycle notifier: always the log, plus redis
// when configured. A redis that can't be reached is logged and skipped.
func newNotifier(ctx context.Context) (notify.Notifier, func()) {
	ns := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.Notify.RedisAddr == "" {
		return ns, func() {}
	}
	rn, err := notify.NewRedisNotifier(ctx, cfg.Notify.RedisAddr, cfg.Notify.Channel, logger)
	if err != nil {
		logger.Warn("redis notifications disabled", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Notifications disabled:", err)
		return ns, func() {}
	}
	return append(ns, rn), func() { _ = rn.Close() }
}

func policy() gating.Policy {
	return gating.Policy{Tier: cfg.Student.Tier, Overrides: cfg.Student.Overrides}
}

func engineConfig() lesson.Config {
	return lesson.Config{
		DisplayDelay:       cfg.Engine.DisplayDelay,
		CheckpointInterval: cfg.Engine.CheckpointInterval,
		CompletionDelay:    cfg.Engine.CompletionDelay,
		PassMark:           cfg.Engine.PassMark,
	}
}

func playerOptions(repo store.ProgressRepo, n notify.Notifier, q *lesson.Queue) player.Options {
	return player.Options{
		Repo:         repo,
		Notifier:     n,
		Logger:       logger,
		Engine:       engineConfig(),
		TickInterval: cfg.Engine.TickInterval,
		WriteTimeout: writeTimeout,
		Queue:        q,
	}
}
