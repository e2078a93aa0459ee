package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"deadline_bot/internal/app"
	"deadline_bot/internal/domain/progress"
	"deadline_bot/internal/infra/chart"
	"deadline_bot/internal/infra/config"
	"deadline_bot/internal/infra/csvstore"
	idb "deadline_bot/internal/infra/database"
	"deadline_bot/internal/infra/logger"
	"deadline_bot/internal/infra/scheduler"
	"deadline_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags config.Flags

	root := &cobra.Command{
		Use:           "deadline-bot",
		Short:         "Post a daily writing-progress report to a Telegram chat",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(flags)
		},
	}
	root.Flags().StringVar(&flags.BotToken, "bot-token", "", "Telegram bot token")
	root.Flags().StringVar(&flags.ChatID, "chat-id", "", "chat ID or @channel to report to")
	root.Flags().StringVar(&flags.DeadlineStr, "deadline-str", "", "deadline date (YYYY-MM-DD)")
	root.Flags().IntVar(&flags.GoalPages, "goal-pages", 0, "page count to reach by the deadline")
	for _, name := range []string{"bot-token", "chat-id", "deadline-str", "goal-pages"} {
		_ = root.MarkFlagRequired(name)
	}
	return root
}

func run(flags config.Flags) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("could not load application configuration: %w", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"store":       cfg.StoreKind,
		"deadline":    cfg.Deadline.Format("2006-01-02"),
		"goal_pages":  cfg.GoalPages,
	}).Info("Configuration loaded")

	progressRepo, closeStore, err := newProgressRepository(cfg)
	if err != nil {
		return fmt.Errorf("could not initialize progress store: %w", err)
	}
	defer closeStore()
	mainLogger.Info("Progress repository initialized.")

	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramAPIURL, cfg.TelegramTimeout)
	if err != nil {
		return err
	}
	telegramClient := telegram.NewTelebotAdapter(bot, cfg.ChatID)

	goal := progress.Goal{Deadline: cfg.Deadline, Pages: cfg.GoalPages}
	reportService := app.NewReportServiceImpl(
		progressRepo,
		chart.NewRenderer(cfg.ChartDir),
		telegramClient,
		goal,
		logger.Component("report"),
	)
	mainLogger.Info("Report service initialized.")

	schedule, err := scheduler.ParseNextDaySchedule(cfg.CronSpecDaily)
	if err != nil {
		return err
	}
	reportScheduler := scheduler.NewReportScheduler(
		reportService,
		schedule,
		logger.Component("scheduler"),
		scheduler.WithCycleTimeout(cfg.CycleTimeout),
	)

	// Subscribe before the first cycle so a signal during it is not lost.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	reportScheduler.Start()
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	reportScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
	return nil
}

// newProgressRepository selects the progress backend. The returned func releases its resources.
func newProgressRepository(cfg *config.AppConfig) (progress.Repository, func(), error) {
	noop := func() {}

	var db *sql.DB
	var err error
	var opts []idb.Option
	switch cfg.StoreKind {
	case config.StoreCSV:
		return csvstore.NewCSVProgressRepository(cfg.ProgressFile), noop, nil
	case config.StorePostgres:
		db, err = idb.NewPostgresConnection(cfg.DatabaseURL)
		if cfg.ProgressOrder != "" {
			opts = append(opts, idb.WithTiebreak(cfg.ProgressOrder))
		}
	case config.StoreSQLite:
		db, err = idb.NewSQLiteConnection(cfg.SQLitePath)
		opts = append(opts, idb.WithTiebreak(firstNonEmpty(cfg.ProgressOrder, idb.SQLiteRowOrder)))
	default:
		return nil, noop, fmt.Errorf("unknown progress store %q", cfg.StoreKind)
	}
	if err != nil {
		return nil, noop, err
	}

	repo, err := idb.NewSQLProgressRepository(db, cfg.ProgressTable, opts...)
	if err != nil {
		db.Close()
		return nil, noop, err
	}
	return repo, func() { db.Close() }, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
