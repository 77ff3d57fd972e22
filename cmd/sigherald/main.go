package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sigherald/internal/config"
	"sigherald/internal/dedup"
	"sigherald/internal/drive"
	"sigherald/internal/ics"
	"sigherald/internal/job"
	appLog "sigherald/internal/log"
	"sigherald/internal/notify"
	"sigherald/internal/props"
	"sigherald/internal/sched"
	"sigherald/internal/web"
	"sigherald/internal/webhook"
)

var (
	flagConfigPath string
	flagDebug      bool
	flagVerbose    bool
)

// env bundles the shared collaborators a command needs.
type env struct {
	cfg        *config.Config
	store      *props.SQLiteStore
	dedup      *dedup.Store
	dispatcher *notify.Dispatcher
	board      *job.StatusBoard
}

func main() {
	root := &cobra.Command{
		Use:           "sigherald",
		Short:         "Files SIG meeting artifacts and announces meeting starts to chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "/etc/sigherald/config.yaml", "Path to config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Reroute all notifications to the error webhook")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	root.AddCommand(newRunCmd(), newCalendarCmd(), newMoverCmd())

	if err := root.Execute(); err != nil {
		appLog.Error("sigherald failed", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run both polling jobs on their cron schedules, with the status server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			defer e.store.Close()
			return runDaemon(cmd.Context(), e)
		},
	}
}

func newCalendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Run a single calendar-watcher tick and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			defer e.store.Close()
			watcher := job.NewCalendar(e.cfg, ics.NewClient(e.cfg), e.dedup, e.dispatcher, e.board)
			return watcher.Run(cmd.Context())
		},
	}
}

func newMoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mover",
		Short: "Run a single file-mover tick and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			defer e.store.Close()
			dr, err := drive.NewLocalDrive(e.cfg.DriveRoot)
			if err != nil {
				return err
			}
			// No video-hosting binding is wired in; upload-enabled groups
			// move without the upload step.
			mover := job.NewMover(e.cfg, dr, nil, e.dispatcher, e.board)
			return mover.Run(cmd.Context())
		},
	}
}

func buildEnv() (*env, error) {
	if flagVerbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flagConfigPath)
		return nil, err
	}
	if flagDebug {
		cfg.Debug = true
	}

	store, err := props.OpenSQLite(cfg.StorePath, cfg.StoreQuota)
	if err != nil {
		appLog.Error("failed to open property store", err, "path", cfg.StorePath)
		return nil, err
	}

	dispatcher := notify.NewDispatcher(webhook.NewClient(), cfg.ErrorWebhook, cfg.Debug)

	return &env{
		cfg:        cfg,
		store:      store,
		dedup:      dedup.NewStore(store, cfg.StoreQuota),
		dispatcher: dispatcher,
		board:      job.NewStatusBoard(),
	}, nil
}

func runDaemon(parent context.Context, e *env) error {
	appLog.Info("sigherald starting",
		"config", flagConfigPath,
		"debug", e.cfg.Debug,
		"sig_count", len(e.cfg.SIGs),
		"calendar_count", len(e.cfg.Calendars),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	dr, err := drive.NewLocalDrive(e.cfg.DriveRoot)
	if err != nil {
		return err
	}

	watcher := job.NewCalendar(e.cfg, ics.NewClient(e.cfg), e.dedup, e.dispatcher, e.board)
	mover := job.NewMover(e.cfg, dr, nil, e.dispatcher, e.board)

	scheduler := sched.New(e.cfg.Location())
	if err := scheduler.Register("calendar", e.cfg.CalendarCron, func() {
		if err := watcher.Run(ctx); err != nil {
			appLog.Error("calendar tick failed", err)
		}
	}); err != nil {
		return err
	}
	if err := scheduler.Register("mover", e.cfg.MoverCron, func() {
		if err := mover.Run(ctx); err != nil {
			appLog.Error("mover tick failed", err)
		}
	}); err != nil {
		return err
	}
	if err := scheduler.Register("maintenance", e.cfg.MaintenanceCron, func() {
		res, err := e.dedup.Maintain(ctx, time.Now())
		if err != nil {
			appLog.Error("daily maintenance failed", err)
			return
		}
		appLog.Info("daily maintenance", "deleted", res.Deleted, "remaining", res.Remaining)
	}); err != nil {
		return err
	}

	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	return web.StartServer(ctx, e.cfg, e.board, e.dedup)
}
