package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phrazzld/sprintsync/internal/config"
	"github.com/phrazzld/sprintsync/internal/daemon"
	"github.com/phrazzld/sprintsync/internal/platform/logger"
	"github.com/phrazzld/sprintsync/internal/platform/youtrack"
	"github.com/phrazzld/sprintsync/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the project's default sprint with the board",
	Long: `Ensure the target week's sprint exists on the board, point the project
field's default value at it, and optionally pre-create future sprints.
With --daemon the sync runs on a cron schedule with Prometheus metrics.`,
	PreRunE: bindSyncFlags,
	RunE:    runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().String("board", "", "agile board name (or env YOUTRACK_BOARD)")
	syncCmd.Flags().String("project", "", "project name (or env YOUTRACK_PROJECT)")
	syncCmd.Flags().String("field", "", "sprint field name (default: Sprints)")
	syncCmd.Flags().String("week", "", "ISO week in YYYY.WW format (default: current week)")
	syncCmd.Flags().Int("forward", 0, "future sprints to ensure exist (or env YTSPRINT_FORWARD)")
	syncCmd.Flags().Bool("daemon", false, "run on a cron schedule instead of once")
	syncCmd.Flags().String("cron", "", "crontab expression, UTC (default: '0 8 * * 1', or env YTSPRINT_CRON)")
	syncCmd.Flags().String("metrics-addr", "", "metrics bind address (default: 0.0.0.0)")
	syncCmd.Flags().Int("metrics-port", 0, "metrics port (default: 9108)")
}

// bindSyncFlags binds this command's flags into viper. Binding happens at
// run time, not init, because create shares keys like sync.board and only
// the executing command's flags may back them.
func bindSyncFlags(cmd *cobra.Command, _ []string) error {
	bindings := map[string]string{
		"sync.board":          "board",
		"sync.project":        "project",
		"sync.field":          "field",
		"sync.week":           "week",
		"sync.forward":        "forward",
		"daemon.cron":         "cron",
		"daemon.metrics_addr": "metrics-addr",
		"daemon.metrics_port": "metrics-port",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel)

	if cfg.Sync.Project == "" {
		return errors.New("specify the project via --project or environment variable YOUTRACK_PROJECT")
	}

	client := youtrack.NewClient(cfg.YouTrack.BaseURL, cfg.YouTrack.Token)
	svc, err := service.NewSyncService(client, log)
	if err != nil {
		return err
	}

	params := service.SyncParams{
		Board:    cfg.Sync.Board,
		Project:  cfg.Sync.Project,
		Field:    cfg.Sync.Field,
		WeekSpec: cfg.Sync.Week,
		Forward:  cfg.Sync.Forward,
	}

	daemonMode, err := cmd.Flags().GetBool("daemon")
	if err != nil {
		return err
	}
	if !daemonMode {
		return svc.RunSyncOnce(cmd.Context(), params)
	}

	runner, err := daemon.NewRunner(
		cfg.Daemon.Cron, cfg.Daemon.MetricsAddr, cfg.Daemon.MetricsPort, log,
	)
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runner.Start(ctx, func(ctx context.Context) error {
		return svc.RunSyncOnce(ctx, params)
	})
}
