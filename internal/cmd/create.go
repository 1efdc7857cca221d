package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phrazzld/sprintsync/internal/config"
	"github.com/phrazzld/sprintsync/internal/platform/logger"
	"github.com/phrazzld/sprintsync/internal/platform/youtrack"
	"github.com/phrazzld/sprintsync/internal/service"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a sprint for a week without touching project defaults",
	Long: `Create the target week's sprint on the board. A sprint that already
exists is not an error: the command reports it and exits successfully.`,
	PreRunE: bindCreateFlags,
	RunE:    runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().String("board", "", "agile board name (or env YOUTRACK_BOARD)")
	createCmd.Flags().String("week", "", "ISO week in YYYY.WW format (default: current week)")
}

// bindCreateFlags binds this command's flags into viper at run time; the
// keys are shared with sync, see bindSyncFlags.
func bindCreateFlags(cmd *cobra.Command, _ []string) error {
	for key, flag := range map[string]string{
		"sync.board": "board",
		"sync.week":  "week",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func runCreate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel)

	client := youtrack.NewClient(cfg.YouTrack.BaseURL, cfg.YouTrack.Token)
	svc, err := service.NewSyncService(client, log)
	if err != nil {
		return err
	}

	// Both terminal outcomes exit zero; only failures are errors.
	_, err = svc.CreateSprintForWeek(cmd.Context(), cfg.Sync.Board, cfg.Sync.Week)
	return err
}
