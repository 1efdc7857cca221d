// Package cmd defines the sprintsync command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phrazzld/sprintsync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "sprintsync",
	Short: "YouTrack sprint automation",
	Long: `Sprintsync reconciles scheduling state between a YouTrack agile board
and a project's sprint field: it ensures a sprint exists for a target ISO
week, points the field's default value at exactly that sprint, and can
pre-create sprints for future weeks.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		config.SetDefaults(viper.GetViper())
	})

	// Connection settings shared by every subcommand. Environment variables
	// (YOUTRACK_URL, YOUTRACK_TOKEN, YTSPRINT_LOG_LEVEL) provide defaults;
	// explicit flags win.
	rootCmd.PersistentFlags().String("url", "", "YouTrack base URL (or env YOUTRACK_URL)")
	rootCmd.PersistentFlags().String("token", "", "YouTrack bearer token (or env YOUTRACK_TOKEN)")
	rootCmd.PersistentFlags().
		String("log-level", "", "log level: debug, info, warn, error (or env YTSPRINT_LOG_LEVEL)")

	_ = viper.BindPFlag("youtrack.url", rootCmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("youtrack.token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}
