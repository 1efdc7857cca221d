// Package main is the entry point for the sprintsync command-line tool,
// which reconciles a YouTrack project's default sprint with its agile board
// on demand or on a cron schedule.
package main

import (
	"os"

	"github.com/phrazzld/sprintsync/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// The failure is already reported by cobra; exit non-zero for
		// scripts and the daemon's supervisor.
		os.Exit(1)
	}
}
