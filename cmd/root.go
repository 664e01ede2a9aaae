package cmd

import (
	"fmt"
	"os"

	"planner/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Recurring task planner",
	Long: `Planner stores tasks that repeat on a daily, weekly, monthly or yearly rule,
lets single occurrences be edited or deleted with this/following/all scope,
and keeps calendars in sync through ICS files and Google Calendar.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps reads better on a terminal.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
