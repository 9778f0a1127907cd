package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"asset-exporter/core/logger"
)

// exitCode is set by commands whose outcome is not a plain error, such as an
// export that was cancelled.
var exitCode int

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "asset-exporter",
	Short: "Game asset exporter",
	Long: `Asset Exporter extracts items, recipes and stat tables from a game asset
store and writes consolidated JSON artifacts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding at debug level gives ISO8601 timestamps.
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
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
