package cmd

import (
	"fmt"
	"os"

	"keymaster/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "keymaster",
	Short: "Game server mod key synchronizer",
	Long: `Keymaster keeps a game server's mod signature keys and parameter file
in step with a published mod list. It reads a settings document, resolves the
keys required by the selected server config and reconciles them over FTP or SFTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding with ISO8601 timestamps, the same as an interactive run
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
