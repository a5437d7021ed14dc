package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configsURL string

// configsCmd lists the server configs of a settings document.
var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "List the server configs defined by the settings document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		url := env.cfg.Run.SettingsURL
		if cmd.Flags().Changed("settings-url") {
			url = configsURL
		}

		s, err := env.loadSettings(cmd.Context(), url)
		if err != nil {
			return err
		}
		for _, name := range s.ConfigNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(configsCmd)
	configsCmd.Flags().StringVar(&configsURL, "settings-url", "", "URL of the settings document (overrides RUN_SETTINGS_URL)")
}
