package cmd

import (
	"fmt"

	"keymaster/feature/settings"

	"github.com/spf13/cobra"
)

// Version is the build version. It is compared against the latestVersion
// element of the settings document before any run.
var Version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the keymaster version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}

func buildVersion() (settings.Version, error) {
	v, err := settings.ParseVersion(Version)
	if err != nil {
		return settings.Version{}, fmt.Errorf("invalid build version %q: %w", Version, err)
	}
	return v, nil
}
