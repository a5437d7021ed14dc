package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"keymaster/feature/pipeline"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"go.uber.org/zap"
)

var (
	settingsURL string
	configName  string
	dryRun      bool
	verbose     bool
	yesConfirm  bool
	stagingDir  string
)

// syncCmd runs one sync of a server config.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize server keys and parameter file",
	Long: `Downloads the mod list and parameter file of a server config, resolves the
keys the mods need and reconciles the server's key directory, extra files and
parameter file over FTP or SFTP.

Use --dry-run to see every delete and upload without touching the server.`,
	Example: `  keymaster sync --settings-url https://example.com/server.xml --config Main --dry-run
  keymaster sync --config Main --verbose --yes`,
	RunE: runSync,
}

func init() {
	RootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&settingsURL, "settings-url", "", "URL of the settings document (overrides RUN_SETTINGS_URL)")
	syncCmd.Flags().StringVarP(&configName, "config", "c", "", "Name of the server config to deploy (overrides RUN_CONFIG)")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report remote changes without executing them")
	syncCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include debug lines in the transcript")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Skip the confirmation prompt")
	syncCmd.Flags().StringVar(&stagingDir, "staging-dir", "", "Local scratch directory (overrides RUN_STAGING_DIR)")
}

func runSync(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	run := &env.cfg.Run
	flags := cmd.Flags()
	if flags.Changed("settings-url") {
		run.SettingsURL = settingsURL
	}
	if flags.Changed("config") {
		run.Config = configName
	}
	if flags.Changed("dry-run") {
		run.DryRun = dryRun
	}
	if flags.Changed("verbose") {
		run.Verbose = verbose
	}
	if flags.Changed("staging-dir") {
		run.StagingDir = stagingDir
	}
	if run.Config == "" {
		return fmt.Errorf("no config given (use --config or RUN_CONFIG)")
	}

	observer := pipeline.NewChannelObserver(256)
	opts := pipeline.Options{DryRun: run.DryRun, Verbose: run.Verbose}

	u, err := env.prepare(cmd.Context(), run.SettingsURL, run.Config, opts, observer)
	if err != nil {
		return err
	}

	if !run.DryRun {
		ok, err := confirmSync(cmd.InOrStdin(), cmd.OutOrStdout(), run.Config)
		if err != nil {
			return err
		}
		if !ok {
			env.logger.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	out := cmd.OutOrStdout()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for e := range observer.Events() {
			if e.Kind == pipeline.EventLine {
				fmt.Fprintln(out, e.Line.String())
			}
		}
	}()

	runErr := u.Run(cmd.Context())
	observer.Close()
	<-printed

	if n := observer.Dropped(); n > 0 {
		env.logger.Warn("Transcript output fell behind", zap.Int64("dropped", n))
		fmt.Fprintln(out, u.Reporter().Text())
	}

	if runErr != nil {
		return fmt.Errorf("sync of %s failed in phase %s: %w", run.Config, u.Phase(), runErr)
	}
	return nil
}

// confirmSync asks before a run that will modify the server. A non-interactive
// stdin requires --yes.
func confirmSync(in io.Reader, out io.Writer, name string) (bool, error) {
	if yesConfirm {
		fmt.Fprintln(out, "Auto-confirmed via --yes flag")
		return true, nil
	}

	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return false, fmt.Errorf("refusing to modify the server without confirmation; pass --yes or --dry-run")
	}

	fmt.Fprintf(out, "This will update config %s on the remote server. Type 'yes' to continue: ", name)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(response) == "yes", nil
}
