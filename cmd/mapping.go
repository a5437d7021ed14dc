package cmd

import (
	"fmt"

	"keymaster/feature/mapping"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mappingInputDir   string
	mappingOutputFile string
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Mapping file tools",
}

// mappingGenerateCmd builds a key mapping file from a local mod folder.
var mappingGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a key mapping file from a local mod directory",
	Long: `Scans every @mod folder of the input directory for keys/ or key/
subfolders and writes a JSON object mapping each mod to its .bikey files.`,
	Example: `  keymaster mapping generate -i /games/arma3 -o mapping.json`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		gen := mapping.NewGenerator(afero.NewOsFs(), env.logger)
		mappings, err := gen.WriteFile(mappingInputDir, mappingOutputFile)
		if err != nil {
			return err
		}

		total := 0
		for _, k := range mappings {
			total += len(k)
		}
		env.logger.Info("Mapping file written",
			zap.String("output", mappingOutputFile),
			zap.Int("mods", len(mappings)),
			zap.Int("keys", total),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d mod(s) with %d key(s) to %s\n", len(mappings), total, mappingOutputFile)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(mappingCmd)
	mappingCmd.AddCommand(mappingGenerateCmd)

	mappingGenerateCmd.Flags().StringVarP(&mappingInputDir, "input-dir", "i", "", "The local mod folder to scan")
	mappingGenerateCmd.Flags().StringVarP(&mappingOutputFile, "output-file", "o", "", "The mapping file to write")
	_ = mappingGenerateCmd.MarkFlagRequired("input-dir")
	_ = mappingGenerateCmd.MarkFlagRequired("output-file")
}
