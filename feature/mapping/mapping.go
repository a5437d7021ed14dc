// Package mapping generates the mod → keys mapping document from a local
// mod directory.
//
// Every folder whose name starts with '@' is a mod. Its key files are the
// *.bikey files inside a "keys" or "key" subfolder (both are read when both
// exist). Mods without keys are kept with an empty list so that resolution
// knows them.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"keymaster/core/utils"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const keyExtension = ".bikey"

var keyDirNames = []string{"keys", "key"}

// Generator scans a mod directory on a filesystem.
type Generator struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewGenerator creates a generator. A nil logger discards output.
func NewGenerator(fs afero.Fs, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{fs: fs, logger: logger}
}

// Generate returns the mapping of mod folder name to sorted key file names.
func (g *Generator) Generate(dir string) (map[string][]string, error) {
	info, err := g.fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("mod directory %s does not exist: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mod directory %s is not a directory", dir)
	}

	entries, err := afero.ReadDir(g.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mod directory %s: %w", dir, err)
	}

	mappings := make(map[string][]string)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "@") {
			continue
		}
		keys, err := g.modKeys(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		g.logger.Debug("Found mod folder", zap.String("mod", entry.Name()), zap.Int("keys", len(keys)))
		mappings[entry.Name()] = keys
	}
	return mappings, nil
}

func (g *Generator) modKeys(modDir string) ([]string, error) {
	keys := []string{}
	children, err := afero.ReadDir(g.fs, modDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mod folder %s: %w", modDir, err)
	}
	for _, child := range children {
		if !child.IsDir() || !utils.ContainsFold(keyDirNames, child.Name()) {
			continue
		}
		files, err := afero.ReadDir(g.fs, filepath.Join(modDir, child.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read keys folder %s: %w", child.Name(), err)
		}
		for _, f := range files {
			if !f.IsDir() && utils.HasSuffixFold(f.Name(), keyExtension) {
				keys = append(keys, f.Name())
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Marshal renders a mapping as indented JSON with sorted mod names.
func Marshal(mappings map[string][]string) ([]byte, error) {
	data, err := json.MarshalIndent(mappings, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteFile generates the mapping for dir and writes it to output.
func (g *Generator) WriteFile(dir, output string) (map[string][]string, error) {
	mappings, err := g.Generate(dir)
	if err != nil {
		return nil, err
	}
	data, err := Marshal(mappings)
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(g.fs, output, data, os.FileMode(0o644)); err != nil {
		return nil, fmt.Errorf("failed to write mapping file %s: %w", output, err)
	}
	return mappings, nil
}
