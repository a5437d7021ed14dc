package settings

import (
	"context"
	"fmt"
	"strings"

	"keymaster/core/fetch"
)

// KeyStrategy selects how key provenance is discovered.
type KeyStrategy string

const (
	// StrategyMapping resolves keys through the mapping document.
	StrategyMapping KeyStrategy = "mapping"
	// StrategyProbe resolves keys by listing each mod's key directory on the remote store.
	StrategyProbe KeyStrategy = "probe"
)

// ParseKeyStrategy validates a strategy name. Empty means StrategyMapping.
func ParseKeyStrategy(s string) (KeyStrategy, error) {
	switch KeyStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyMapping:
		return StrategyMapping, nil
	case StrategyProbe:
		return StrategyProbe, nil
	default:
		return "", fmt.Errorf("unknown key strategy %q (want %q or %q)", s, StrategyMapping, StrategyProbe)
	}
}

// ServerSettings is an immutable snapshot of the settings document.
type ServerSettings struct {
	FTPAddress        string
	FTPUser           string
	FTPPassword       string
	FTPBasePath       string // always ends in "/"
	FTPParFileName    string
	KeystoreURL       string
	KeyMappingFileURL string
	KeyStrategy       KeyStrategy
	LatestVersion     *Version

	ManualKeys      []string
	ManualMods      []string
	BlacklistedKeys []string
	ClientOnlyMods  []string

	Configs []Config
}

// Config is one deployable target.
type Config struct {
	Name           string
	ModListURL     string
	ParFileURL     string
	ServerOnlyMods []string
	ExtraFiles     []ExtraFile
}

// ExtraFile is a file mirrored from Source (a URL) to Destination (a remote path).
type ExtraFile struct {
	Source      string
	Destination string
}

// MissingFieldError reports a required element absent from the settings document.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("settings document is missing required field %q", e.Field)
}

// Config returns the config with the given name (case-insensitive).
func (s *ServerSettings) Config(name string) (*Config, error) {
	for i := range s.Configs {
		if strings.EqualFold(s.Configs[i].Name, name) {
			return &s.Configs[i], nil
		}
	}
	return nil, fmt.Errorf("unknown server config %q (available: %s)", name, strings.Join(s.ConfigNames(), ", "))
}

// ConfigNames returns the config names in document order.
func (s *ServerSettings) ConfigNames() []string {
	names := make([]string, 0, len(s.Configs))
	for _, c := range s.Configs {
		names = append(names, c.Name)
	}
	return names
}

// ParFilePath returns the remote path the rewritten par file is uploaded to.
func (s *ServerSettings) ParFilePath() string {
	return s.FTPBasePath + s.FTPParFileName
}

// KeysDir returns the remote key directory.
func (s *ServerSettings) KeysDir() string {
	return s.FTPBasePath + "keys/"
}

// Redacted returns a copy safe to print in diagnostics.
func (s ServerSettings) Redacted() ServerSettings {
	if s.FTPPassword != "" {
		s.FTPPassword = "********"
	}
	return s
}

// Load fetches and parses the settings document.
func Load(ctx context.Context, f *fetch.Fetcher, url string) (*ServerSettings, error) {
	text, err := f.Text(ctx, fetch.KindSettings, url)
	if err != nil {
		return nil, err
	}
	s, err := Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings from %s: %w", url, err)
	}
	return s, nil
}
