package keys

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"keymaster/core/fetch"
	"keymaster/core/remote"
	"keymaster/core/utils"
)

// KeyExtension is the file extension of key files.
const KeyExtension = ".bikey"

// Resolver maps mods to the keys they require.
type Resolver interface {
	Resolve(ctx context.Context, mods []string) (*Requirements, error)
}

// Logger receives resolution notes for the run transcript.
type Logger interface {
	Debugf(format string, args ...any)
	Messagef(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)   {}
func (nopLogger) Messagef(string, ...any) {}

// UnresolvedModError names every mod whose keys could not be found.
type UnresolvedModError struct {
	Mods []string
}

func (e *UnresolvedModError) Error() string {
	return fmt.Sprintf("unable to find keys for %d mod(s): %s", len(e.Mods), strings.Join(e.Mods, ", "))
}

// Mapping is the mod → key names document, keyed by case-folded mod name.
type Mapping map[string][]string

// ParseMapping decodes a mapping document.
func ParseMapping(data []byte) (Mapping, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid mapping document: %w", err)
	}
	m := make(Mapping, len(raw))
	for mod, keys := range raw {
		key := utils.FoldKey(mod)
		m[key] = append(m[key], keys...)
	}
	return m, nil
}

// LoadMapping fetches and parses the mapping document.
func LoadMapping(ctx context.Context, f *fetch.Fetcher, url string) (Mapping, error) {
	text, err := f.Text(ctx, fetch.KindMapping, url)
	if err != nil {
		return nil, err
	}
	return ParseMapping([]byte(text))
}

// Lookup returns the keys of a mod.
func (m Mapping) Lookup(mod string) ([]string, bool) {
	keys, ok := m[utils.FoldKey(mod)]
	return keys, ok
}

// MappingResolver resolves keys through a mapping document.
type MappingResolver struct {
	Mapping Mapping
}

// Resolve requires every mod to have a mapping entry. No remote call is made.
func (r *MappingResolver) Resolve(ctx context.Context, mods []string) (*Requirements, error) {
	reqs := NewRequirements()
	var missing []string
	for _, mod := range mods {
		keys, ok := r.Mapping.Lookup(mod)
		if !ok {
			missing = append(missing, mod)
			continue
		}
		for _, key := range keys {
			reqs.Add(key, mod)
		}
	}
	if len(missing) > 0 {
		return nil, &UnresolvedModError{Mods: missing}
	}
	return reqs, nil
}

// ProbeResolver resolves keys by listing <BasePath><mod>/key(s)/ on the
// remote store.
type ProbeResolver struct {
	Client   remote.Client
	BasePath string
	// ClientOnlyMods are not installed on the server. A missing directory
	// for one of them is skipped instead of failing resolution.
	ClientOnlyMods []string
	Log            Logger
}

var keyDirNames = []string{"keys", "key"}

// Resolve probes mods in order. The first mod supplying a key name keeps it.
func (r *ProbeResolver) Resolve(ctx context.Context, mods []string) (*Requirements, error) {
	log := r.Log
	if log == nil {
		log = nopLogger{}
	}

	reqs := NewRequirements()
	var missing []string
	for _, mod := range mods {
		modDir := remote.Join(r.BasePath, mod) + "/"
		entries, err := r.Client.List(ctx, modDir)
		if err != nil {
			log.Debugf("Unable to list mod directory %s: %v", modDir, err)
			if utils.ContainsFold(r.ClientOnlyMods, mod) {
				log.Messagef("Skipping client-only mod %s: not present on the server", mod)
				continue
			}
			missing = append(missing, mod)
			continue
		}

		keyDir := findKeyDir(modDir, entries)
		if keyDir == "" {
			log.Debugf("Mod %s has no key directory", mod)
			continue
		}

		files, err := r.Client.List(ctx, keyDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list key directory %s: %w", keyDir, err)
		}
		for _, f := range files {
			if f.IsDir || !utils.HasSuffixFold(f.Name, KeyExtension) {
				continue
			}
			source := f.Path
			if source == "" {
				source = remote.Join(keyDir, f.Name)
			}
			if !reqs.AddFrom(f.Name, mod, source) {
				kept, _ := reqs.Get(f.Name)
				log.Debugf("Ignoring duplicate key %s from %s (already provided by %s)", f.Name, mod, strings.Join(kept.Mods, ","))
			}
		}
	}
	if len(missing) > 0 {
		return nil, &UnresolvedModError{Mods: missing}
	}
	return reqs, nil
}

func findKeyDir(modDir string, entries []remote.Entry) string {
	for _, want := range keyDirNames {
		for _, e := range entries {
			if !e.IsDir || !strings.EqualFold(e.Name, want) {
				continue
			}
			if e.Path != "" {
				return e.Path
			}
			return remote.Join(modDir, e.Name)
		}
	}
	return ""
}
