package keys

import (
	"context"

	"keymaster/feature/settings"
)

// Input holds everything resolution depends on.
type Input struct {
	// Mods is the ModSet parsed from the client export.
	Mods     []string
	Settings *settings.ServerSettings
	Config   *settings.Config
}

// Resolution is the outcome of key resolution.
type Resolution struct {
	// Keys is the final key set: resolved, plus manual, minus blacklisted.
	Keys *Requirements
	// KeyMods are the mods keys were resolved for.
	KeyMods []string
	// ServerMods are the mods the server runs, in command-line order.
	ServerMods []string
	// ModCommandLine is the generated -mod= parameter.
	ModCommandLine string
	// Blacklisted lists the keys removed by the blacklist.
	Blacklisted []string
}

// Resolve computes the final key set and mod command line.
func Resolve(ctx context.Context, r Resolver, in Input) (*Resolution, error) {
	keyMods := KeyMods(in.Mods, in.Settings)
	reqs, err := r.Resolve(ctx, keyMods)
	if err != nil {
		return nil, err
	}
	removed := Finalize(reqs, in.Settings)

	serverMods := ModsForServer(in.Mods, in.Settings, in.Config)
	return &Resolution{
		Keys:           reqs,
		KeyMods:        keyMods,
		ServerMods:     serverMods,
		ModCommandLine: ModCommandLine(serverMods),
		Blacklisted:    removed,
	}, nil
}

// Finalize adds the manual keys, then removes the blacklisted keys.
// It returns the names actually removed.
func Finalize(reqs *Requirements, s *settings.ServerSettings) []string {
	for _, key := range s.ManualKeys {
		reqs.Add(key, ManualProvenance)
	}
	var removed []string
	for _, key := range s.BlacklistedKeys {
		if reqs.Remove(key) {
			removed = append(removed, key)
		}
	}
	return removed
}
