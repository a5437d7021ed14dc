package keys

import (
	"strings"

	"keymaster/core/utils"
	"keymaster/feature/settings"
)

// ModsForServer returns the mods the server runs: the export's mods minus
// the client-only mods, then the config's server-only mods not already
// present. Client-only mods never appear, even when forced server-side.
func ModsForServer(modSet []string, s *settings.ServerSettings, c *settings.Config) []string {
	mods := utils.ExceptFold(utils.UniqueFold(modSet), s.ClientOnlyMods)
	for _, mod := range utils.UniqueFold(c.ServerOnlyMods) {
		if utils.ContainsFold(mods, mod) || utils.ContainsFold(s.ClientOnlyMods, mod) {
			continue
		}
		mods = append(mods, mod)
	}
	return mods
}

// KeyMods returns the mods whose keys must be installed: the export's mods
// plus the manually forced mods.
func KeyMods(modSet []string, s *settings.ServerSettings) []string {
	return utils.UniqueFold(modSet, s.ManualMods)
}

// ModCommandLine formats the -mod= launch parameter. Order is kept.
func ModCommandLine(mods []string) string {
	return "-mod=" + strings.Join(mods, ";")
}
