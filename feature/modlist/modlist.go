// Package modlist parses the client mod-list export.
//
// The export is a line-oriented block format. Mods are listed under the
// :required_mods: and :allowed_mods: blocks, one `- "@mod"` entry per line;
// a block ends at the next line starting with ':'.
package modlist

import (
	"regexp"
	"strings"
)

const (
	requiredMarker = ":required_mods:"
	allowedMarker  = ":allowed_mods:"
	nameMarker     = ":name:"
	blockDelimiter = ":"
)

var modPattern = regexp.MustCompile(`^\s*-\s*"?(@[\w.\-]+)"?`)

// Export is the parsed content of a mod-list export.
type Export struct {
	// Name is the server name declared by the export, if any.
	Name string
	// Mods lists mod tokens in document order, duplicates included.
	Mods []string
}

// Parse returns the mods of an export in document order.
// An export without mod blocks yields an empty list.
func Parse(text string) []string {
	return ParseExport(text).Mods
}

// ParseExport returns the server name and mods of an export.
func ParseExport(text string) Export {
	var exp Export
	inBlock := false
	for _, line := range splitLines(text) {
		if exp.Name == "" && strings.HasPrefix(line, nameMarker) {
			exp.Name = strings.TrimSpace(strings.Trim(strings.TrimSpace(line[len(nameMarker):]), `"'`))
		}
		// Close first so a line can end one block and open the next.
		if inBlock && strings.HasPrefix(line, blockDelimiter) {
			inBlock = false
		}
		if strings.Contains(line, requiredMarker) || strings.Contains(line, allowedMarker) {
			inBlock = true
		}
		if !inBlock {
			continue
		}
		if m := modPattern.FindStringSubmatch(line); m != nil {
			exp.Mods = append(exp.Mods, m[1])
		}
	}
	if exp.Mods == nil {
		exp.Mods = []string{}
	}
	return exp
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
