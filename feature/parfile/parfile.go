// Package parfile rewrites the server launch-parameter file.
//
// The rewrite disables any existing -mod= line and inserts the generated mod
// assignment before the closing "};" of the class body. It must be applied to
// the freshly fetched original only: feeding its own output back in would
// disable the generated line and insert a second one.
package parfile

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// LineTerminator ends every rewritten line.
	LineTerminator = "\r\n"

	modFlagMarker = "-mod="
	closeMarker   = "};"

	disabledComment = "// Disabled by keymaster. Using generated value."
	generatedSuffix = " // Generated by keymaster"
)

// Rewrite returns the par file with modCommandLine as its mod parameter.
// Empty lines of the original are not reproduced.
func Rewrite(original, modCommandLine string) string {
	var b strings.Builder
	for _, line := range splitLines(original) {
		// Both substitutions apply when a single line holds "-mod=" and "};".
		if strings.Contains(line, closeMarker) {
			b.WriteString(GeneratedLine(modCommandLine) + LineTerminator)
		}
		if strings.Contains(line, modFlagMarker) {
			b.WriteString(disabledComment + LineTerminator)
			line = "//" + line
		}
		b.WriteString(line + LineTerminator)
	}
	return b.String()
}

// GeneratedLine returns the assignment inserted before the closing marker.
func GeneratedLine(modCommandLine string) string {
	return "\tmod=\"" + modCommandLine + "\";" + generatedSuffix
}

// Diff returns a unified diff between the original and rewritten par files.
func Diff(name, original, rewritten string) string {
	diff := difflib.UnifiedDiff{
		A:        normalize(original),
		B:        normalize(rewritten),
		FromFile: name + " (source)",
		ToFile:   name + " (generated)",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func normalize(text string) []string {
	lines := splitLines(text)
	for i := range lines {
		lines[i] += "\n"
	}
	return lines
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
