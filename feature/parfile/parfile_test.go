package parfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const original = "class Arma3Params\r\n{\r\n\tmod=\"-mod=@old\";\r\n\r\n\tserverMod=\"\";\r\n};\r\n"

func TestRewrite(t *testing.T) {
	got := Rewrite(original, "-mod=@CBA_A3;@ace")

	want := "class Arma3Params\r\n" +
		"{\r\n" +
		"// Disabled by keymaster. Using generated value.\r\n" +
		"//\tmod=\"-mod=@old\";\r\n" +
		"\tserverMod=\"\";\r\n" +
		"\tmod=\"-mod=@CBA_A3;@ace\"; // Generated by keymaster\r\n" +
		"};\r\n"
	assert.Equal(t, want, got)
}

func TestRewrite_SingleLineClass(t *testing.T) {
	got := Rewrite("class Arma3Params { mod=\"-mod=@old\"; };\r\n", "-mod=@new")

	want := "\tmod=\"-mod=@new\"; // Generated by keymaster\r\n" +
		"// Disabled by keymaster. Using generated value.\r\n" +
		"//class Arma3Params { mod=\"-mod=@old\"; };\r\n"
	assert.Equal(t, want, got)
	assert.Contains(t, got, GeneratedLine("-mod=@new"))
}

func TestRewrite_StableAcrossRuns(t *testing.T) {
	first := Rewrite(original, "-mod=@a;@b")
	second := Rewrite(original, "-mod=@a;@b")
	assert.Equal(t, first, second)
}

func TestRewrite_NotIdempotentOnOwnOutput(t *testing.T) {
	once := Rewrite(original, "-mod=@a")
	twice := Rewrite(once, "-mod=@a")
	assert.NotEqual(t, once, twice)
	assert.Equal(t, 2, strings.Count(twice, GeneratedLine("-mod=@a")))
}

func TestRewrite_LFInput(t *testing.T) {
	got := Rewrite("class P\n{\n};\n", "-mod=")
	assert.Equal(t, "class P\r\n{\r\n\tmod=\"-mod=\"; // Generated by keymaster\r\n};\r\n", got)
}

func TestRewrite_NoMarkers(t *testing.T) {
	assert.Equal(t, "a\r\nb\r\n", Rewrite("a\nb", "-mod=@x"))
	assert.Empty(t, Rewrite("", "-mod=@x"))
}

func TestDiff(t *testing.T) {
	rewritten := Rewrite(original, "-mod=@a")
	diff := Diff("server.par", original, rewritten)

	assert.Contains(t, diff, "--- server.par (source)")
	assert.Contains(t, diff, "+++ server.par (generated)")
	assert.Contains(t, diff, "-\tmod=\"-mod=@old\";")
	assert.Contains(t, diff, "+\tmod=\"-mod=@a\"; // Generated by keymaster")
	assert.Empty(t, Diff("server.par", original, original))
}
