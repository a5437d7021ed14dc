package mapping

import (
	"testing"

	"keymaster/feature/keys"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := []string{
		"/mods/@CBA_A3/keys/cba_a3.bikey",
		"/mods/@CBA_A3/addons/cba_main.pbo",
		"/mods/@ace/keys/ace_3.bikey",
		"/mods/@ace/keys/ace_2.BIKEY",
		"/mods/@jsrs/key/jsrs.bikey",
		"/mods/@server/addons/server.pbo",
		"/mods/notamod/keys/x.bikey",
		"/mods/@readme.txt",
	}
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o644))
	}
	return fs
}

func TestGenerate(t *testing.T) {
	g := NewGenerator(modTree(t), nil)

	got, err := g.Generate("/mods")
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"@CBA_A3": {"cba_a3.bikey"},
		"@ace":    {"ace_2.BIKEY", "ace_3.bikey"},
		"@jsrs":   {"jsrs.bikey"},
		"@server": {},
	}, got)
}

func TestGenerate_NotADirectory(t *testing.T) {
	g := NewGenerator(modTree(t), nil)

	_, err := g.Generate("/missing")
	assert.Error(t, err)

	_, err = g.Generate("/mods/@readme.txt")
	assert.Error(t, err)
}

// TestWriteFile_RoundTripsThroughResolver checks the generated document is readable as a mapping.
func TestWriteFile_RoundTripsThroughResolver(t *testing.T) {
	fs := modTree(t)
	g := NewGenerator(fs, nil)

	_, err := g.WriteFile("/mods", "/out/mapping.json")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/out/mapping.json")
	require.NoError(t, err)

	m, err := keys.ParseMapping(data)
	require.NoError(t, err)
	got, ok := m.Lookup("@cba_a3")
	require.True(t, ok)
	assert.Equal(t, []string{"cba_a3.bikey"}, got)
}

func TestMarshal_Sorted(t *testing.T) {
	data, err := Marshal(map[string][]string{"@b": {"b.bikey"}, "@a": {}})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"@a\": [],\n    \"@b\": [\n        \"b.bikey\"\n    ]\n}\n", string(data))
}
