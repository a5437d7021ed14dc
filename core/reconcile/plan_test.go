package reconcile

import (
	"context"
	"fmt"
	"testing"

	"keymaster/core/remote"
	"keymaster/core/remote/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func keyEntries(dir string, names ...string) []remote.Entry {
	entries := make([]remote.Entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, remote.Entry{Name: n, Path: remote.Join(dir, n)})
	}
	return entries
}

func keysSpec(desired ...string) DirSpec {
	spec := DirSpec{
		Label:     "keys",
		Dir:       "/arma3/keys/",
		Scope:     ScopeExclusive,
		Protected: []string{"a3.bikey"},
	}
	for _, d := range desired {
		spec.Desired = append(spec.Desired, DesiredFile{Name: d, StageDir: "keys"})
	}
	return spec
}

// TestBuildPlan_Exclusive tests stale detection in a managed directory.
func TestBuildPlan_Exclusive(t *testing.T) {
	listing := keyEntries("/arma3/keys/", "old_mod.bikey", "A3.bikey", "ace.bikey")
	listing = append(listing, remote.Entry{Name: "subdir", Path: "/arma3/keys/subdir", IsDir: true})

	plan := BuildPlan(keysSpec("ace.bikey", "cba_a3.bikey"), listing)

	require.Len(t, plan.Deletes(), 1)
	assert.Equal(t, "old_mod.bikey", plan.Deletes()[0].Name)
	assert.Equal(t, "/arma3/keys/old_mod.bikey", plan.Deletes()[0].Path)
	assert.Equal(t, "not required", plan.Deletes()[0].Reason)

	uploads := plan.Uploads()
	require.Len(t, uploads, 2)
	assert.Equal(t, "/arma3/keys/ace.bikey", uploads[0].Path)
	assert.Equal(t, "cba_a3.bikey", uploads[1].StageName)

	assert.Equal(t, PlanSummary{Listed: 3, Desired: 2, Stale: 1, Uploads: 2, Protected: 1}, plan.Summary)
	assert.Equal(t, []string{"A3.bikey", "ace.bikey", "old_mod.bikey"}, plan.Listed)
}

// TestBuildPlan_ExclusiveCaseMismatch tests that a differently spelled copy of a desired key is replaced.
func TestBuildPlan_ExclusiveCaseMismatch(t *testing.T) {
	plan := BuildPlan(keysSpec("ace.bikey"), keyEntries("/arma3/keys/", "ACE.bikey"))

	require.Len(t, plan.Deletes(), 1)
	assert.Equal(t, "/arma3/keys/ACE.bikey", plan.Deletes()[0].Path)
	assert.Equal(t, "replaced by new version", plan.Deletes()[0].Reason)
	require.Len(t, plan.Uploads(), 1)
	assert.Equal(t, "/arma3/keys/ace.bikey", plan.Uploads()[0].Path)
}

// TestBuildPlan_ProtectedNeverDeleted tests that the base game key survives an empty desired set.
func TestBuildPlan_ProtectedNeverDeleted(t *testing.T) {
	plan := BuildPlan(keysSpec(), keyEntries("/arma3/keys/", "a3.bikey", "x.bikey"))

	require.Len(t, plan.Deletes(), 1)
	assert.Equal(t, "x.bikey", plan.Deletes()[0].Name)
	assert.Empty(t, plan.Uploads())
}

// TestBuildPlan_Replace tests that shared directories only replace desired files.
func TestBuildPlan_Replace(t *testing.T) {
	spec := DirSpec{
		Label:   "par file",
		Dir:     "/arma3/",
		Scope:   ScopeReplace,
		Desired: []DesiredFile{{Name: "server.par", StageDir: "par"}},
	}
	plan := BuildPlan(spec, keyEntries("/arma3/", "arma3server.exe", "Server.PAR", "server.cfg"))

	require.Len(t, plan.Deletes(), 1)
	assert.Equal(t, "/arma3/Server.PAR", plan.Deletes()[0].Path)
	assert.Equal(t, "replaced by new version", plan.Deletes()[0].Reason)
	require.Len(t, plan.Uploads(), 1)
	assert.Equal(t, "/arma3/server.par", plan.Uploads()[0].Path)
	assert.Equal(t, 2, plan.Summary.Untouched)
}

// TestBuildPlan_DeletionsPrecedeUploads tests action ordering.
func TestBuildPlan_DeletionsPrecedeUploads(t *testing.T) {
	plan := BuildPlan(keysSpec("b.bikey"), keyEntries("/k/", "z.bikey", "a.bikey"))

	var types []ActionType
	for _, a := range plan.Actions {
		types = append(types, a.Type)
	}
	assert.Equal(t, []ActionType{ActionDelete, ActionDelete, ActionUpload}, types)
	assert.Equal(t, "a.bikey", plan.Actions[0].Name)
}

// TestBuildPlan_MissingEntryPath tests that listings without a path are joined onto the directory.
func TestBuildPlan_MissingEntryPath(t *testing.T) {
	plan := BuildPlan(keysSpec(), []remote.Entry{{Name: "x.bikey"}})
	require.Len(t, plan.Deletes(), 1)
	assert.Equal(t, "/arma3/keys/x.bikey", plan.Deletes()[0].Path)
}

func TestPlanDir(t *testing.T) {
	client := new(mocks.Client)
	client.On("List", mock.Anything, "/arma3/keys/").Return(keyEntries("/arma3/keys/", "stale.bikey"), nil)

	plan, err := PlanDir(context.Background(), client, keysSpec("ace.bikey"))
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Summary.Stale)
	client.AssertExpectations(t)
}

func TestPlanDir_ListError(t *testing.T) {
	client := new(mocks.Client)
	client.On("List", mock.Anything, "/arma3/keys/").Return(nil, fmt.Errorf("550 no such directory"))

	_, err := PlanDir(context.Background(), client, keysSpec("ace.bikey"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550 no such directory")
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "exclusive", ScopeExclusive.String())
	assert.Equal(t, "replace", ScopeReplace.String())
	assert.Equal(t, "unknown", Scope(7).String())
}
