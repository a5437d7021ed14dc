package reconcile

import (
	"context"
	"fmt"
	"sort"

	"keymaster/core/remote"
	"keymaster/core/utils"
)

// PlanDir lists the remote directory and computes its plan.
// The listing is always fetched fresh: a deletion applied by an earlier plan
// must be visible here.
func PlanDir(ctx context.Context, client remote.Client, spec DirSpec) (*DirPlan, error) {
	entries, err := client.List(ctx, spec.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s directory %s: %w", spec.Label, spec.Dir, err)
	}
	return BuildPlan(spec, entries), nil
}

// BuildPlan computes the stale and upload sets for a directory listing.
// It does not touch the remote store, so dry-run and real runs share it.
func BuildPlan(spec DirSpec, listing []remote.Entry) *DirPlan {
	desired := make(map[string]DesiredFile, len(spec.Desired))
	for _, d := range spec.Desired {
		desired[utils.FoldKey(d.Name)] = d
	}
	protected := utils.FoldSet(spec.Protected)

	plan := &DirPlan{Spec: spec}

	files := make([]remote.Entry, 0, len(listing))
	for _, entry := range listing {
		if entry.IsDir {
			continue
		}
		files = append(files, entry)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	var deletes []Action
	for _, entry := range files {
		plan.Listed = append(plan.Listed, entry.Name)
		key := utils.FoldKey(entry.Name)
		entryPath := entry.Path
		if entryPath == "" {
			entryPath = remote.Join(spec.Dir, entry.Name)
		}

		want, isDesired := desired[key]
		switch spec.Scope {
		case ScopeReplace:
			if !isDesired {
				plan.Summary.Untouched++
				continue
			}
			deletes = append(deletes, Action{
				Type:   ActionDelete,
				Name:   entry.Name,
				Path:   entryPath,
				Reason: "replaced by new version",
			})
		default:
			if isDesired && entry.Name == want.Name {
				continue
			}
			if isDesired {
				// Same key under another spelling; the upload uses the desired name.
				deletes = append(deletes, Action{
					Type:   ActionDelete,
					Name:   entry.Name,
					Path:   entryPath,
					Reason: "replaced by new version",
				})
				continue
			}
			if _, ok := protected[key]; ok {
				plan.Summary.Protected++
				continue
			}
			deletes = append(deletes, Action{
				Type:   ActionDelete,
				Name:   entry.Name,
				Path:   entryPath,
				Reason: "not required",
			})
		}
	}

	plan.Actions = append(plan.Actions, deletes...)
	for _, d := range spec.Desired {
		reason := d.Reason
		if reason == "" {
			reason = "required"
		}
		plan.Actions = append(plan.Actions, Action{
			Type:      ActionUpload,
			Name:      d.Name,
			Path:      remote.Join(spec.Dir, d.Name),
			Reason:    reason,
			StageDir:  d.StageDir,
			StageName: d.stagedName(),
		})
	}

	plan.Summary.Listed = len(files)
	plan.Summary.Desired = len(spec.Desired)
	plan.Summary.Stale = len(deletes)
	plan.Summary.Uploads = len(spec.Desired)
	return plan
}

// Deletes returns the planned deletions.
func (p *DirPlan) Deletes() []Action {
	return p.filter(ActionDelete)
}

// Uploads returns the planned uploads.
func (p *DirPlan) Uploads() []Action {
	return p.filter(ActionUpload)
}

func (p *DirPlan) filter(t ActionType) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}
