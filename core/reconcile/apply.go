package reconcile

import (
	"context"
	"fmt"
	"io"

	"keymaster/core/remote"
)

// Source opens staged local files for upload.
type Source interface {
	Open(dir, name string) (io.ReadCloser, error)
}

// ApplyPlan executes every action of a plan: deletions, then uploads.
// Returns the number of actions executed and the first error encountered.
// With opts.DryRun nothing is executed and zero is returned.
func ApplyPlan(ctx context.Context, client remote.Client, src Source, plan *DirPlan, opts ReconcileOptions) (int, error) {
	executed, err := ApplyActions(ctx, client, src, plan.Deletes(), opts)
	if err != nil {
		return executed, err
	}
	n, err := ApplyActions(ctx, client, src, plan.Uploads(), opts)
	return executed + n, err
}

// ApplyActions executes the given actions sequentially, in order.
// Remote operations are never issued concurrently; the session is shared.
func ApplyActions(ctx context.Context, client remote.Client, src Source, actions []Action, opts ReconcileOptions) (executed int, err error) {
	for _, action := range actions {
		if opts.OnAction != nil {
			opts.OnAction(action, !opts.DryRun)
		}
		if opts.DryRun {
			continue
		}

		switch action.Type {
		case ActionDelete:
			if err := client.Delete(ctx, action.Path); err != nil {
				return executed, fmt.Errorf("failed to delete %s: %w", action.Path, err)
			}
		case ActionUpload:
			if err := upload(ctx, client, src, action); err != nil {
				return executed, err
			}
		default:
			return executed, fmt.Errorf("unknown action type %q", action.Type)
		}

		executed++
		if opts.OnDone != nil {
			opts.OnDone(action)
		}
	}
	return executed, nil
}

func upload(ctx context.Context, client remote.Client, src Source, action Action) error {
	f, err := src.Open(action.StageDir, action.StageName)
	if err != nil {
		return fmt.Errorf("failed to open staged %s: %w", action.StageName, err)
	}
	defer f.Close()

	if err := client.Store(ctx, action.Path, f); err != nil {
		return fmt.Errorf("failed to upload %s: %w", action.Path, err)
	}
	return nil
}
