// Package reconcile brings one remote directory in line with a desired set of
// files.
//
// Reconciliation is split into a pure planning step and an apply step:
//
// 1. Plan: PlanDir lists the directory (fresh, never cached) and BuildPlan
//    computes the stale set and the upload set. Names are compared without
//    regard to case. Protected names are never deleted.
//
// 2. Apply: ApplyPlan / ApplyActions issue deletions before uploads, one at a
//    time over the shared session. With ReconcileOptions.DryRun every
//    mutation is reported through OnAction and skipped, so a dry run shows
//    exactly the same plan as a real run.
//
// # Scopes
//
//   - ScopeExclusive: the directory holds only managed files (the keys
//     directory). Anything not desired is stale.
//   - ScopeReplace: the directory is shared (the par file and extra file
//     destinations). Only files about to be replaced are stale.
//
// # Usage Example
//
//	plan, err := reconcile.PlanDir(ctx, client, reconcile.DirSpec{
//	    Label:     "keys",
//	    Dir:       "/arma3/keys/",
//	    Scope:     reconcile.ScopeExclusive,
//	    Desired:   desired,
//	    Protected: []string{"a3.bikey"},
//	})
//	n, err := reconcile.ApplyPlan(ctx, client, stagingArea, plan, reconcile.ReconcileOptions{DryRun: dryRun})
package reconcile
