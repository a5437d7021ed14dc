package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError wraps a panic recovered from a run.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func stack() string {
	return string(debug.Stack())
}

// Diagnostics describes a failed run for forwarding to an administrator.
type Diagnostics struct {
	RunID      string
	Config     string
	Phase      Phase
	DryRun     bool
	Mutating   bool
	Settings   []string
	ErrorChain []string
	Stack      string
}

// Diagnose builds the diagnostic dump of a failed run.
func (u *Updater) Diagnose(err error) Diagnostics {
	s := u.settings.Redacted()
	d := Diagnostics{
		RunID:    u.id,
		Config:   u.config.Name,
		Phase:    u.Phase(),
		DryRun:   u.opts.DryRun,
		Mutating: u.Phase().Mutating() && !u.opts.DryRun,
		Settings: []string{
			"address: " + s.FTPAddress,
			"user: " + s.FTPUser,
			"password: " + s.FTPPassword,
			"base path: " + s.FTPBasePath,
			"par file: " + s.FTPParFileName,
			"key strategy: " + string(s.KeyStrategy),
			"keystore: " + s.KeystoreURL,
			"mapping: " + s.KeyMappingFileURL,
			"mod list: " + u.config.ModListURL,
			"par source: " + u.config.ParFileURL,
		},
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.ErrorChain = append(d.ErrorChain, e.Error())
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		d.Stack = pe.Stack
	}
	return d
}

// Lines renders the dump one line at a time.
func (d Diagnostics) Lines() []string {
	lines := []string{
		"----- Diagnostic information -----",
		"run: " + d.RunID,
		"config: " + d.Config,
		"phase: " + d.Phase.String(),
		fmt.Sprintf("dry run: %t", d.DryRun),
	}
	if d.Mutating {
		lines = append(lines, "The remote server may have been left partially updated.")
	}
	lines = append(lines, d.Settings...)
	for i, e := range d.ErrorChain {
		lines = append(lines, fmt.Sprintf("error[%d]: %s", i, e))
	}
	if d.Stack != "" {
		lines = append(lines, strings.Split(strings.TrimRight(d.Stack, "\n"), "\n")...)
	}
	return append(lines, "----------------------------------")
}

func (u *Updater) reportFailure(err error) {
	u.reporter.Errorf("%v", err)

	// Faults before the remote store is touched only need the message.
	var pe *PanicError
	if !errors.As(err, &pe) && u.Phase() < PhaseConnectingToRemote {
		u.reporter.Errorf("Aborted in phase %s. No changes were made to the server.", u.Phase())
		return
	}
	for _, line := range u.Diagnose(err).Lines() {
		u.reporter.Errorf("%s", line)
	}
}
