package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrBusy is returned by Start while a run is in flight.
var ErrBusy = errors.New("a sync run is already in progress")

// Result describes a finished run.
type Result struct {
	ID         string    `json:"id"`
	Config     string    `json:"config"`
	DryRun     bool      `json:"dry_run"`
	Phase      Phase     `json:"phase"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	err error
}

// Err returns the fault that ended the run, if any.
func (r *Result) Err() error { return r.err }

// Status is a snapshot of the runner.
type Status struct {
	Busy    bool    `json:"busy"`
	RunID   string  `json:"run_id,omitempty"`
	Config  string  `json:"config,omitempty"`
	Phase   Phase   `json:"phase"`
	LastRun *Result `json:"last_run,omitempty"`
}

// Runner hosts at most one run at a time. Runs execute on their own
// goroutine and are not cancelled by the caller's context.
type Runner struct {
	busy   atomic.Bool
	logger *zap.Logger

	mu      sync.Mutex
	current *Updater
	last    *Updater
	result  *Result
	done    chan struct{}
}

// NewRunner creates an idle runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// CanStart reports whether a new run would be accepted.
func (r *Runner) CanStart() bool {
	return !r.busy.Load()
}

// IsBusy reports whether a run is in flight.
func (r *Runner) IsBusy() bool {
	return r.busy.Load()
}

// Start launches u in the background. It returns ErrBusy if a run is
// already in flight.
func (r *Runner) Start(ctx context.Context, u *Updater) error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.current = u
	r.done = done
	r.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		res := &Result{ID: u.ID(), Config: u.ConfigName(), DryRun: u.Options().DryRun, StartedAt: time.Now()}
		r.logger.Info("Sync run started", zap.String("run_id", res.ID), zap.String("config", res.Config))

		err := u.Run(runCtx)

		res.FinishedAt = time.Now()
		res.Phase = u.Phase()
		res.err = err
		if err != nil {
			res.Error = err.Error()
			r.logger.Error("Sync run failed", zap.String("run_id", res.ID), zap.String("phase", res.Phase.String()), zap.Error(err))
		} else {
			r.logger.Info("Sync run finished", zap.String("run_id", res.ID), zap.Duration("duration", res.FinishedAt.Sub(res.StartedAt)))
		}

		r.mu.Lock()
		r.current = nil
		r.last = u
		r.result = res
		r.mu.Unlock()
		r.busy.Store(false)
	}()
	return nil
}

// Wait blocks until the run in flight, if any, has finished and returns the
// latest result.
func (r *Runner) Wait() *Result {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Status returns a snapshot of the runner.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{Busy: r.busy.Load(), LastRun: r.result}
	if r.current != nil {
		st.RunID = r.current.ID()
		st.Config = r.current.ConfigName()
		st.Phase = r.current.Phase()
	}
	return st
}

// Transcript returns the transcript of the run in flight, or of the last
// run when idle.
func (r *Runner) Transcript() []Line {
	r.mu.Lock()
	u := r.current
	if u == nil {
		u = r.last
	}
	r.mu.Unlock()
	if u == nil {
		return nil
	}
	return u.Reporter().Lines()
}
