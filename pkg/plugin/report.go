package plugin

import (
	"time"

	"go.uber.org/multierr"
)

// Status is the overall result of a platform run.
type Status string

const (
	// StatusOK means every plugin succeeded.
	StatusOK Status = "ok"
	// StatusPartial means some plugins failed non-fatally.
	StatusPartial Status = "partial"
	// StatusAborted means a fatal failure or cancellation stopped the run.
	StatusAborted Status = "aborted"
)

// Severity orders statuses from best to worst.
func (s Status) Severity() int {
	switch s {
	case StatusOK:
		return 0
	case StatusPartial:
		return 1
	default:
		return 2
	}
}

// ExitCode maps s to the process exit status used by the CLI.
func (s Status) ExitCode() int {
	switch s {
	case StatusOK:
		return 0
	case StatusPartial:
		return 2
	default:
		return 3
	}
}

// State is the lifecycle state of a run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// OutcomeStatus is the result of one plugin invocation.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
	// OutcomeSkipped marks plugins not invoked because the run aborted first.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome records one plugin invocation.
type Outcome struct {
	Plugin   string
	Status   OutcomeStatus
	Err      error
	Duration time.Duration
}

// Report is the result of applying every plugin to one platform.
type Report struct {
	ID       string
	Platform Platform
	State    State
	Status   Status
	Outcomes []Outcome
	Started  time.Time
	Finished time.Time

	interrupt error
}

// Interrupted returns the context error that stopped the run, if any.
func (r *Report) Interrupted() error {
	return r.interrupt
}

// Outcome returns the outcome recorded for plugin.
func (r *Report) Outcome(plugin string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Plugin == plugin {
			return o, true
		}
	}
	return Outcome{}, false
}

// Failed returns the failed outcomes in execution order.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			out = append(out, o)
		}
	}
	return out
}

// Err combines every recorded failure, or returns nil when none occurred.
func (r *Report) Err() error {
	var err error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			err = multierr.Append(err, o.Err)
		}
	}
	return multierr.Append(err, r.interrupt)
}

// ExitCode returns Status.ExitCode.
func (r *Report) ExitCode() int {
	return r.Status.ExitCode()
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
