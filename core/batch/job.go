package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/firmflex/core/model"
)

// Status is the lifecycle state of a site job.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusSkipped
}

// ErrInvalidTransition is returned when a job is moved out of order.
var ErrInvalidTransition = errors.New("invalid job status transition")

var transitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusSkipped},
	StatusRunning: {StatusSuccess, StatusError},
}

// Request is one site to process. A nil FirmCapacity lets the runner
// compute it from the demand data.
type Request struct {
	Site         string
	FirmCapacity *float64
}

// Runner performs the per-site analysis.
type Runner interface {
	Run(ctx context.Context, req Request) (*model.SiteReport, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req Request) (*model.SiteReport, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, req Request) (*model.SiteReport, error) {
	return f(ctx, req)
}

// Job tracks one site through the batch.
type Job struct {
	Site string
	// FirmCapacity is the requested capacity, replaced by the computed
	// peak-based capacity on success.
	FirmCapacity *float64
	Status       Status
	StartedAt    time.Time
	Duration     time.Duration
	Report       *model.SiteReport
	Err          error
	Message      string
}

func newJob(req Request) Job {
	return Job{Site: req.Site, FirmCapacity: req.FirmCapacity, Status: StatusPending}
}

func (j *Job) transition(to Status) error {
	for _, s := range transitions[j.Status] {
		if s == to {
			j.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
}

func (j *Job) skip(msg string) error {
	if err := j.transition(StatusSkipped); err != nil {
		return err
	}
	j.Message = msg
	return nil
}

func (j *Job) fail(err error) {
	if j.transition(StatusError) == nil {
		j.Err = err
	}
}

func (j *Job) succeed(r *model.SiteReport) {
	if j.transition(StatusSuccess) != nil {
		return
	}
	j.Report = r
	if r != nil {
		c := r.Stats.CPeakMW
		j.FirmCapacity = &c
	}
}

// Capacity returns the job's firm capacity, if any.
func (j Job) Capacity() (float64, bool) {
	if j.FirmCapacity == nil {
		return 0, false
	}
	return *j.FirmCapacity, true
}

// ErrMessage returns the failure message, or "".
func (j Job) ErrMessage() string {
	if j.Err == nil {
		return ""
	}
	return j.Err.Error()
}
