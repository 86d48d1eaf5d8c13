package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/firmflex/core/metrics"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/internal/eventbus"
)

func sites(n int) []Request {
	reqs := make([]Request, n)
	for i := range reqs {
		reqs[i] = Request{Site: fmt.Sprintf("site%02d", n-i)}
	}
	return reqs
}

func report(site string, c float64) *model.SiteReport {
	return &model.SiteReport{Stats: model.SiteStats{Substation: site, CPeakMW: c, CPlainMW: c - 1}, Competitions: 1}
}

type sinkRecorder struct {
	mu      sync.Mutex
	results []metrics.SiteResult
	sums    []metrics.BatchSummary
}

func (s *sinkRecorder) RecordSiteResult(r metrics.SiteResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *sinkRecorder) RecordBatchSummary(b metrics.BatchSummary) error {
	s.sums = append(s.sums, b)
	return nil
}

type jobRecorder struct {
	jobs []Job
}

func (r *jobRecorder) RecordJob(_ context.Context, _ string, j Job) error {
	r.jobs = append(r.jobs, j)
	return nil
}

type panicMonitor struct {
	panics     atomic.Int32
	exceptions atomic.Int32
}

func (m *panicMonitor) CaptureException(error, map[string]string) { m.exceptions.Add(1) }
func (m *panicMonitor) CapturePanic(any, map[string]string)       { m.panics.Add(1) }
func (m *panicMonitor) Flush(time.Duration) bool                  { return true }

func TestRunIsolatesFailures(t *testing.T) {
	sink := &sinkRecorder{}
	rec := &jobRecorder{}
	mon := &panicMonitor{}
	o := &Orchestrator{
		Workers:   3,
		OutputDir: t.TempDir(),
		Sink:      sink,
		Recorder:  rec,
		Monitor:   mon,
		Runner: RunnerFunc(func(_ context.Context, req Request) (*model.SiteReport, error) {
			if req.Site == "site05" {
				return nil, errors.New("bad demand file")
			}
			return report(req.Site, 10), nil
		}),
	}
	sum := o.Run(context.Background(), sites(10))

	assert.Equal(t, 10, sum.Total)
	assert.Equal(t, 9, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 0, sum.Skipped)
	assert.NotEmpty(t, sum.RunID)
	require.Len(t, sum.Jobs, 10)
	assert.Equal(t, "site01", sum.Jobs[0].Site)
	assert.Equal(t, "site10", sum.Jobs[9].Site)

	failed, ok := sum.Job("site05")
	require.True(t, ok)
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, "bad demand file", failed.ErrMessage())
	for _, j := range sum.Jobs {
		assert.True(t, j.Status.Terminal())
	}

	assert.Len(t, sink.results, 10)
	assert.Len(t, sink.sums, 1)
	assert.Equal(t, 9, sink.sums[0].Succeeded)
	assert.Len(t, rec.jobs, 10)
	assert.Equal(t, int32(1), mon.exceptions.Load())
	assert.Equal(t, 9, sum.Capacity.N)
	assert.Equal(t, 10.0, sum.Capacity.Mean)
}

func TestRunRecoversPanics(t *testing.T) {
	mon := &panicMonitor{}
	o := &Orchestrator{
		Workers: 2,
		Monitor: mon,
		Runner: RunnerFunc(func(_ context.Context, req Request) (*model.SiteReport, error) {
			if req.Site == "site02" {
				panic("boom")
			}
			return report(req.Site, 5), nil
		}),
	}
	sum := o.Run(context.Background(), sites(3))
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	j, _ := sum.Job("site02")
	assert.Contains(t, j.ErrMessage(), "boom")
	assert.Equal(t, int32(1), mon.panics.Load())
}

func TestRunSkipsExistingResults(t *testing.T) {
	out := t.TempDir()
	var calls atomic.Int32
	runner := RunnerFunc(func(_ context.Context, req Request) (*model.SiteReport, error) {
		calls.Add(1)
		dir := filepath.Join(out, req.Site)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		return report(req.Site, 3), os.WriteFile(filepath.Join(dir, ResultFile), []byte("x"), 0o644)
	})
	o := &Orchestrator{OutputDir: out, SkipExisting: true, Runner: runner}

	first := o.Run(context.Background(), sites(4))
	assert.Equal(t, 4, first.Succeeded)
	assert.Equal(t, int32(4), calls.Load())

	second := o.Run(context.Background(), sites(4))
	assert.Equal(t, 4, second.Skipped)
	assert.Equal(t, 0, second.Succeeded)
	assert.Equal(t, int32(4), calls.Load())
	j, _ := second.Job("site01")
	assert.Equal(t, "results already exist", j.Message)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunHonoursKnownCapacity(t *testing.T) {
	c := 7.5
	var got *float64
	o := &Orchestrator{Runner: RunnerFunc(func(_ context.Context, req Request) (*model.SiteReport, error) {
		got = req.FirmCapacity
		return report(req.Site, *req.FirmCapacity), nil
	})}
	sum := o.Run(context.Background(), []Request{{Site: "a", FirmCapacity: &c}, {Site: "a"}})
	require.NotNil(t, got)
	assert.Equal(t, 7.5, *got)
	assert.Equal(t, 1, sum.Total)
}

func TestRunRejectsPathSiteNames(t *testing.T) {
	var calls atomic.Int32
	o := &Orchestrator{
		OutputDir:    t.TempDir(),
		SkipExisting: true,
		Runner: RunnerFunc(func(_ context.Context, req Request) (*model.SiteReport, error) {
			calls.Add(1)
			return report(req.Site, 1), nil
		}),
	}
	sum := o.Run(context.Background(), []Request{{Site: "../up"}, {Site: "ok"}, {Site: ".."}})
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, int32(1), calls.Load())
	for _, j := range sum.Jobs {
		if j.Site != "ok" {
			var ie *model.InputError
			assert.True(t, errors.As(j.Err, &ie), j.Site)
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	o := &Orchestrator{Runner: RunnerFunc(func(context.Context, Request) (*model.SiteReport, error) {
		calls.Add(1)
		return nil, nil
	})}
	sum := o.Run(ctx, sites(2))
	assert.Equal(t, 2, sum.Failed)
	assert.Zero(t, calls.Load())
}

func TestRunPublishesEvents(t *testing.T) {
	bus := eventbus.NewTyped[Event]()
	ch := bus.SubscribeSize(16)
	o := &Orchestrator{Events: bus, Runner: RunnerFunc(func(_ context.Context, req Request) (*model.SiteReport, error) {
		return report(req.Site, 1), nil
	})}
	o.Run(context.Background(), sites(3))
	bus.Close()
	var last Event
	n := 0
	for e := range ch {
		n++
		last = e
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, last.Completed)
	assert.Equal(t, 3, last.Total)
}

func TestJobTransitions(t *testing.T) {
	j := newJob(Request{Site: "a"})
	require.NoError(t, j.transition(StatusRunning))
	assert.ErrorIs(t, j.transition(StatusSkipped), ErrInvalidTransition)
	require.NoError(t, j.transition(StatusSuccess))
	assert.ErrorIs(t, j.transition(StatusError), ErrInvalidTransition)
	assert.Equal(t, StatusSuccess, j.Status)

	k := newJob(Request{Site: "b"})
	assert.ErrorIs(t, k.transition(StatusSuccess), ErrInvalidTransition)
	require.NoError(t, k.skip("done"))
	assert.True(t, k.Status.Terminal())
}
