// Package batch runs the per-site analysis for many sites on a bounded
// worker pool. A failing site never stops the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/metrics"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/monitoring"
	"github.com/kilianp07/firmflex/internal/eventbus"
)

// DefaultWorkers bounds concurrency when Workers is not set.
const DefaultWorkers = 8

// ResultFile marks a site whose analysis already completed.
const ResultFile = "firm_capacity_results.csv"

const monitorFlushTimeout = 2 * time.Second

// JobRecorder persists terminal jobs.
type JobRecorder interface {
	RecordJob(ctx context.Context, runID string, job Job) error
}

// Event is published each time a job reaches a terminal state.
type Event struct {
	RunID     string
	Job       Job
	Completed int
	Total     int
}

// Orchestrator fans site requests out to Runner. Every collaborator except
// Runner is optional.
type Orchestrator struct {
	Workers      int
	SkipExisting bool
	OutputDir    string
	Runner       Runner
	Log          logger.Logger
	Sink         metrics.Sink
	Monitor      monitoring.Monitor
	Recorder     JobRecorder
	Events       *eventbus.TypedBus[Event]
}

// Run processes every request and returns once all jobs are terminal.
// Requests for the same site after the first are ignored.
func (o *Orchestrator) Run(ctx context.Context, reqs []Request) Summary {
	log := logger.OrNop(o.Log)
	runID := uuid.NewString()
	start := time.Now()
	reqs = lo.UniqBy(reqs, func(r Request) string { return r.Site })
	total := len(reqs)
	workers := o.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log.Infof("batch %s: %d sites, %d workers", runID, total, workers)

	jobs := make(map[string]Job, total)
	completed := 0
	var queue []Request
	for _, r := range reqs {
		job := newJob(r)
		if o.SkipExisting && o.hasResults(r.Site) {
			if err := job.skip("results already exist"); err != nil {
				log.Errorf("skip %s: %v", r.Site, err)
			}
			jobs[r.Site] = job
			completed++
			log.Infof("skipping %s: results already exist", r.Site)
			o.finish(ctx, runID, job, completed, total, log)
			continue
		}
		jobs[r.Site] = job
		queue = append(queue, r)
	}

	results := make(chan Job)
	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for _, r := range queue {
			g.Go(func() error {
				results <- o.runOne(ctx, r, log)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for job := range results {
		jobs[job.Site] = job
		completed++
		o.finish(ctx, runID, job, completed, total, log)
	}

	sum := summarize(runID, lo.Values(jobs), time.Since(start))
	log.Infof("batch %s done in %s: %d succeeded, %d failed, %d skipped",
		runID, sum.Elapsed.Round(time.Millisecond), sum.Succeeded, sum.Failed, sum.Skipped)
	if rec, ok := o.Sink.(metrics.SummaryRecorder); ok {
		if err := rec.RecordBatchSummary(sum.Metrics()); err != nil {
			log.Warnf("record batch summary: %v", err)
		}
	}
	monitoring.OrNop(o.Monitor).Flush(monitorFlushTimeout)
	return sum
}

func (o *Orchestrator) hasResults(site string) bool {
	if model.CheckSiteName(site) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(o.OutputDir, site, ResultFile))
	return err == nil
}

func (o *Orchestrator) runOne(ctx context.Context, req Request, log logger.Logger) (job Job) {
	job = newJob(req)
	mon := monitoring.OrNop(o.Monitor)
	tags := map[string]string{"site": req.Site}
	if err := job.transition(StatusRunning); err != nil {
		job.Err = err
		return job
	}
	job.StartedAt = time.Now()
	defer func() {
		if r := recover(); r != nil {
			mon.CapturePanic(r, tags)
			job.fail(fmt.Errorf("panic: %v", r))
		}
		job.Duration = time.Since(job.StartedAt)
	}()

	if err := ctx.Err(); err != nil {
		job.fail(err)
		return job
	}
	if o.Runner == nil {
		job.fail(errors.New("no runner configured"))
		return job
	}
	if err := model.CheckSiteName(req.Site); err != nil {
		log.Errorf("%s failed: %v", req.Site, err)
		job.fail(err)
		return job
	}
	report, err := o.Runner.Run(ctx, req)
	if err != nil {
		log.Errorf("%s failed: %v", req.Site, err)
		mon.CaptureException(err, tags)
		job.fail(err)
		return job
	}
	job.succeed(report)
	return job
}

func (o *Orchestrator) finish(ctx context.Context, runID string, job Job, completed, total int, log logger.Logger) {
	switch job.Status {
	case StatusSuccess:
		c, _ := job.Capacity()
		log.Infof("%s: %.2f MW - success", job.Site, c)
	case StatusError:
		log.Errorf("%s: failed: %s", job.Site, job.ErrMessage())
	}
	log.Infof("progress: %d/%d sites processed", completed, total)

	if o.Sink != nil {
		if err := o.Sink.RecordSiteResult(siteResult(runID, job)); err != nil {
			log.Warnf("record metrics for %s: %v", job.Site, err)
		}
	}
	if o.Recorder != nil {
		if err := o.Recorder.RecordJob(ctx, runID, job); err != nil {
			log.Warnf("record job %s: %v", job.Site, err)
		}
	}
	if o.Events != nil {
		o.Events.Publish(Event{RunID: runID, Job: job, Completed: completed, Total: total})
	}
}

func siteResult(runID string, job Job) metrics.SiteResult {
	res := metrics.SiteResult{
		RunID:    runID,
		Site:     job.Site,
		Status:   string(job.Status),
		Duration: job.Duration,
		Time:     time.Now(),
	}
	if job.Status == StatusSuccess && job.Report != nil {
		res.FirmCapacityMW = job.Report.Stats.CPeakMW
		res.PlainCapacity = job.Report.Stats.CPlainMW
		res.EnergyAboveMWh = job.Report.Stats.EnergyAboveCapacityMWh
		res.Competitions = job.Report.Competitions
		res.Windows = job.Report.Windows
	}
	return res
}

func sortJobs(jobs []Job) {
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Site < jobs[k].Site })
}
