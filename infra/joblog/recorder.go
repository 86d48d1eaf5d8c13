package joblog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/kilianp07/firmflex/core/batch"
)

// Recorder appends terminal batch jobs to a Store.
type Recorder struct {
	Store     Store
	OutputDir string
}

// FromJob converts a batch job into a Record.
func FromJob(runID string, job batch.Job, outputDir string) Record {
	rec := Record{
		Timestamp:       time.Now().UTC(),
		RunID:           runID,
		Site:            job.Site,
		Status:          string(job.Status),
		DurationSeconds: job.Duration.Seconds(),
		Error:           job.ErrMessage(),
	}
	if c, ok := job.Capacity(); ok {
		rec.FirmCapacityMW = &c
	}
	if job.Status == batch.StatusSuccess && outputDir != "" {
		rec.OutputDir = filepath.Join(outputDir, job.Site)
	}
	return rec
}

// RecordJob implements batch.JobRecorder.
func (r Recorder) RecordJob(ctx context.Context, runID string, job batch.Job) error {
	return r.Store.Append(ctx, FromJob(runID, job, r.OutputDir))
}
