// Package joblog keeps one JSON line per finished batch job so failures
// can be inspected after a run.
package joblog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/firmflex/config"
)

// Record captures one terminal site job.
type Record struct {
	Timestamp       time.Time `json:"timestamp"`
	RunID           string    `json:"run_id"`
	Site            string    `json:"site"`
	Status          string    `json:"status"`
	FirmCapacityMW  *float64  `json:"firm_capacity_mw,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	Error           string    `json:"error,omitempty"`
	OutputDir       string    `json:"output_dir,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start  time.Time
	End    time.Time
	RunID  string
	Site   string
	Status string
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.Site != "" && r.Site != q.Site {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }

// New opens the store selected by cfg.
func New(cfg config.JobLogConfig) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "rotating":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	default:
		return nil, fmt.Errorf("unknown job log backend %s", cfg.Backend)
	}
}
