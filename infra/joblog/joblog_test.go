package joblog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/firmflex/config"
	"github.com/kilianp07/firmflex/core/batch"
)

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jobs.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()
	capA := 12.5
	require.NoError(t, store.Append(ctx, Record{Timestamp: now, RunID: "r1", Site: "A", Status: "success", FirmCapacityMW: &capA}))
	require.NoError(t, store.Append(ctx, Record{Timestamp: now.Add(time.Second), RunID: "r1", Site: "B", Status: "error", Error: "no data"}))

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].FirmCapacityMW)
	assert.Equal(t, 12.5, *all[0].FirmCapacityMW)

	failed, err := store.Query(ctx, Query{Status: "error"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "no data", failed[0].Error)

	late, err := store.Query(ctx, Query{Start: now.Add(500 * time.Millisecond)})
	require.NoError(t, err)
	assert.Len(t, late, 1)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := Record{Timestamp: time.Now(), Site: "S", Status: "error", Error: strings.Repeat("x", 4096)}
	for i := 0; i < 400; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	backups, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "jobs-*.jsonl"))
	if len(backups) == 0 {
		t.Fatalf("expected rotated files")
	}
	out, err := store.Query(context.Background(), Query{Site: "S"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected records")
	}
}

func TestNew(t *testing.T) {
	s, err := New(config.JobLogConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = New(config.JobLogConfig{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "a.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	_, err = New(config.JobLogConfig{Backend: "sqlite"})
	assert.Error(t, err)
}

func TestRecorderFromJob(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "jobs.jsonl"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	c := 4.25
	r := Recorder{Store: store, OutputDir: "out"}
	ctx := context.Background()
	require.NoError(t, r.RecordJob(ctx, "run", batch.Job{Site: "A", Status: batch.StatusSuccess, FirmCapacity: &c, Duration: 1500 * time.Millisecond}))
	require.NoError(t, r.RecordJob(ctx, "run", batch.Job{Site: "B", Status: batch.StatusError, Err: errors.New("boom")}))

	recs, err := store.Query(ctx, Query{RunID: "run"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, filepath.Join("out", "A"), recs[0].OutputDir)
	assert.InDelta(t, 1.5, recs[0].DurationSeconds, 1e-9)
	require.NotNil(t, recs[0].FirmCapacityMW)
	assert.Equal(t, "boom", recs[1].Error)
	assert.Nil(t, recs[1].FirmCapacityMW)
	assert.Empty(t, recs[1].OutputDir)
}
