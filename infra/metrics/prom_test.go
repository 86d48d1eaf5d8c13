package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/firmflex/core/metrics"
)

func TestPromSink_RecordSiteResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	results := []coremetrics.SiteResult{
		{Site: "A", Status: "success", FirmCapacityMW: 12.5, Duration: 2 * time.Second},
		{Site: "B", Status: "error", Duration: time.Second},
		{Site: "C", Status: "success", FirmCapacityMW: 8, Duration: time.Second},
	}
	for _, r := range results {
		if err := sink.RecordSiteResult(r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	expected := `
# HELP firmflex_site_jobs_total Site jobs finished, by terminal status
# TYPE firmflex_site_jobs_total counter
firmflex_site_jobs_total{status="error"} 1
firmflex_site_jobs_total{status="success"} 2
`
	if err := testutil.CollectAndCompare(sink.jobs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.capacity.WithLabelValues("A")); v != 12.5 {
		t.Errorf("capacity gauge = %v", v)
	}
	if c := testutil.CollectAndCount(sink.capacity); c != 2 {
		t.Errorf("expected 2 capacity series, got %d", c)
	}
	if c := testutil.CollectAndCount(sink.duration); c != 2 {
		t.Errorf("expected 2 duration series, got %d", c)
	}
}

func TestPromSink_RecordBatchSummary(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordBatchSummary(coremetrics.BatchSummary{Total: 10, Succeeded: 8, Failed: 1, Skipped: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if v := testutil.ToFloat64(sink.lastRun.WithLabelValues("success")); v != 8 {
		t.Errorf("success gauge = %v", v)
	}
	if v := testutil.ToFloat64(sink.lastRun.WithLabelValues("total")); v != 10 {
		t.Errorf("total gauge = %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	s1, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	s2, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = s1.RecordSiteResult(coremetrics.SiteResult{Site: "A", Status: "skipped"})
	if v := testutil.ToFloat64(s2.jobs.WithLabelValues("skipped")); v != 1 {
		t.Errorf("collectors not shared, got %v", v)
	}
}
