package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/firmflex/core/metrics"
)

// PromSink exposes batch results as Prometheus metrics.
type PromSink struct {
	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	capacity *prometheus.GaugeVec
	lastRun  *prometheus.GaugeVec
}

// NewPromSink registers metrics on the default Prometheus registerer. The
// HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firmflex_site_jobs_total",
		Help: "Site jobs finished, by terminal status",
	}, []string{"status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "firmflex_site_duration_seconds",
		Help:    "Wall time spent on a site job",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"status"})
	capacity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "firmflex_firm_capacity_mw",
		Help: "Firm capacity of the last successful run per site",
	}, []string{"site"})
	lastRun := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "firmflex_batch_sites",
		Help: "Sites in the last batch run, by outcome",
	}, []string{"outcome"})

	var err error
	if jobs, err = register(reg, jobs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if capacity, err = register(reg, capacity); err != nil {
		return nil, err
	}
	if lastRun, err = register(reg, lastRun); err != nil {
		return nil, err
	}
	return &PromSink{jobs: jobs, duration: duration, capacity: capacity, lastRun: lastRun}, nil
}

// register reuses a collector that is already registered under the same
// descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSiteResult counts the job and records its duration and capacity.
func (s *PromSink) RecordSiteResult(res coremetrics.SiteResult) error {
	s.jobs.WithLabelValues(res.Status).Inc()
	s.duration.WithLabelValues(res.Status).Observe(res.Duration.Seconds())
	if res.Status == "success" {
		s.capacity.WithLabelValues(res.Site).Set(res.FirmCapacityMW)
	}
	return nil
}

// RecordBatchSummary sets the per-outcome gauges of the last run.
func (s *PromSink) RecordBatchSummary(sum coremetrics.BatchSummary) error {
	s.lastRun.WithLabelValues("total").Set(float64(sum.Total))
	s.lastRun.WithLabelValues("success").Set(float64(sum.Succeeded))
	s.lastRun.WithLabelValues("error").Set(float64(sum.Failed))
	s.lastRun.WithLabelValues("skipped").Set(float64(sum.Skipped))
	return nil
}
