package cmd

import (
	"context"
	"errors"

	"github.com/kilianp07/firmflex/config"
	"github.com/kilianp07/firmflex/core/analysis"
	"github.com/kilianp07/firmflex/core/batch"
	"github.com/kilianp07/firmflex/core/logger"
	coremetrics "github.com/kilianp07/firmflex/core/metrics"
	coremon "github.com/kilianp07/firmflex/core/monitoring"
	"github.com/kilianp07/firmflex/core/schema"
	"github.com/kilianp07/firmflex/infra/joblog"
	inmetrics "github.com/kilianp07/firmflex/infra/metrics"
	inmon "github.com/kilianp07/firmflex/infra/monitoring"
	"github.com/kilianp07/firmflex/infra/plot"
	"github.com/kilianp07/firmflex/internal/eventbus"
)

// runtime holds the collaborators shared by the analyze and batch commands.
type runtime struct {
	cfg     *config.Config
	log     logger.Logger
	sink    coremetrics.Sink
	monitor coremon.Monitor
	store   joblog.Store
	events  *eventbus.TypedBus[batch.Event]
	closers []func() error
}

func newRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, log: log, events: eventbus.NewTyped[batch.Event]()}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	rt.sink = sink
	rt.closers = append(rt.closers, sinkClosers(sink)...)
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := inmetrics.StartPromServer(ctx, addr); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	mon, err := inmon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		log.Warnf("sentry disabled: %v", err)
		mon = coremon.NopMonitor{}
	}
	rt.monitor = mon

	store, err := joblog.New(cfg.JobLog)
	if err != nil {
		return nil, err
	}
	rt.store = store
	rt.closers = append(rt.closers, store.Close)
	return rt, nil
}

func sinkClosers(s coremetrics.Sink) []func() error {
	switch v := s.(type) {
	case *coremetrics.MultiSink:
		var out []func() error
		for _, inner := range v.Sinks {
			out = append(out, sinkClosers(inner)...)
		}
		return out
	case interface{ Close() }:
		return []func() error{func() error { v.Close(); return nil }}
	}
	return nil
}

func (rt *runtime) Close() error {
	rt.events.Close()
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (rt *runtime) pipeline(src analysis.Source) (*analysis.Pipeline, error) {
	cfg := rt.cfg
	opts, err := cfg.Competitions.Options()
	if err != nil {
		return nil, err
	}
	p := &analysis.Pipeline{
		Source: src,
		Log:    rt.log,
		Options: analysis.Options{
			OutputDir:          cfg.Output.BaseDir,
			TargetMWh:          cfg.FirmCapacity.TargetMWh,
			ToleranceFraction:  cfg.FirmCapacity.Tolerance,
			MaxIterations:      cfg.FirmCapacity.MaxIterations,
			TargetYear:         cfg.Input.TargetYear,
			MonthOffset:        cfg.Input.MonthOffset,
			Competitions:       cfg.Competitions.Enabled,
			CompetitionOptions: opts,
		},
	}
	if cfg.Output.PlotsEnabled() {
		p.Renderer = plot.NewRenderer()
	}
	if path := cfg.Competitions.SchemaPath; path != "" && cfg.Competitions.Enabled {
		v, err := schema.Load(path, rt.log)
		if err != nil {
			rt.log.Warnf("schema validation skipped: %v", err)
		} else {
			p.Validator = v
		}
	}
	return p, nil
}

func (rt *runtime) orchestrator(runner batch.Runner, workers int, skip bool) *batch.Orchestrator {
	return &batch.Orchestrator{
		Workers:      workers,
		SkipExisting: skip,
		OutputDir:    rt.cfg.Output.BaseDir,
		Runner:       runner,
		Log:          rt.log,
		Sink:         rt.sink,
		Monitor:      rt.monitor,
		Recorder:     joblog.Recorder{Store: rt.store, OutputDir: rt.cfg.Output.BaseDir},
		Events:       rt.events,
	}
}

// watch logs progress events until the bus closes.
func (rt *runtime) watch() {
	ch := rt.events.SubscribeSize(64)
	go func() {
		for e := range ch {
			rt.log.Debugw("job finished", map[string]any{
				"run_id":    e.RunID,
				"site":      e.Job.Site,
				"status":    string(e.Job.Status),
				"completed": e.Completed,
				"total":     e.Total,
			})
		}
	}()
}
