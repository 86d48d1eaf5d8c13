package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/firmflex/core/metrics"
	"github.com/kilianp07/firmflex/infra/logger"
)

// InfluxSink writes site results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing database never stops a
// batch.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordSiteResult writes one site_result point.
func (s *InfluxSink) RecordSiteResult(res coremetrics.SiteResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("site_result").
		AddTag("site", res.Site).
		AddTag("status", res.Status).
		AddTag("run_id", res.RunID).
		AddField("firm_capacity_mw", round3(res.FirmCapacityMW)).
		AddField("plain_capacity_mw", round3(res.PlainCapacity)).
		AddField("energy_above_mwh", round3(res.EnergyAboveMWh)).
		AddField("competitions", res.Competitions).
		AddField("windows", res.Windows).
		AddField("duration_s", round3(res.Duration.Seconds())).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBatchSummary writes one batch_summary point.
func (s *InfluxSink) RecordBatchSummary(sum coremetrics.BatchSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("batch_summary").
		AddTag("run_id", sum.RunID).
		AddField("total", sum.Total).
		AddField("succeeded", sum.Succeeded).
		AddField("failed", sum.Failed).
		AddField("skipped", sum.Skipped).
		AddField("elapsed_s", round3(sum.Elapsed.Seconds())).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
