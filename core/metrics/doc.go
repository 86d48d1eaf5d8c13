// Package metrics defines the sinks batch runs report to. A Sink records one
// SiteResult per finished site job; sinks that also implement
// SummaryRecorder receive the batch summary. Concrete sinks (Prometheus,
// InfluxDB) live in infra/metrics and register themselves by name so a
// configuration can list several of them, in which case NewSink returns a
// MultiSink.
package metrics
