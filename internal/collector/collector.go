package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/conradoqg/maintenance-gate/internal/maintenance"
)

// SnapshotSource is implemented by *maintenance.Resolver.
type SnapshotSource interface {
	Snapshot() maintenance.Snapshot
}

// Exporter reads the resolver's last outcome on every scrape. It never
// triggers a remote fetch itself.
type Exporter struct {
	src SnapshotSource

	enabled     *prometheus.Desc
	cacheAge    *prometheus.Desc
	cacheFresh  *prometheus.Desc
	fetchOK     *prometheus.Desc
	fetchDur    *prometheus.Desc
	fetches     *prometheus.Desc
	resolutions *prometheus.Desc
	remoteInfo  *prometheus.Desc
}

var sources = []maintenance.Source{
	maintenance.SourceCache,
	maintenance.SourceRemote,
	maintenance.SourceLocal,
	maintenance.SourceDefault,
}

func New(src SnapshotSource) *Exporter {
	return &Exporter{
		src: src,
		enabled: prometheus.NewDesc(
			"maintenance_gate_enabled",
			"Last resolved maintenance mode (1=on, 0=off)",
			[]string{"source", "degraded"}, nil,
		),
		cacheAge: prometheus.NewDesc(
			"maintenance_gate_cache_age_seconds",
			"Age of the cached maintenance status",
			nil, nil,
		),
		cacheFresh: prometheus.NewDesc(
			"maintenance_gate_cache_fresh",
			"Whether the cached status is inside its freshness window (1=fresh)",
			nil, nil,
		),
		fetchOK: prometheus.NewDesc(
			"maintenance_gate_remote_fetch_success",
			"Last remote document fetch success (1=ok)",
			[]string{"url"}, nil,
		),
		fetchDur: prometheus.NewDesc(
			"maintenance_gate_remote_fetch_duration_seconds",
			"Duration of the last remote document fetch",
			[]string{"url"}, nil,
		),
		fetches: prometheus.NewDesc(
			"maintenance_gate_remote_fetches_total",
			"Remote document fetches by outcome",
			[]string{"outcome"}, nil,
		),
		resolutions: prometheus.NewDesc(
			"maintenance_gate_resolutions_total",
			"Status resolutions by the source that answered",
			[]string{"source"}, nil,
		),
		remoteInfo: prometheus.NewDesc(
			"maintenance_gate_remote_info",
			"Configured remote document; value is 1 when one is configured",
			[]string{"url"}, nil,
		),
	}
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.enabled
	ch <- e.cacheAge
	ch <- e.cacheFresh
	ch <- e.fetchOK
	ch <- e.fetchDur
	ch <- e.fetches
	ch <- e.resolutions
	ch <- e.remoteInfo
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	snap := e.src.Snapshot()

	remoteConfigured := 0.0
	if snap.RemoteURL != "" {
		remoteConfigured = 1
	}
	ch <- prometheus.MustNewConstMetric(e.remoteInfo, prometheus.GaugeValue, remoteConfigured, snap.RemoteURL)

	for _, s := range sources {
		ch <- prometheus.MustNewConstMetric(e.resolutions, prometheus.CounterValue, float64(snap.Resolutions[s]), string(s))
	}
	ch <- prometheus.MustNewConstMetric(e.fetches, prometheus.CounterValue, float64(snap.FetchOKs), "success")
	ch <- prometheus.MustNewConstMetric(e.fetches, prometheus.CounterValue, float64(snap.FetchFailures), "failure")

	if snap.HasLast {
		degraded := "false"
		if snap.Last.Degraded {
			degraded = "true"
		}
		ch <- prometheus.MustNewConstMetric(e.enabled, prometheus.GaugeValue, boolValue(snap.Last.Enabled), string(snap.Last.Source), degraded)
	}
	if snap.Cached {
		ch <- prometheus.MustNewConstMetric(e.cacheAge, prometheus.GaugeValue, snap.CacheAge.Seconds())
		ch <- prometheus.MustNewConstMetric(e.cacheFresh, prometheus.GaugeValue, boolValue(snap.CacheFresh))
	}
	if snap.FetchAttempted {
		ch <- prometheus.MustNewConstMetric(e.fetchOK, prometheus.GaugeValue, boolValue(snap.FetchOK), snap.RemoteURL)
		ch <- prometheus.MustNewConstMetric(e.fetchDur, prometheus.GaugeValue, snap.FetchDuration.Seconds(), snap.RemoteURL)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
