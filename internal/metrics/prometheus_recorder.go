package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "commentlink"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	linkResults   *prom.CounterVec
	fileOutcomes  *prom.CounterVec
	fileDuration  prom.Histogram
	batchDuration prom.Histogram
	cacheLookups  *prom.CounterVec
	events        *prom.CounterVec
	watchedDirs   prom.Gauge
}

// NewPrometheusRecorder constructs metrics and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		linkResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "link_results_total",
			Help:      "Resolved comment links by status and strategy",
		}, []string{"status", "strategy"}),
		fileOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Source files processed by outcome",
		}, []string{"outcome"}),
		fileDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "file_scan_duration_seconds",
			Help:      "Time to resolve all links in one file",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		batchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of a full workspace scan",
			Buckets:   prom.DefBuckets,
		}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fs_cache_lookups_total",
			Help:      "Filesystem cache lookups by result",
		}, []string{"result"}),
		events: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Unresolved link events published by result",
		}, []string{"result"}),
		watchedDirs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "watched_directories",
			Help:      "Directories currently watched for changes",
		}),
	}
	reg.MustRegister(pr.linkResults, pr.fileOutcomes, pr.fileDuration, pr.batchDuration, pr.cacheLookups, pr.events, pr.watchedDirs)
	return pr
}

func (p *PrometheusRecorder) IncLinkResult(status, strategy string) {
	if p == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	p.linkResults.WithLabelValues(status, strategy).Inc()
}

func (p *PrometheusRecorder) IncFileOutcome(outcome FileOutcome) {
	if p == nil {
		return
	}
	p.fileOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveFileDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.fileDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBatchDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.batchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil {
		return
	}
	p.cacheLookups.WithLabelValues(label(hit, "hit", "miss")).Inc()
}

func (p *PrometheusRecorder) IncEventPublished(success bool) {
	if p == nil {
		return
	}
	p.events.WithLabelValues(label(success, "success", "failed")).Inc()
}

func (p *PrometheusRecorder) SetWatchedDirectories(n int) {
	if p == nil {
		return
	}
	p.watchedDirs.Set(float64(n))
}

func label(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
