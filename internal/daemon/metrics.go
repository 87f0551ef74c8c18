package daemon

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
)

// Metrics exposes daemon build counters via a dedicated Prometheus registry.
type Metrics struct {
	registry *prom.Registry

	buildsTotal        prom.Counter
	buildsFailedTotal  prom.Counter
	buildsSkippedTotal prom.Counter
	buildDuration      prom.Histogram

	lastBuildPublished prom.Gauge
	lastBuildFailed    prom.Gauge
}

// NewMetrics creates and registers the daemon's metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		buildsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "blogbuilder", Name: "builds_total", Help: "Total builds processed by the daemon"}),
		buildsFailedTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "blogbuilder", Name: "builds_failed_total", Help: "Builds with at least one failed document"}),
		buildsSkippedTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "blogbuilder", Name: "builds_skipped_total", Help: "Builds skipped because content was unchanged"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "blogbuilder", Name: "build_duration_seconds", Help: "Build wall time",
			Buckets: prom.DefBuckets}),
		lastBuildPublished: prom.NewGauge(prom.GaugeOpts{
			Namespace: "blogbuilder", Name: "last_build_published_pages", Help: "Pages published in the most recent build"}),
		lastBuildFailed: prom.NewGauge(prom.GaugeOpts{
			Namespace: "blogbuilder", Name: "last_build_failed_documents", Help: "Documents failed in the most recent build"}),
	}

	m.registry.MustRegister(
		m.buildsTotal, m.buildsFailedTotal, m.buildsSkippedTotal,
		m.buildDuration, m.lastBuildPublished, m.lastBuildFailed,
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveBuild records one build result.
func (m *Metrics) ObserveBuild(result *build.Result) {
	m.buildsTotal.Inc()
	if result.Skipped {
		m.buildsSkippedTotal.Inc()
		return
	}
	m.buildDuration.Observe(result.Duration.Seconds())
	m.lastBuildPublished.Set(float64(result.Published))
	m.lastBuildFailed.Set(float64(len(result.Failures)))
	if len(result.Failures) > 0 {
		m.buildsFailedTotal.Inc()
	}
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
