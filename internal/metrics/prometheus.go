package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	loads        *prom.CounterVec
	loadDuration *prom.HistogramVec
	retries      *prom.CounterVec
	commits      *prom.CounterVec
}

// NewPrometheusRecorder builds the collectors and registers them on reg. A nil
// registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		loads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statekit",
			Name:      "loads_total",
			Help:      "Finished store loads by outcome",
		}, []string{"store", "outcome"}),
		loadDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "statekit",
			Name:      "load_duration_seconds",
			Help:      "Wall time of store loads including retries",
			Buckets:   prom.DefBuckets,
		}, []string{"store"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statekit",
			Name:      "retries_total",
			Help:      "Retry attempts scheduled after a failed load attempt",
		}, []string{"store"}),
		commits: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statekit",
			Name:      "commits_total",
			Help:      "Pending mutations committed into store state",
		}, []string{"store"}),
	}
	reg.MustRegister(pr.loads, pr.loadDuration, pr.retries, pr.commits)
	return pr
}

func (p *PrometheusRecorder) IncLoad(store string, outcome Outcome) {
	if p == nil {
		return
	}
	p.loads.WithLabelValues(store, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveLoadDuration(store string, d time.Duration) {
	if p == nil {
		return
	}
	p.loadDuration.WithLabelValues(store).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRetry(store string) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(store).Inc()
}

func (p *PrometheusRecorder) IncCommit(store string) {
	if p == nil {
		return
	}
	p.commits.WithLabelValues(store).Inc()
}

// HTTPHandler serves the metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
