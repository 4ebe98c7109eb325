package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	phaseCompleted  *prom.CounterVec
	focusMinutes    prom.Counter
	persistFailures *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		phaseCompleted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "thetool",
			Name:      "phase_completed_total",
			Help:      "Countdown phases ended, by widget, phase and cause",
		}, []string{"widget", "phase", "cause"}),
		focusMinutes: prom.NewCounter(prom.CounterOpts{
			Namespace: "thetool",
			Name:      "focus_minutes_total",
			Help:      "Focus minutes credited by naturally completed pomodoros",
		}),
		persistFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "thetool",
			Name:      "persist_failures_total",
			Help:      "Failed state writes, by widget and store",
		}, []string{"widget", "store"}),
	}
	reg.MustRegister(pr.phaseCompleted, pr.focusMinutes, pr.persistFailures)
	return pr
}

func (pr *PrometheusRecorder) IncPhaseCompleted(widget, phase string, cause Cause) {
	pr.phaseCompleted.WithLabelValues(widget, phase, string(cause)).Inc()
}

func (pr *PrometheusRecorder) AddFocusMinutes(minutes int) {
	if minutes > 0 {
		pr.focusMinutes.Add(float64(minutes))
	}
}

func (pr *PrometheusRecorder) IncPersistFailure(widget, store string) {
	pr.persistFailures.WithLabelValues(widget, store).Inc()
}

// Handler exposes the recorder's registry for scraping.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}
