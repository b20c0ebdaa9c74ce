package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"Omnitrade/internal/domain/models"
)

// Recorder implements repository.Metrics with Prometheus.
type Recorder struct {
	cycles      prometheus.Counter
	cycleTime   prometheus.Histogram
	health      prometheus.Gauge
	mode        *prometheus.GaugeVec
	actions     *prometheus.CounterVec
	activations *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
}

var modes = []models.Mode{models.ModeFull, models.ModeReduced, models.ModeDefensive, models.ModeStop}

// New registers the governance collectors on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: "omnitrade",
			Name:      "governance_cycles_total",
			Help:      "Completed governance cycles",
		}),
		cycleTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "omnitrade",
			Name:      "governance_cycle_duration_seconds",
			Help:      "Duration of one scan-evaluate-score cycle",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
		health: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "omnitrade",
			Name:      "health_score",
			Help:      "Latest system health score (0-100)",
		}),
		mode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "omnitrade",
			Name:      "governance_mode",
			Help:      "1 for the current governance mode, 0 otherwise",
		}, []string{"mode"}),
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omnitrade",
			Name:      "bot_actions_total",
			Help:      "Actions emitted by the trigger evaluator",
		}, []string{"bot", "status"}),
		activations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omnitrade",
			Name:      "bot_activations_total",
			Help:      "Bot initialize requests that succeeded",
		}, []string{"bot_id"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omnitrade",
			Name:      "errors_total",
			Help:      "Errors by kind",
		}, []string{"kind"}),
	}
}

func (r *Recorder) RecordCycle(seconds float64) {
	r.cycles.Inc()
	r.cycleTime.Observe(seconds)
}

func (r *Recorder) RecordHealth(health int, mode models.Mode) {
	r.health.Set(float64(health))
	for _, m := range modes {
		v := 0.0
		if m == mode {
			v = 1
		}
		r.mode.WithLabelValues(string(m)).Set(v)
	}
}

func (r *Recorder) RecordAction(bot string, status models.ActionStatus) {
	r.actions.WithLabelValues(bot, string(status)).Inc()
}

func (r *Recorder) RecordActivation(botID string) {
	r.activations.WithLabelValues(botID).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCycle(float64)                      {}
func (Nop) RecordHealth(int, models.Mode)            {}
func (Nop) RecordAction(string, models.ActionStatus) {}
func (Nop) RecordActivation(string)                  {}
func (Nop) RecordError(string)                       {}
