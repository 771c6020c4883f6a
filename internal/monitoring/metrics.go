package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

// TraceMetrics exports tracing engine events as Prometheus metrics. It
// satisfies trace.Observer.
type TraceMetrics struct {
	BranchesCreated prometheus.Counter
	BranchesHalted  *prometheus.CounterVec
	AreasCommitted  *prometheus.CounterVec
	Splits          *prometheus.CounterVec
	BranchLength    prometheus.Histogram
	CurrentDepth    prometheus.Gauge
	ActiveBranches  prometheus.Gauge
}

// NewTraceMetrics creates the metrics and registers them with reg. A nil
// reg uses the default registerer.
func NewTraceMetrics(reg prometheus.Registerer) *TraceMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &TraceMetrics{
		BranchesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "vesseltrace_branches_created_total",
			Help: "Branches created by seeding or splitting",
		}),
		BranchesHalted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vesseltrace_branches_halted_total",
			Help: "Branches halted, by outcome (kept or deleted as too short)",
		}, []string{"outcome"}),
		AreasCommitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vesseltrace_areas_committed_total",
			Help: "Cross-sections committed, by kind (grown or predicted)",
		}, []string{"kind"}),
		Splits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vesseltrace_splits_total",
			Help: "Split events, by result (triggered, confirmed, rejected)",
		}, []string{"result"}),
		BranchLength: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vesseltrace_branch_length",
			Help:    "Length of halted branches in slices",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8), // 5 to 640 slices
		}),
		CurrentDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "vesseltrace_current_depth",
			Help: "Depth the scheduler last completed",
		}),
		ActiveBranches: f.NewGauge(prometheus.GaugeOpts{
			Name: "vesseltrace_active_branches",
			Help: "Branches still being explored",
		}),
	}
}

func (m *TraceMetrics) BranchCreated(_, _ registry.BranchID, _ int) {
	m.BranchesCreated.Inc()
}

func (m *TraceMetrics) BranchHalted(_ registry.BranchID, length int, deleted bool) {
	outcome := "kept"
	if deleted {
		outcome = "deleted"
	}
	m.BranchesHalted.WithLabelValues(outcome).Inc()
	m.BranchLength.Observe(float64(length))
}

func (m *TraceMetrics) AreaCommitted(_ registry.BranchID, _ int, predicted bool) {
	kind := "grown"
	if predicted {
		kind = "predicted"
	}
	m.AreasCommitted.WithLabelValues(kind).Inc()
}

func (m *TraceMetrics) SplitTriggered(_, _ registry.BranchID, _ int) {
	m.Splits.WithLabelValues("triggered").Inc()
}

func (m *TraceMetrics) SplitResolved(_, _ registry.BranchID, confirmed bool) {
	result := "rejected"
	if confirmed {
		result = "confirmed"
	}
	m.Splits.WithLabelValues(result).Inc()
}

func (m *TraceMetrics) DepthCompleted(depth, active int) {
	m.CurrentDepth.Set(float64(depth))
	m.ActiveBranches.Set(float64(active))
}
