package metrics

import "github.com/prometheus/client_golang/prometheus"

// SubmissionMetrics exposes counters/histograms for the lead fan-out.
type SubmissionMetrics struct {
	submissionsTotal *prometheus.CounterVec
	sinkTotal        *prometheus.CounterVec
	sinkLatency      *prometheus.HistogramVec
}

func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	m := &SubmissionMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "renovation",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions by form source and result",
		}, []string{"form_source", "result"}),
		sinkTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "renovation",
			Subsystem: "leads",
			Name:      "sink_writes_total",
			Help:      "Lead sink writes by sink and status",
		}, []string{"sink", "status"}),
		sinkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "renovation",
			Subsystem: "leads",
			Name:      "sink_latency_seconds",
			Help:      "Latency of lead sink writes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sinkTotal, m.sinkLatency)
	return m
}

// ObserveSubmission counts a handled submission; result is one of
// "success", "validation_error" or "failed".
func (m *SubmissionMetrics) ObserveSubmission(formSource, result string) {
	if m == nil {
		return
	}
	if formSource == "" {
		formSource = "unknown"
	}
	m.submissionsTotal.WithLabelValues(formSource, result).Inc()
}

func (m *SubmissionMetrics) ObserveSink(sink string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "error"
	if ok {
		status = "ok"
	}
	m.sinkTotal.WithLabelValues(sink, status).Inc()
	m.sinkLatency.WithLabelValues(sink).Observe(seconds)
}
