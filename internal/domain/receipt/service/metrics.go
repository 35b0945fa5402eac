package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts batch activity on a private registry. A CLI run has no
// scrape endpoint, so the registry is dumped to a textfile-collector file.
type Metrics struct {
	registry     *prometheus.Registry
	documents    *prometheus.CounterVec
	fieldsAbsent *prometheus.CounterVec
	gapLines     prometheus.Counter
	duration     prometheus.Histogram
}

// NewMetrics registers the receipt collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receipts",
			Name:      "documents_total",
			Help:      "Documents processed, by locale and status.",
		}, []string{"locale", "status"}),
		fieldsAbsent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receipts",
			Name:      "fields_absent_total",
			Help:      "Fields no rule matched, by field.",
		}, []string{"field"}),
		gapLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "receipts",
			Name:      "gap_lines_total",
			Help:      "Unrecognized lines inside the gap region.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "receipts",
			Name:      "document_duration_seconds",
			Help:      "Time to read and extract one document.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.documents, m.fieldsAbsent, m.gapLines, m.duration)
	return m
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(o Outcome) {
	if m == nil {
		return
	}
	status := "ok"
	if o.Err != nil {
		status = "failed"
	}
	m.documents.WithLabelValues(string(o.Locale), status).Inc()
	m.duration.Observe(o.Duration.Seconds())
	if o.Err != nil {
		return
	}
	for _, f := range o.Record.Missing() {
		m.fieldsAbsent.WithLabelValues(f).Inc()
	}
	m.gapLines.Add(float64(len(o.Gaps.Gaps)))
}
