package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts domain events. A nil *Metrics records nothing.
type Metrics struct {
	filesUploaded  *prometheus.CounterVec
	rowsImported   prometheus.Counter
	importFailures *prometheus.CounterVec
}

// NewMetrics creates the domain counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		filesUploaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "files_uploaded_total",
				Help: "Total number of files stored, by category.",
			},
			[]string{"category"},
		),
		rowsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitoring_rows_imported_total",
			Help: "Total number of monitoring rows committed by spreadsheet imports.",
		}),
		importFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitoring_import_failures_total",
				Help: "Total number of failed spreadsheet imports, by status code.",
			},
			[]string{"code"},
		),
	}

	for _, c := range []prometheus.Collector{m.filesUploaded, m.rowsImported, m.importFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) fileUploaded(category string) {
	if m == nil {
		return
	}
	m.filesUploaded.WithLabelValues(category).Inc()
}

func (m *Metrics) rowsCommitted(n int) {
	if m == nil {
		return
	}
	m.rowsImported.Add(float64(n))
}

func (m *Metrics) importFailed(code string) {
	if m == nil {
		return
	}
	m.importFailures.WithLabelValues(code).Inc()
}
