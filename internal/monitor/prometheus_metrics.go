package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "intake"

func PrometheusMetrics() map[MetricTag]prometheus.Collector {
	metrics := make(map[MetricTag]prometheus.Collector)

	for tag, summaryVec := range SummaryVecMetrics {
		metrics[tag] = summaryVec
	}

	for tag, counter := range CounterMetrics {
		metrics[tag] = counter
	}

	for tag, histogramVec := range HistogramVecMetrics {
		metrics[tag] = histogramVec
	}

	for tag, counterVec := range CounterVecMetrics {
		metrics[tag] = counterVec
	}

	return metrics
}

var SummaryVecMetrics = map[MetricTag]*prometheus.SummaryVec{
	HTTPRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: namespace, Subsystem: "http", Name: string(HTTPRequestDurationTag),
		Help: "HTTP requests durations, sliding window = 10m",
	},
		[]string{"status", "route", "method"},
	),
	SuccessfulQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: namespace, Subsystem: "db", Name: string(SuccessfulQueryDurationTag),
		Help: "Successful DB query durations",
	},
		[]string{"query_type"},
	),
	FailureQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: namespace, Subsystem: "db", Name: string(FailureQueryDurationTag),
		Help: "Failure DB query durations",
	},
		[]string{"query_type"},
	),
}

var CounterMetrics = map[MetricTag]prometheus.Counter{}

var HistogramVecMetrics = map[MetricTag]*prometheus.HistogramVec{
	CustomerAPIRequestDurationTag: prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "customer_api", Name: string(CustomerAPIRequestDurationTag),
		Help: "A histogram of the customer API request durations",
	},
		CustomerAPILabelNames,
	),
}

var CounterVecMetrics = map[MetricTag]*prometheus.CounterVec{
	IntakeSessionsCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "business", Name: string(IntakeSessionsCounterTag),
		Help: "Intake sessions started",
	},
		IntakeSessionLabelNames,
	),
	IntakeSubmissionsCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "business", Name: string(IntakeSubmissionsCounterTag),
		Help: "Intake submissions by operation and outcome",
	},
		SubmissionLabelNames,
	),
	CustomerAPIRequestsTotalTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "customer_api", Name: string(CustomerAPIRequestsTotalTag),
		Help: "A counter of the customer API requests",
	},
		CustomerAPILabelNames,
	),
}
