package monitor

import (
	"net/http"
	"time"
)

// MonitorClient is implemented by each metrics backend.
type MonitorClient interface {
	GetMetricHTTPHandler() http.Handler
	MonitorHTTPRequestDuration(duration time.Duration, labels HTTPRequestLabels)
	MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels)
	MonitorCounters(tag MetricTag, labels map[string]string)
	MonitorHistogram(value float64, tag MetricTag, labels map[string]string)
}
