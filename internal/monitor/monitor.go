// Package monitor records service metrics: HTTP and DB latencies, intake session and submission counts, and calls made
// to a remote customer records API.
package monitor

import (
	"fmt"
	"net/http"
	"strings"
)

type MetricType string

const MetricTypePrometheus MetricType = "PROMETHEUS"

func ParseMetricType(s string) (MetricType, error) {
	mType := MetricType(strings.ToUpper(s))
	if mType != MetricTypePrometheus {
		return "", fmt.Errorf("invalid metric type %q", string(mType))
	}
	return mType, nil
}

type MetricOptions struct {
	MetricType  MetricType
	Environment string
}

func GetClient(opts MetricOptions) (MonitorClient, error) {
	switch opts.MetricType {
	case MetricTypePrometheus:
		return NewPrometheusClient()
	default:
		return nil, fmt.Errorf("unknown metric type: %q", opts.MetricType)
	}
}

// ParseHTTPResponseStatus returns the status and status code labels of an outgoing request. Transport failures have
// no response and are labelled "error" with code "0".
func ParseHTTPResponseStatus(resp *http.Response, reqErr error) (status, statusCode string) {
	if reqErr != nil || resp == nil {
		return "error", "0"
	}
	return "success", fmt.Sprint(resp.StatusCode)
}
