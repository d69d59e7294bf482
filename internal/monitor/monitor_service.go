package monitor

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var errClientNotInitialized = errors.New("client was not initialized")

type MonitorServiceInterface interface {
	Start(opts MetricOptions) error
	GetMetricHTTPHandler() (http.Handler, error)
	MonitorHTTPRequestDuration(duration time.Duration, labels HTTPRequestLabels) error
	MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) error
	MonitorCounters(tag MetricTag, labels map[string]string) error
	MonitorHistogram(value float64, tag MetricTag, labels map[string]string) error
}

var _ MonitorServiceInterface = (*MonitorService)(nil)

// MonitorService forwards metrics to the client chosen in Start. Every call fails until Start succeeds.
type MonitorService struct {
	monitorClient MonitorClient
}

func (m *MonitorService) Start(opts MetricOptions) error {
	if m.monitorClient != nil {
		return errors.New("service already initialized")
	}

	monitorClient, err := GetClient(opts)
	if err != nil {
		return fmt.Errorf("error creating monitor client: %w", err)
	}
	m.monitorClient = monitorClient
	return nil
}

func (m *MonitorService) client() (MonitorClient, error) {
	if m.monitorClient == nil {
		return nil, errClientNotInitialized
	}
	return m.monitorClient, nil
}

func (m *MonitorService) GetMetricHTTPHandler() (http.Handler, error) {
	c, err := m.client()
	if err != nil {
		return nil, err
	}
	return c.GetMetricHTTPHandler(), nil
}

func (m *MonitorService) MonitorHTTPRequestDuration(duration time.Duration, labels HTTPRequestLabels) error {
	c, err := m.client()
	if err != nil {
		return err
	}
	c.MonitorHTTPRequestDuration(duration, labels)
	return nil
}

func (m *MonitorService) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) error {
	c, err := m.client()
	if err != nil {
		return err
	}
	c.MonitorDBQueryDuration(duration, tag, labels)
	return nil
}

func (m *MonitorService) MonitorCounters(tag MetricTag, labels map[string]string) error {
	c, err := m.client()
	if err != nil {
		return err
	}
	c.MonitorCounters(tag, labels)
	return nil
}

func (m *MonitorService) MonitorHistogram(value float64, tag MetricTag, labels map[string]string) error {
	c, err := m.client()
	if err != nil {
		return err
	}
	c.MonitorHistogram(value, tag, labels)
	return nil
}
