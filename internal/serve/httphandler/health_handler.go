package httphandler

import (
	"context"
	"net/http"
	"sort"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// HealthResponse follows the draft IETF "Health Check Response Format for HTTP APIs".
//
// https://datatracker.ietf.org/doc/html/draft-inadarei-api-health-check-06#name-api-health-response
type HealthResponse struct {
	Status    Status            `json:"status"`
	Version   string            `json:"version,omitempty"`
	ServiceID string            `json:"service_id,omitempty"`
	ReleaseID string            `json:"release_id,omitempty"`
	Services  map[string]Status `json:"services,omitempty"`
}

// HealthCheck probes one dependency. A nil error means it is usable.
type HealthCheck func(ctx context.Context) error

// HealthHandler runs every check on each request. The service fails as soon as one dependency fails, and is then
// answered with 503.
type HealthHandler struct {
	Version   string
	ServiceID string
	ReleaseID string
	Checks    map[string]HealthCheck
}

func (h HealthHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := HealthResponse{
		Status:    StatusPass,
		Version:   h.Version,
		ServiceID: h.ServiceID,
		ReleaseID: h.ReleaseID,
		Services:  make(map[string]Status, len(h.Checks)),
	}

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		resp.Services[name] = StatusPass
		if err := h.Checks[name](ctx); err != nil {
			log.Ctx(ctx).Warnf("health check %s failed: %v", name, err)
			resp.Services[name] = StatusFail
			resp.Status = StatusFail
		}
	}

	status := http.StatusOK
	if resp.Status == StatusFail {
		status = http.StatusServiceUnavailable
	}
	httpjson.RenderStatus(rw, status, resp, httpjson.JSON)
}
