// Package crashtracker reports errors the service could not handle. Reports carry the request id and route of the
// request that produced them so they can be matched with the request logs.
package crashtracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stellar/go-stellar-sdk/support/log"
)

type CrashTrackerClient interface {
	LogAndReportErrors(ctx context.Context, err error, msg string)
	FlushEvents(waitTime time.Duration) bool
	Recover()
}

type CrashTrackerType string

const (
	CrashTrackerTypeSentry CrashTrackerType = "SENTRY"
	// CrashTrackerTypeDryRun only logs. Used in development.
	CrashTrackerTypeDryRun CrashTrackerType = "DRY_RUN"
)

func ParseCrashTrackerType(s string) (CrashTrackerType, error) {
	ctType := CrashTrackerType(strings.ToUpper(s))
	switch ctType {
	case CrashTrackerTypeSentry, CrashTrackerTypeDryRun:
		return ctType, nil
	default:
		return "", fmt.Errorf("invalid crash tracker type %q", string(ctType))
	}
}

type CrashTrackerOptions struct {
	CrashTrackerType CrashTrackerType
	Environment      string
	Version          string
	GitCommit        string
	SentryDSN        string
}

// release names the build in reports, e.g. "customer-intake@1.0.0+abc123".
func (o CrashTrackerOptions) release() string {
	release := "customer-intake"
	if o.Version != "" {
		release += "@" + o.Version
	}
	if o.GitCommit != "" {
		release += "+" + o.GitCommit
	}
	return release
}

func GetClient(ctx context.Context, opts CrashTrackerOptions) (CrashTrackerClient, error) {
	switch opts.CrashTrackerType {
	case CrashTrackerTypeSentry:
		log.Ctx(ctx).Infof("Using %q crash tracker", opts.CrashTrackerType)
		return NewSentryClient(opts)
	case CrashTrackerTypeDryRun:
		log.Ctx(ctx).Warnf("Using %q crash tracker", opts.CrashTrackerType)
		return &dryRunClient{}, nil
	default:
		return nil, fmt.Errorf("unknown crash tracker type: %q", opts.CrashTrackerType)
	}
}

// reportTags collects the request attributes attached to every report.
func reportTags(ctx context.Context) map[string]string {
	tags := map[string]string{}
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		tags["request_id"] = reqID
	}
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			tags["route"] = pattern
		}
	}
	return tags
}

func withMessage(err error, msg string) error {
	if msg == "" {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
