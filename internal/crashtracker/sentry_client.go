package crashtracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stellar/go-stellar-sdk/support/log"
)

// sentryHub is the part of *sentry.Hub the client uses.
type sentryHub interface {
	CaptureException(exception error) *sentry.EventID
	Flush(timeout time.Duration) bool
	Recover(err interface{}) *sentry.EventID
	WithScope(f func(scope *sentry.Scope))
}

var _ sentryHub = (*sentry.Hub)(nil)

type sentryClient struct {
	hub sentryHub
}

// LogAndReportErrors logs err and sends it to Sentry tagged with the request attributes found in ctx. Canceled
// requests are only logged.
func (c *sentryClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	if errors.Is(err, context.Canceled) {
		log.Ctx(ctx).Warn("context canceled, not reporting error to sentry")
		return
	}

	err = withMessage(err, msg)
	log.Ctx(ctx).WithStack(err).Errorf("%+v", err)

	tags := reportTags(ctx)
	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		c.hub.CaptureException(err)
	})
}

func (c *sentryClient) FlushEvents(waitTime time.Duration) bool {
	return c.hub.Flush(waitTime)
}

// Recover reports a panic in progress. It must be deferred.
func (c *sentryClient) Recover() {
	if err := recover(); err != nil {
		c.hub.Recover(err)
	}
}

func NewSentryClient(opts CrashTrackerOptions) (*sentryClient, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.SentryDSN,
		Release:          opts.release(),
		Environment:      opts.Environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error setting up Sentry: %w", err)
	}

	return &sentryClient{hub: sentry.CurrentHub()}, nil
}

var _ CrashTrackerClient = (*sentryClient)(nil)
