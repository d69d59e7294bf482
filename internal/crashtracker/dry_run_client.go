package crashtracker

import (
	"context"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
)

type dryRunClient struct{}

func (c *dryRunClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	l := log.Ctx(ctx)
	for k, v := range reportTags(ctx) {
		l = l.WithField(k, v)
	}
	l.Errorf("[DRY_RUN crash tracker] %+v", withMessage(err, msg))
}

func (c *dryRunClient) FlushEvents(time.Duration) bool {
	return false
}

func (c *dryRunClient) Recover() {}

var _ CrashTrackerClient = (*dryRunClient)(nil)
