package extraction

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
)

// API is the part of the extraction service client the poller depends on.
type API interface {
	Start(ctx context.Context, sourceURL string) (string, error)
	Status(ctx context.Context, jobID string) (*api.ExtractionJob, *api.RawExtraction, error)
}

// Poller drives an extraction job to completion by polling its status at a
// fixed, lightly jittered interval. The remote job needs warm-up time after
// acceptance, so the first poll only happens after a short grace period.
type Poller struct {
	client      API
	gracePeriod time.Duration
	interval    time.Duration
	maxAttempts int
}

var _ Transport = (*Poller)(nil)

func NewPoller(client API, gracePeriod, interval time.Duration, maxAttempts int) *Poller {
	return &Poller{
		client:      client,
		gracePeriod: gracePeriod,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

func (p *Poller) Start(ctx context.Context, sourceURL string) (string, error) {
	return p.client.Start(ctx, sourceURL)
}

// Await polls the job until it completes, fails remotely, or the attempt
// bound is exhausted. A missing job fails immediately since it cannot
// reappear. Cancelling ctx stops polling between attempts.
func (p *Poller) Await(ctx context.Context, jobID string) (*api.RawExtraction, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.gracePeriod):
	}

	ticker := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: 100 * time.Millisecond})
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		job, payload, err := p.client.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}

		zap.S().Named("poller").Debugw("extraction status",
			"job_id", jobID, "attempt", attempt, "status", job.Status, "progress", job.Progress)

		switch job.Status {
		case api.JobStatusCompleted:
			return payload, nil
		case api.JobStatusError:
			message := job.Error
			if message == "" {
				message = job.Message
			}
			return nil, NewErrRemoteExtraction(jobID, message)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, NewErrTimeout(jobID, p.maxAttempts)
}
