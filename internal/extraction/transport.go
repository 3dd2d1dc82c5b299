package extraction

import (
	"context"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
)

// Transport is one way of running an extraction job to completion. The
// polling and streaming variants are behaviorally equivalent; everything
// downstream of the raw payload is transport-agnostic.
type Transport interface {
	// Start begins a remote extraction and returns the opaque job id.
	Start(ctx context.Context, sourceURL string) (string, error)
	// Await blocks until the job reaches a terminal state and returns the
	// raw payload. Cancelling ctx stops all remote activity promptly.
	Await(ctx context.Context, jobID string) (*api.RawExtraction, error)
}
