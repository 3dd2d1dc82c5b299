package service

import (
	"context"

	"go.uber.org/zap"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
	"github.com/conciergo/onboarding-gateway/internal/aggregate"
	"github.com/conciergo/onboarding-gateway/internal/dispatch"
	"github.com/conciergo/onboarding-gateway/internal/events"
	"github.com/conciergo/onboarding-gateway/internal/extraction"
	"github.com/conciergo/onboarding-gateway/pkg/metrics"
)

// ExtractionForm is the validated input of one onboarding extraction.
type ExtractionForm struct {
	URL            string
	ConciergerieID string
	UserID         string
	LogementID     string
	TestMode       bool
	Parcours       api.ParcoursType
}

// ExtractionResult is handed back to the handler on success.
type ExtractionResult struct {
	ExtractionID string
	LogementID   string
	Parcours     api.ParcoursType
	Model        *api.PropertyModel
}

// ExtractionService runs the whole onboarding flow: start the remote job,
// wait for its payload, aggregate it into a property model and dispatch the
// model downstream. Each call owns its own job id and wait loop, so
// concurrent extractions do not interfere.
type ExtractionService struct {
	transport  extraction.Transport
	aggregator *aggregate.Aggregator
	dispatcher *dispatch.Dispatcher
	events     *events.EventProducer
}

func NewExtractionService(
	transport extraction.Transport,
	aggregator *aggregate.Aggregator,
	dispatcher *dispatch.Dispatcher,
	eventProducer *events.EventProducer,
) *ExtractionService {
	return &ExtractionService{
		transport:  transport,
		aggregator: aggregator,
		dispatcher: dispatcher,
		events:     eventProducer,
	}
}

func (s *ExtractionService) Run(ctx context.Context, form ExtractionForm) (*ExtractionResult, error) {
	logger := zap.S().Named("extraction_service")
	metrics.IncExtractionStarted()

	jobID, err := s.transport.Start(ctx, form.URL)
	if err != nil {
		logger.Errorw("failed to start extraction", "url", form.URL, "stage", "start", "error", err)
		s.emitFailed(ctx, "", "start", err)
		metrics.IncExtractionFailed("start")
		return nil, err
	}

	logger.Infow("extraction started", "job_id", jobID, "url", form.URL)
	s.events.WriteExtractionStarted(ctx, jobID, form.URL)

	raw, err := s.transport.Await(ctx, jobID)
	if err != nil {
		logger.Errorw("extraction did not complete", "job_id", jobID, "stage", "await", "error", err)
		s.emitFailed(ctx, jobID, "await", err)
		metrics.IncExtractionFailed("await")
		return nil, err
	}

	model, err := s.aggregator.Aggregate(ctx, raw, form.Parcours)
	if err != nil {
		logger.Errorw("aggregation failed", "job_id", jobID, "stage", "aggregate", "error", err)
		s.emitFailed(ctx, jobID, "aggregate", err)
		metrics.IncExtractionFailed("aggregate")
		return nil, err
	}

	logger.Infow("property model built",
		"job_id", jobID, "rooms", model.RoomCount, "tasks", model.TaskCount, "photos", model.PhotoCount)

	result, err := s.dispatcher.Dispatch(ctx, model, dispatch.RoutingContext{
		ConciergerieID: form.ConciergerieID,
		UserID:         form.UserID,
		LogementID:     form.LogementID,
		TestMode:       form.TestMode,
	})
	if err != nil {
		logger.Errorw("dispatch failed", "job_id", jobID, "stage", "dispatch", "error", err)
		s.emitFailed(ctx, jobID, "dispatch", err)
		metrics.IncExtractionFailed("dispatch")
		return nil, err
	}

	s.events.WriteExtractionCompleted(ctx, jobID, result.LogementID)
	metrics.IncExtractionCompleted()

	return &ExtractionResult{
		ExtractionID: jobID,
		LogementID:   result.LogementID,
		Parcours:     form.Parcours,
		Model:        model,
	}, nil
}

func (s *ExtractionService) emitFailed(ctx context.Context, jobID, stage string, err error) {
	s.events.WriteExtractionFailed(ctx, jobID, stage, err.Error())
}
