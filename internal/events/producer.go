// Package events publishes onboarding lifecycle events to a pluggable
// writer without blocking the extraction flow.
package events

import (
	"context"
	"encoding/json"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	ExtractionStartedKind   string = "conciergo.onboarding.events.extraction_started"
	ExtractionCompletedKind string = "conciergo.onboarding.events.extraction_completed"
	ExtractionFailedKind    string = "conciergo.onboarding.events.extraction_failed"

	eventSource  string = "conciergo.onboarding.gateway"
	defaultTopic string = "conciergo.onboarding.events"
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// EventProducer buffers pending events so the caller is never blocked by a
// slow writer.
type EventProducer struct {
	buffer           *buffer
	startConsumingCh chan any
	doneCh           chan any
	writer           Writer
	topic            string
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:           newBuffer(),
		startConsumingCh: make(chan any, 1),
		doneCh:           make(chan any),
		writer:           w,
		topic:            defaultTopic,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

func (ep *EventProducer) WriteExtractionStarted(ctx context.Context, extractionID, sourceURL string) {
	ep.write(ExtractionStartedKind, ExtractionStartedEvent{ExtractionID: extractionID, SourceURL: sourceURL})
}

func (ep *EventProducer) WriteExtractionCompleted(ctx context.Context, extractionID, logementID string) {
	ep.write(ExtractionCompletedKind, ExtractionCompletedEvent{ExtractionID: extractionID, LogementID: logementID})
}

func (ep *EventProducer) WriteExtractionFailed(ctx context.Context, extractionID, stage, errorText string) {
	ep.write(ExtractionFailedKind, ExtractionFailedEvent{ExtractionID: extractionID, Stage: stage, Error: errorText})
}

func (ep *EventProducer) write(kind string, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		zap.S().Named("event_producer").Errorw("failed to marshal event", "kind", kind, "error", err)
		return
	}

	prevSize := ep.buffer.Size()
	ep.buffer.PushBack(&message{Kind: kind, Data: data})

	if prevSize == 0 {
		// unblock the consumer and start sending messages
		select {
		case ep.startConsumingCh <- struct{}{}:
		default:
		}
	}
}

func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		ep.doneCh <- struct{}{}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	for {
		select {
		case <-ep.doneCh:
			return
		default:
		}

		if ep.buffer.Size() == 0 {
			select {
			case <-ep.startConsumingCh:
			case <-ep.doneCh:
				return
			}
		}

		msg := ep.buffer.Pop()
		if msg == nil {
			continue
		}

		e := cloudevents.NewEvent()
		e.SetID(uuid.NewString())
		e.SetSource(eventSource)
		e.SetType(msg.Kind)
		_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ep.writer.Write(writeCtx, ep.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to write event", "kind", msg.Kind, "error", err)
		}
		cancel()
	}
}
