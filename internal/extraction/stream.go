package extraction

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
)

// streamEvent is one newline-delimited JSON event emitted by the streaming
// endpoint, tagged by type.
type streamEvent struct {
	Type         string               `json:"type"`
	Label        string               `json:"label,omitempty"`
	Photos       []api.PhotoRef       `json:"photos,omitempty"`
	Tasks        *api.RawRoomTasks    `json:"tasks,omitempty"`
	PropertyInfo *api.RawPropertyInfo `json:"property_info,omitempty"`
	Stats        *api.RawStats        `json:"stats,omitempty"`
	Message      string               `json:"message,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// StreamTransport consumes the push variant of the extraction service: the
// server emits incremental events over one long-lived connection instead of
// being polled. Partial data accumulates as events arrive; a hard wall-clock
// timeout aborts the connection if no terminal event shows up in time.
type StreamTransport struct {
	client      *Client
	httpClient  *http.Client
	wallTimeout time.Duration
	userType    string
	delay       time.Duration
}

var _ Transport = (*StreamTransport)(nil)

func NewStreamTransport(client *Client, wallTimeout time.Duration, userType string, delay time.Duration) *StreamTransport {
	return &StreamTransport{
		client:      client,
		httpClient:  &http.Client{},
		wallTimeout: wallTimeout,
		userType:    userType,
		delay:       delay,
	}
}

func (s *StreamTransport) Start(ctx context.Context, sourceURL string) (string, error) {
	return s.client.Start(ctx, sourceURL)
}

// Await holds the stream open until a complete or error event arrives.
// Completion, remote error, timeout and caller cancellation all converge on
// the same cleanup: the request context is cancelled and the body closed.
func (s *StreamTransport) Await(ctx context.Context, jobID string) (*api.RawExtraction, error) {
	streamCtx, cancel := context.WithTimeout(ctx, s.wallTimeout)
	defer cancel()

	streamURL := fmt.Sprintf("%s/stream/%s?%s", s.client.baseURL, jobID, url.Values{
		"user_type": []string{s.userType},
		"delay_ms":  []string{strconv.FormatInt(s.delay.Milliseconds(), 10)},
	}.Encode())

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building stream request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewErrRemoteUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewErrJobGone(jobID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewErrRemoteUnavailable(fmt.Errorf("stream returned status %d", resp.StatusCode))
	}

	payload := &api.RawExtraction{
		Rooms: map[string][]api.PhotoRef{},
		Tasks: map[string]api.RawRoomTasks{},
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal(line, &event); err != nil {
			zap.S().Named("stream").Warnw("skipping malformed stream event", "job_id", jobID, "error", err)
			continue
		}

		switch event.Type {
		case "metadata":
			// connection bookkeeping only
		case "property_info":
			if event.PropertyInfo != nil {
				payload.PropertyInfo = *event.PropertyInfo
			}
		case "stats":
			if event.Stats != nil {
				payload.Stats = *event.Stats
			}
		case "room":
			payload.Rooms[event.Label] = append(payload.Rooms[event.Label], event.Photos...)
		case "tasks":
			if event.Tasks != nil {
				payload.Tasks[event.Label] = *event.Tasks
			}
		case "complete":
			return payload, nil
		case "error":
			message := event.Error
			if message == "" {
				message = event.Message
			}
			return nil, NewErrRemoteExtraction(jobID, message)
		default:
			zap.S().Named("stream").Debugw("ignoring unknown stream event", "job_id", jobID, "type", event.Type)
		}
	}

	// The scanner stops either because the connection was aborted or the
	// server closed the stream without a terminal event.
	switch {
	case streamCtx.Err() == context.DeadlineExceeded:
		return nil, NewErrStreamTimeout(jobID)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case scanner.Err() != nil:
		return nil, NewErrRemoteUnavailable(scanner.Err())
	default:
		return nil, NewErrRemoteExtraction(jobID, "stream ended without a terminal event")
	}
}
