// Package extraction talks to the external scraping microservice that
// extracts room and photo data from a listing page. It offers two
// behaviorally equivalent transports: a polling client and a streaming one.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
)

const defaultRequestTimeout = 30 * time.Second

type startRequest struct {
	URL                 string `json:"url"`
	AutoDetectAI        bool   `json:"auto_detect_ai"`
	Method              string `json:"method"`
	UseAIClassification bool   `json:"use_ai_classification"`
}

type startReply struct {
	ExtractionID string `json:"extraction_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

type statusReply struct {
	ExtractionID string             `json:"extraction_id"`
	Status       string             `json:"status"`
	Progress     int                `json:"progress"`
	Message      string             `json:"message"`
	Error        string             `json:"error,omitempty"`
	Data         *api.RawExtraction `json:"data,omitempty"`
}

// Client is the HTTP client of the extraction service.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Start asks the remote service to begin extracting the given listing URL
// and returns the opaque job id.
func (c *Client) Start(ctx context.Context, sourceURL string) (string, error) {
	body, err := json.Marshal(startRequest{
		URL:                 sourceURL,
		AutoDetectAI:        true,
		Method:              "auto",
		UseAIClassification: true,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshaling extract request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building extract request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", NewErrRemoteUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", NewErrRemoteUnavailable(fmt.Errorf("extract returned status %d", resp.StatusCode))
	}

	var reply startReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", NewErrRemoteUnavailable(errors.Wrap(err, "decoding extract reply"))
	}
	if reply.ExtractionID == "" {
		return "", NewErrRemoteUnavailable(errors.New("extract reply carries no extraction id"))
	}

	return reply.ExtractionID, nil
}

// Status fetches the current state of a job. The payload is non-nil only
// when the job completed.
func (c *Client) Status(ctx context.Context, jobID string) (*api.ExtractionJob, *api.RawExtraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+jobID, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building status request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, NewErrRemoteUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, NewErrJobGone(jobID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, NewErrRemoteUnavailable(fmt.Errorf("status returned status %d", resp.StatusCode))
	}

	var reply statusReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, nil, NewErrRemoteUnavailable(errors.Wrap(err, "decoding status reply"))
	}

	job := &api.ExtractionJob{
		ID:       reply.ExtractionID,
		Status:   api.StringToJobStatus(reply.Status),
		Progress: reply.Progress,
		Message:  reply.Message,
		Error:    reply.Error,
	}
	if job.ID == "" {
		job.ID = jobID
	}

	return job, reply.Data, nil
}
