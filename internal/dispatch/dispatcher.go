// Package dispatch sends the normalized property model to the downstream
// no-code workflow endpoint.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
)

const defaultRequestTimeout = 30 * time.Second

// ErrDispatchFailed means the downstream webhook rejected the call. The
// dispatcher never retries by itself; callers may, using the same logement
// id to stay idempotent downstream.
type ErrDispatchFailed struct {
	error
	StatusCode int
}

func NewErrDispatchFailed(statusCode int) *ErrDispatchFailed {
	return &ErrDispatchFailed{
		error:      fmt.Errorf("workflow webhook rejected dispatch with status %d", statusCode),
		StatusCode: statusCode,
	}
}

// RoutingContext carries the identifiers of one dispatch. TestMode is an
// explicit flag, never inferred from the model itself.
type RoutingContext struct {
	ConciergerieID string
	UserID         string
	LogementID     string
	TestMode       bool
}

// Result reports where a dispatch went.
type Result struct {
	LogementID string
	Endpoint   string
}

type payload struct {
	ConciergerieID string             `json:"conciergerieID"`
	UserID         string             `json:"userID"`
	LogementID     string             `json:"logementID"`
	Property       *api.PropertyModel `json:"property"`
}

// Dispatcher posts property models to one of two webhook endpoints chosen by
// the routing context's test flag. Exactly one outbound call per invocation.
type Dispatcher struct {
	productionURL string
	testURL       string
	client        *http.Client
}

func New(productionURL, testURL string) *Dispatcher {
	return &Dispatcher{
		productionURL: productionURL,
		testURL:       testURL,
		client:        &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, model *api.PropertyModel, routing RoutingContext) (*Result, error) {
	endpoint := d.productionURL
	if routing.TestMode {
		endpoint = d.testURL
	}

	logementID := routing.LogementID
	if logementID == "" {
		logementID = uuid.NewString()
	}

	body, err := json.Marshal(payload{
		ConciergerieID: routing.ConciergerieID,
		UserID:         routing.UserID,
		LogementID:     logementID,
		Property:       model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling dispatch payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building dispatch request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling workflow webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewErrDispatchFailed(resp.StatusCode)
	}

	zap.S().Named("dispatch").Infow("property model dispatched",
		"logement_id", logementID, "test_mode", routing.TestMode, "rooms", model.RoomCount)

	return &Result{LogementID: logementID, Endpoint: endpoint}, nil
}
