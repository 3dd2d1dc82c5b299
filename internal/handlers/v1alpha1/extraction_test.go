package v1alpha1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
	"github.com/conciergo/onboarding-gateway/internal/aggregate"
	"github.com/conciergo/onboarding-gateway/internal/dispatch"
	"github.com/conciergo/onboarding-gateway/internal/events"
	"github.com/conciergo/onboarding-gateway/internal/extraction"
	"github.com/conciergo/onboarding-gateway/internal/service"
)

type stubTransport struct {
	payload  *api.RawExtraction
	startErr error
	awaitErr error
}

func (s *stubTransport) Start(ctx context.Context, sourceURL string) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}
	return "job-1", nil
}

func (s *stubTransport) Await(ctx context.Context, jobID string) (*api.RawExtraction, error) {
	if s.awaitErr != nil {
		return nil, s.awaitErr
	}
	return s.payload, nil
}

func newTestRouter(t *testing.T, transport extraction.Transport) (*chi.Mux, *httptest.Server) {
	t.Helper()

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(webhook.Close)

	producer := events.NewEventProducer(&events.StdoutWriter{})
	t.Cleanup(func() { _ = producer.Close() })

	srv := service.NewExtractionService(
		transport,
		aggregate.New(aggregate.NewPhotoFetcher(1)),
		dispatch.New(webhook.URL, webhook.URL),
		producer,
	)

	router := chi.NewRouter()
	NewExtractionHandler(srv).RegisterRoutes(router)
	return router, webhook
}

func postExtraction(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func validRequest() map[string]any {
	return map[string]any{
		"url":            "https://www.airbnb.fr/rooms/42",
		"conciergerieID": "c-1",
		"userID":         "u-1",
		"isTestMode":     true,
	}
}

func TestCreateExtractionSuccess(t *testing.T) {
	transport := &stubTransport{payload: &api.RawExtraction{
		PropertyInfo: api.RawPropertyInfo{Title: "Villa des Pins"},
		Rooms:        map[string][]api.PhotoRef{"Chambre": nil},
	}}
	router, _ := newTestRouter(t, transport)

	recorder := postExtraction(t, router, validRequest())
	require.Equal(t, http.StatusOK, recorder.Code)

	var reply api.ExtractionReply
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &reply))
	assert.True(t, reply.Success)
	assert.Equal(t, "job-1", reply.ExtractionID)
	assert.Equal(t, api.ParcoursMenage, reply.ParcoursType)
	require.NotNil(t, reply.Data)
	assert.Equal(t, 1, reply.Data.RoomCount)
}

func TestCreateExtractionValidation(t *testing.T) {
	router, _ := newTestRouter(t, &stubTransport{})

	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{name: "missing url", mutate: func(m map[string]any) { delete(m, "url") }},
		{name: "unrecognized marketplace", mutate: func(m map[string]any) { m["url"] = "https://example.com/x" }},
		{name: "missing conciergerie id", mutate: func(m map[string]any) { delete(m, "conciergerieID") }},
		{name: "missing user id", mutate: func(m map[string]any) { delete(m, "userID") }},
		{name: "missing test mode", mutate: func(m map[string]any) { delete(m, "isTestMode") }},
		{name: "bad parcours type", mutate: func(m map[string]any) { m["parcoursType"] = "express" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validRequest()
			tt.mutate(body)

			recorder := postExtraction(t, router, body)
			require.Equal(t, http.StatusBadRequest, recorder.Code)

			var reply api.ErrorReply
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &reply))
			assert.False(t, reply.Success)
			assert.NotEmpty(t, reply.Error)
		})
	}
}

func TestCreateExtractionErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		transport  *stubTransport
		wantStatus int
	}{
		{
			name:       "poll timeout maps to 504",
			transport:  &stubTransport{awaitErr: extraction.NewErrTimeout("job-1", 60)},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "remote extraction failure maps to 502",
			transport:  &stubTransport{awaitErr: extraction.NewErrRemoteExtraction("job-1", "blocked")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "remote unavailable maps to 503",
			transport:  &stubTransport{startErr: extraction.NewErrRemoteUnavailable(context.DeadlineExceeded)},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "incomplete payload maps to 500",
			transport:  &stubTransport{payload: nil},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.transport)
			recorder := postExtraction(t, router, validRequest())
			require.Equal(t, tt.wantStatus, recorder.Code)

			var reply api.ErrorReply
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &reply))
			assert.False(t, reply.Success)
			// user-visible messages are plain language, not raw upstream text
			assert.NotContains(t, reply.Error, "blocked")
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubTransport{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
}
