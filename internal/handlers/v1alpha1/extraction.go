package v1alpha1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
	"github.com/conciergo/onboarding-gateway/internal/aggregate"
	"github.com/conciergo/onboarding-gateway/internal/dispatch"
	"github.com/conciergo/onboarding-gateway/internal/extraction"
	"github.com/conciergo/onboarding-gateway/internal/handlers/validator"
	"github.com/conciergo/onboarding-gateway/internal/service"
)

type ExtractionHandler struct {
	extractionSrv *service.ExtractionService
}

func NewExtractionHandler(extractionService *service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionSrv: extractionService}
}

func (h *ExtractionHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/v1/extractions", h.CreateExtraction)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// (POST /api/v1/extractions)
func (h *ExtractionHandler) CreateExtraction(w http.ResponseWriter, r *http.Request) {
	var form api.ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		renderError(w, r, service.NewErrInvalidInput("malformed request body"))
		return
	}

	v := validator.NewValidator()
	v.Register(validator.NewExtractionValidationRules()...)
	if err := v.Struct(form); err != nil {
		renderError(w, r, service.NewErrInvalidInput("invalid request: %s", err.Error()))
		return
	}

	result, err := h.extractionSrv.Run(r.Context(), service.ExtractionForm{
		URL:            form.URL,
		ConciergerieID: form.ConciergerieID,
		UserID:         form.UserID,
		LogementID:     form.LogementID,
		TestMode:       form.IsTestMode != nil && *form.IsTestMode,
		Parcours:       api.StringToParcoursType(form.ParcoursType),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, api.ExtractionReply{
		Success:      true,
		ExtractionID: result.ExtractionID,
		ParcoursType: result.Parcours,
		Message:      "property extracted and dispatched",
		Data:         result.Model,
	})
}

// renderError maps internal error kinds to HTTP statuses. User-visible
// messages summarize the failure class in plain language; raw upstream text
// stays in the logs.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var message string

	switch err.(type) {
	case *service.ErrInvalidInput:
		status = http.StatusBadRequest
		message = err.Error()
	case *extraction.ErrTimeout:
		status = http.StatusGatewayTimeout
		message = "the extraction took too long, please retry"
	case *extraction.ErrRemoteExtraction, *extraction.ErrJobGone:
		status = http.StatusBadGateway
		message = "the extraction service could not process this listing"
	case *extraction.ErrRemoteUnavailable:
		status = http.StatusServiceUnavailable
		message = "the extraction service is unavailable, please retry later"
	case *aggregate.ErrIncompleteExtraction:
		status = http.StatusInternalServerError
		message = "the extraction finished but returned no usable data"
	case *dispatch.ErrDispatchFailed:
		status = http.StatusInternalServerError
		message = "the property could not be sent to the workflow backend"
	default:
		status = http.StatusInternalServerError
		message = "unexpected internal error"
	}

	if status >= 500 {
		zap.S().Named("handler").Errorw("extraction request failed", "status", status, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, api.ErrorReply{Success: false, Error: message})
}
