package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/conciergo/onboarding-gateway/internal/aggregate"
	"github.com/conciergo/onboarding-gateway/internal/config"
	"github.com/conciergo/onboarding-gateway/internal/dispatch"
	"github.com/conciergo/onboarding-gateway/internal/events"
	"github.com/conciergo/onboarding-gateway/internal/extraction"
	handlers "github.com/conciergo/onboarding-gateway/internal/handlers/v1alpha1"
	"github.com/conciergo/onboarding-gateway/internal/service"
	"github.com/conciergo/onboarding-gateway/pkg/metrics"
	"github.com/conciergo/onboarding-gateway/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	listener net.Listener
}

// New returns a new instance of the onboarding gateway server.
func New(cfg *config.Config, listener net.Listener) *Server {
	return &Server{
		cfg:      cfg,
		listener: listener,
	}
}

// newTransport picks the extraction transport from configuration. Polling is
// the default; the streaming variant is behaviorally equivalent.
func newTransport(cfg *config.Config) extraction.Transport {
	client := extraction.NewClient(cfg.Extractor.BaseURL)

	if cfg.Extractor.Transport == "stream" {
		return extraction.NewStreamTransport(client, cfg.Extractor.StreamTimeout, cfg.Extractor.StreamUserType, cfg.Extractor.StreamDelay)
	}
	return extraction.NewPoller(client, cfg.Extractor.GracePeriod, cfg.Extractor.PollInterval, cfg.Extractor.MaxPollAttempts)
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	producerOpts := []events.ProducerOptions{}
	if s.cfg.Service.EventTopic != "" {
		producerOpts = append(producerOpts, events.WithOutputTopic(s.cfg.Service.EventTopic))
	}
	eventProducer := events.NewEventProducer(&events.StdoutWriter{}, producerOpts...)
	defer func() {
		if err := eventProducer.Close(); err != nil {
			zap.S().Named("api_server").Warnw("failed to close event producer", "error", err)
		}
	}()

	extractionService := service.NewExtractionService(
		newTransport(s.cfg),
		aggregate.New(aggregate.NewPhotoFetcher(s.cfg.Extractor.PhotoParallelism)),
		dispatch.New(s.cfg.Workflow.ProductionURL, s.cfg.Workflow.TestURL),
		eventProducer,
	)

	h := handlers.NewExtractionHandler(extractionService)
	h.RegisterRoutes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
