package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	onboardingGateway = "onboarding_gateway"

	extractionsStartedTotal   = "extractions_started_total"
	extractionsCompletedTotal = "extractions_completed_total"
	extractionsFailedTotal    = "extractions_failed_total"

	// Labels
	failureStageLabel = "stage"
)

var extractionsFailedLabels = []string{
	failureStageLabel,
}

/**
* Metrics definition
**/
var extractionsStartedMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: onboardingGateway,
		Name:      extractionsStartedTotal,
		Help:      "number of extraction requests accepted",
	},
)

var extractionsCompletedMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: onboardingGateway,
		Name:      extractionsCompletedTotal,
		Help:      "number of extractions dispatched downstream",
	},
)

var extractionsFailedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: onboardingGateway,
		Name:      extractionsFailedTotal,
		Help:      "number of failed extractions partitioned by pipeline stage",
	},
	extractionsFailedLabels,
)

func IncExtractionStarted() {
	extractionsStartedMetric.Inc()
}

func IncExtractionCompleted() {
	extractionsCompletedMetric.Inc()
}

func IncExtractionFailed(stage string) {
	extractionsFailedMetric.With(prometheus.Labels{failureStageLabel: stage}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(extractionsStartedMetric)
	prometheus.MustRegister(extractionsCompletedMetric)
	prometheus.MustRegister(extractionsFailedMetric)
}
