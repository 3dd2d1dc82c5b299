package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Service   *svcConfig
	Extractor *extractorConfig
	Workflow  *workflowConfig
}

type svcConfig struct {
	Address        string `envconfig:"ONBOARDING_GATEWAY_ADDRESS" default:":8080"`
	MetricsAddress string `envconfig:"ONBOARDING_GATEWAY_METRICS_ADDRESS" default:":8081"`
	LogLevel       string `envconfig:"ONBOARDING_GATEWAY_LOG_LEVEL" default:"info"`
	EventTopic     string `envconfig:"ONBOARDING_GATEWAY_EVENT_TOPIC" default:""`
}

type extractorConfig struct {
	BaseURL          string        `envconfig:"EXTRACTOR_BASE_URL" default:"http://localhost:8001"`
	Transport        string        `envconfig:"EXTRACTOR_TRANSPORT" default:"poll"`
	GracePeriod      time.Duration `envconfig:"EXTRACTOR_GRACE_PERIOD" default:"5s"`
	PollInterval     time.Duration `envconfig:"EXTRACTOR_POLL_INTERVAL" default:"3s"`
	MaxPollAttempts  int           `envconfig:"EXTRACTOR_MAX_POLL_ATTEMPTS" default:"60"`
	StreamTimeout    time.Duration `envconfig:"EXTRACTOR_STREAM_TIMEOUT" default:"5m"`
	StreamUserType   string        `envconfig:"EXTRACTOR_STREAM_USER_TYPE" default:"conciergerie"`
	StreamDelay      time.Duration `envconfig:"EXTRACTOR_STREAM_DELAY" default:"0"`
	PhotoParallelism int           `envconfig:"EXTRACTOR_PHOTO_PARALLELISM" default:"4"`
}

type workflowConfig struct {
	ProductionURL string `envconfig:"WORKFLOW_WEBHOOK_URL" default:"http://localhost:9090/webhook"`
	TestURL       string `envconfig:"WORKFLOW_WEBHOOK_TEST_URL" default:"http://localhost:9090/webhook-test"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
