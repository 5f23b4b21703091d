// Package config resolves the summarizer's process configuration once at
// startup. Values come from the environment (optionally seeded from a .env
// file for local runs) with defaults applied by viper. The resulting Config
// is passed by value into every component constructor.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends selectable via STORAGE_BACKEND.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

const (
	DefaultOutputBucket       = "summaries"
	DefaultMaxPollingAttempts = 20
	DefaultPollingInterval    = 10 * time.Second
	DefaultRequestTimeout     = 30 * time.Second
	DefaultMetricsNamespace   = "TranscriptSummarizer"
)

// Config holds everything the summarizer needs to run an invocation.
type Config struct {
	JobQueue JobQueueConfig
	Storage  StorageConfig

	// RunsTable is the DynamoDB table for the run ledger. Empty disables it.
	RunsTable string
	// SSMAPIKeyParam names an SSM parameter holding the API key, used when
	// API_KEY is unset.
	SSMAPIKeyParam   string
	MetricsNamespace string
}

// JobQueueConfig configures the inference job-queue client.
type JobQueueConfig struct {
	APIKey          string
	Endpoint        string
	MaxAttempts     int
	PollingInterval time.Duration
	RequestTimeout  time.Duration
}

// StorageConfig configures the object-store gateway.
type StorageConfig struct {
	Backend      string
	OutputBucket string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioRegion    string
}

// Load reads configuration from the environment. A missing API key or
// endpoint is not an error here; the job client reports it when a job is
// submitted so the failure lands in the response envelope.
func Load() (*Config, error) {
	// .env is optional and only present for local runs.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("OUTPUT_BUCKET", DefaultOutputBucket)
	v.SetDefault("MAX_POLLING_ATTEMPTS", DefaultMaxPollingAttempts)
	v.SetDefault("POLLING_INTERVAL", int(DefaultPollingInterval/time.Second))
	v.SetDefault("REQUEST_TIMEOUT", int(DefaultRequestTimeout/time.Second))
	v.SetDefault("STORAGE_BACKEND", BackendS3)
	v.SetDefault("METRICS_NAMESPACE", DefaultMetricsNamespace)
	v.AutomaticEnv()

	for _, key := range []string{
		"API_KEY", "API_ENDPOINT", "RUNS_TABLE_NAME", "SSM_API_KEY_PARAM",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_REGION",
	} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{
		JobQueue: JobQueueConfig{
			APIKey:          v.GetString("API_KEY"),
			Endpoint:        strings.TrimRight(v.GetString("API_ENDPOINT"), "/"),
			MaxAttempts:     v.GetInt("MAX_POLLING_ATTEMPTS"),
			PollingInterval: time.Duration(v.GetInt("POLLING_INTERVAL")) * time.Second,
			RequestTimeout:  time.Duration(v.GetInt("REQUEST_TIMEOUT")) * time.Second,
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(v.GetString("STORAGE_BACKEND")),
			OutputBucket:   v.GetString("OUTPUT_BUCKET"),
			MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
			MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
			MinioRegion:    v.GetString("MINIO_REGION"),
		},
		RunsTable:        v.GetString("RUNS_TABLE_NAME"),
		SSMAPIKeyParam:   v.GetString("SSM_API_KEY_PARAM"),
		MetricsNamespace: v.GetString("METRICS_NAMESPACE"),
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults replaces non-positive tunables and blank names with defaults.
func (c *Config) applyDefaults() {
	if c.JobQueue.MaxAttempts <= 0 {
		c.JobQueue.MaxAttempts = DefaultMaxPollingAttempts
	}
	if c.JobQueue.PollingInterval <= 0 {
		c.JobQueue.PollingInterval = DefaultPollingInterval
	}
	if c.JobQueue.RequestTimeout <= 0 {
		c.JobQueue.RequestTimeout = DefaultRequestTimeout
	}
	if c.Storage.OutputBucket == "" {
		c.Storage.OutputBucket = DefaultOutputBucket
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendS3
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = DefaultMetricsNamespace
	}
}

// Validate checks settings that would make the process unusable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3:
	case BackendMinio:
		if c.Storage.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_BACKEND=%s", BackendMinio)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

// MaxPollWait is the longest the poller can sleep before giving up.
func (c JobQueueConfig) MaxPollWait() time.Duration {
	if c.MaxAttempts <= 1 {
		return 0
	}
	return time.Duration(c.MaxAttempts-1) * c.PollingInterval
}
