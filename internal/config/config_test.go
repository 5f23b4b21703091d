package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"API_KEY", "API_ENDPOINT", "OUTPUT_BUCKET", "MAX_POLLING_ATTEMPTS", "POLLING_INTERVAL",
		"REQUEST_TIMEOUT", "RUNS_TABLE_NAME", "STORAGE_BACKEND", "SSM_API_KEY_PARAM",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_REGION", "METRICS_NAMESPACE",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "summaries", cfg.Storage.OutputBucket)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, 20, cfg.JobQueue.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.JobQueue.PollingInterval)
	assert.Equal(t, 30*time.Second, cfg.JobQueue.RequestTimeout)
	assert.Equal(t, DefaultMetricsNamespace, cfg.MetricsNamespace)
	assert.Empty(t, cfg.JobQueue.APIKey)
	assert.Empty(t, cfg.RunsTable)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "secret")
	t.Setenv("API_ENDPOINT", "https://api.example.com/v2/abc/")
	t.Setenv("OUTPUT_BUCKET", "out-bucket")
	t.Setenv("MAX_POLLING_ATTEMPTS", "3")
	t.Setenv("POLLING_INTERVAL", "2")
	t.Setenv("RUNS_TABLE_NAME", "runs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.JobQueue.APIKey)
	assert.Equal(t, "https://api.example.com/v2/abc", cfg.JobQueue.Endpoint)
	assert.Equal(t, "out-bucket", cfg.Storage.OutputBucket)
	assert.Equal(t, 3, cfg.JobQueue.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.JobQueue.PollingInterval)
	assert.Equal(t, "runs", cfg.RunsTable)
}

func TestLoad_NonPositiveTunablesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_POLLING_ATTEMPTS", "0")
	t.Setenv("POLLING_INTERVAL", "-5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxPollingAttempts, cfg.JobQueue.MaxAttempts)
	assert.Equal(t, DefaultPollingInterval, cfg.JobQueue.PollingInterval)
}

func TestLoad_MinioRequiresEndpoint(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "minio")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ENDPOINT")
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "gcs")

	_, err := Load()
	require.Error(t, err)
}

func TestMaxPollWait(t *testing.T) {
	c := JobQueueConfig{MaxAttempts: 20, PollingInterval: 10 * time.Second}
	assert.Equal(t, 190*time.Second, c.MaxPollWait())

	c.MaxAttempts = 1
	assert.Equal(t, time.Duration(0), c.MaxPollWait())
}
