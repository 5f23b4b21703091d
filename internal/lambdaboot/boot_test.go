package lambdaboot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fpang/transcript-summarizer/internal/config"
	"github.com/fpang/transcript-summarizer/internal/logging"
)

type MockSSM struct {
	mock.Mock
}

func (m *MockSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssm.GetParameterOutput), args.Error(1)
}

func TestLoadAPIKey_FromSSM(t *testing.T) {
	m := new(MockSSM)
	m.On("GetParameter", mock.Anything, mock.MatchedBy(func(in *ssm.GetParameterInput) bool {
		return *in.Name == "/summarizer/api-key" && *in.WithDecryption
	})).Return(&ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: aws.String("from-ssm")},
	}, nil)

	cfg := &config.Config{SSMAPIKeyParam: "/summarizer/api-key"}
	require.NoError(t, LoadAPIKey(context.Background(), m, cfg))
	assert.Equal(t, "from-ssm", cfg.JobQueue.APIKey)
	m.AssertExpectations(t)
}

func TestLoadAPIKey_EnvWins(t *testing.T) {
	m := new(MockSSM)
	cfg := &config.Config{SSMAPIKeyParam: "/summarizer/api-key"}
	cfg.JobQueue.APIKey = "from-env"

	require.NoError(t, LoadAPIKey(context.Background(), m, cfg))
	assert.Equal(t, "from-env", cfg.JobQueue.APIKey)
	m.AssertNotCalled(t, "GetParameter", mock.Anything, mock.Anything)
}

func TestLoadAPIKey_NoParamConfigured(t *testing.T) {
	m := new(MockSSM)
	cfg := &config.Config{}
	require.NoError(t, LoadAPIKey(context.Background(), m, cfg))
	assert.Empty(t, cfg.JobQueue.APIKey)
}

func TestLoadAPIKey_SSMError(t *testing.T) {
	m := new(MockSSM)
	m.On("GetParameter", mock.Anything, mock.Anything).Return(nil, errors.New("ParameterNotFound"))

	err := LoadAPIKey(context.Background(), m, &config.Config{SSMAPIKeyParam: "/missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/missing")
}

func TestInitRunStore_Disabled(t *testing.T) {
	assert.Nil(t, InitRunStore(aws.Config{}, ""))
}

func TestInitRunStore_Enabled(t *testing.T) {
	s := InitRunStore(aws.Config{Region: "us-east-1"}, "runs")
	require.NotNil(t, s)
	assert.Equal(t, "runs", s.TableName())
}

func TestStartupLog_ReportsPollBudget(t *testing.T) {
	var buf bytes.Buffer
	logging.InitTo(&buf, "info", "")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	cfg := &config.Config{
		JobQueue: config.JobQueueConfig{
			Endpoint:        "https://jobs.example.com/v2/abc",
			MaxAttempts:     20,
			PollingInterval: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Storage:   config.StorageConfig{Backend: config.BackendS3, OutputBucket: "summaries"},
		RunsTable: "summarizer-runs",
	}
	StartupLog("summarize-lambda", time.Now(), cfg).Log()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), "output: %s", buf.String())
	settings := doc["config"].(map[string]any)
	assert.Equal(t, "3m10s", settings["maxPollWait"])
	assert.Equal(t, "20", settings["maxPollingAttempts"])

	features := doc["features"].(map[string]any)
	assert.Equal(t, true, features["runLedger"])
	assert.Equal(t, false, features["apiKeyConfigured"])
}
