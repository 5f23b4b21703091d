// Package lambdaboot provides cold-start bootstrap helpers: AWS config,
// API key resolution from SSM Parameter Store, the optional run ledger, and
// the startup log. Each entry point's init() is a short composition of these.
package lambdaboot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/config"
	"github.com/fpang/transcript-summarizer/internal/logging"
	"github.com/fpang/transcript-summarizer/internal/store"
)

// AWSClients holds the core AWS SDK clients used at cold start.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// SSMAPI is the subset of *ssm.Client used by LoadAPIKey.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// LoadAPIKey fills cfg.JobQueue.APIKey from SSM when it is unset and
// SSM_API_KEY_PARAM names a parameter. Leaves cfg untouched otherwise.
func LoadAPIKey(ctx context.Context, client SSMAPI, cfg *config.Config) error {
	if cfg.JobQueue.APIKey != "" || cfg.SSMAPIKeyParam == "" {
		return nil
	}

	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(cfg.SSMAPIKeyParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("read API key from SSM %s: %w", cfg.SSMAPIKeyParam, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return fmt.Errorf("SSM parameter %s is empty", cfg.SSMAPIKeyParam)
	}

	cfg.JobQueue.APIKey = aws.ToString(result.Parameter.Value)
	log.Debug().Str("param", cfg.SSMAPIKeyParam).Dur("elapsed", time.Since(ssmStart)).Msg("API key loaded from SSM")
	return nil
}

// InitRunStore creates the run ledger when tableName is set. Returns nil
// (with a log line) when the ledger is disabled.
func InitRunStore(cfg aws.Config, tableName string) *store.RunStore {
	if tableName == "" {
		log.Debug().Msg("RUNS_TABLE_NAME not set, run ledger disabled")
		return nil
	}
	runs := store.NewRunStore(dynamodb.NewFromConfig(cfg), tableName)
	log.Debug().Str("table", runs.TableName()).Msg("Run ledger enabled")
	return runs
}

// WarnMissingJobQueue logs when submissions are bound to fail. Each
// invocation still reports the ConfigError in its response.
func WarnMissingJobQueue(cfg *config.Config) {
	if cfg.JobQueue.APIKey == "" {
		log.Warn().Msg("API key not configured, every submission will fail with ConfigError")
	}
	if cfg.JobQueue.Endpoint == "" {
		log.Warn().Msg("API endpoint not configured, every submission will fail with ConfigError")
	}
}

// StartupLog builds the cold-start log with the resources and tunables in cfg.
func StartupLog(name string, initStart time.Time, cfg *config.Config) *logging.StartupLogger {
	s := logging.NewStartupLogger(name).
		InitDuration(time.Since(initStart)).
		Bucket("output", cfg.Storage.OutputBucket).
		Feature("runLedger", cfg.RunsTable != "").
		Feature("apiKeyConfigured", cfg.JobQueue.APIKey != "").
		Config("storageBackend", cfg.Storage.Backend).
		Config("apiEndpoint", cfg.JobQueue.Endpoint).
		Config("maxPollingAttempts", strconv.Itoa(cfg.JobQueue.MaxAttempts)).
		Config("pollingInterval", cfg.JobQueue.PollingInterval.String()).
		Config("maxPollWait", cfg.JobQueue.MaxPollWait().String()).
		Config("requestTimeout", cfg.JobQueue.RequestTimeout.String())
	if cfg.RunsTable != "" {
		s.DynamoTable("runs", cfg.RunsTable)
	}
	if cfg.SSMAPIKeyParam != "" {
		s.SSMParam("apiKey", cfg.SSMAPIKeyParam)
	}
	return s
}
