// Package main provides the Lambda entry point that summarizes uploaded
// transcripts.
//
// Triggered by S3 ObjectCreated notifications on the upload bucket. Each
// invocation reads the transcript, submits it to the inference job queue,
// polls until the job finishes, and writes the summary to OUTPUT_BUCKET
// under summaries/.
//
// The function always returns a {statusCode, body} envelope; failures are
// reported with statusCode 500 rather than a Lambda error, so S3 does not
// retry the invocation.
//
// Timeout: must exceed MAX_POLLING_ATTEMPTS x POLLING_INTERVAL plus I/O.
package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/config"
	"github.com/fpang/transcript-summarizer/internal/jobqueue"
	"github.com/fpang/transcript-summarizer/internal/jobs"
	"github.com/fpang/transcript-summarizer/internal/lambdaboot"
	"github.com/fpang/transcript-summarizer/internal/logging"
	"github.com/fpang/transcript-summarizer/internal/storage"
	"github.com/fpang/transcript-summarizer/internal/summarize"
)

const functionName = "summarize-lambda"

var coldStart = true

var orchestrator *summarize.Orchestrator

func init() {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	awsClients := lambdaboot.InitAWS()
	if err := lambdaboot.LoadAPIKey(context.Background(), awsClients.SSM, cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to load API key")
	}

	gateway, err := storage.NewGateway(cfg.Storage, awsClients.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage gateway")
	}

	var opts []summarize.Option
	if runs := lambdaboot.InitRunStore(awsClients.Config, cfg.RunsTable); runs != nil {
		opts = append(opts, summarize.WithLedger(runs))
	}
	orchestrator = summarize.New(cfg, gateway, jobqueue.NewClient(cfg.JobQueue), opts...)

	lambdaboot.WarnMissingJobQueue(cfg)
	lambdaboot.StartupLog(functionName, initStart, cfg).Log()
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, event json.RawMessage) (summarize.Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", functionName).Msg("Cold start, first invocation")
	}

	var requestID string
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}
	runID := jobs.RunID(requestID)
	log.Info().Str("runId", runID).Int("eventBytes", len(event)).Msg("Summarize Lambda invoked")

	return orchestrator.Handle(ctx, runID, event), nil
}
