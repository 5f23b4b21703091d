package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/transcript-summarizer/internal/config"
	"github.com/fpang/transcript-summarizer/internal/jobqueue"
	"github.com/fpang/transcript-summarizer/internal/jobs"
	"github.com/fpang/transcript-summarizer/internal/lambdaboot"
	"github.com/fpang/transcript-summarizer/internal/logging"
	"github.com/fpang/transcript-summarizer/internal/storage"
	"github.com/fpang/transcript-summarizer/internal/summarize"
)

// CLI flags
var (
	bucketFlag       string
	keyFlag          string
	eventFlag        string
	outputBucketFlag string
	maxAttemptsFlag  int
	intervalFlag     time.Duration
	verboseFlag      bool
)

// rootCmd is the main Cobra command for the summarize CLI.
var rootCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a transcript stored in S3 or MinIO",
	Long: `Summarize runs the same pipeline as the Lambda function from a terminal.
It reads a transcript from the object store, submits it to the inference job
queue, waits for the result, and writes the summary under summaries/ in the
output bucket. The response envelope body is printed to stdout.

Configuration comes from the environment or a .env file in the working
directory (API_KEY, API_ENDPOINT, OUTPUT_BUCKET, STORAGE_BACKEND, ...).

Examples:
  summarize --bucket uploads --key meetings/standup.txt
  summarize --event ./testdata/s3-event.json
  summarize -b uploads -k call.txt --output-bucket scratch --max-attempts 5 --interval 2s`,
	RunE: runMain,
	// Pipeline failures are reported through the envelope.
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&bucketFlag, "bucket", "b", "", "Bucket holding the transcript")
	rootCmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Object key of the transcript")
	rootCmd.Flags().StringVarP(&eventFlag, "event", "e", "", "Path to an S3 notification JSON file (instead of --bucket/--key)")
	rootCmd.Flags().StringVar(&outputBucketFlag, "output-bucket", "", "Override OUTPUT_BUCKET")
	rootCmd.Flags().IntVar(&maxAttemptsFlag, "max-attempts", 0, "Override MAX_POLLING_ATTEMPTS")
	rootCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "Override POLLING_INTERVAL (e.g. 5s)")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.MarkFlagsRequiredTogether("bucket", "key")
	rootCmd.MarkFlagsMutuallyExclusive("event", "bucket")
	rootCmd.MarkFlagsOneRequired("event", "bucket")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) error {
	level := os.Getenv("LOG_LEVEL")
	if verboseFlag {
		level = "debug"
	}
	logging.InitTo(os.Stderr, level, "console")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if outputBucketFlag != "" {
		cfg.Storage.OutputBucket = outputBucketFlag
	}
	if maxAttemptsFlag > 0 {
		cfg.JobQueue.MaxAttempts = maxAttemptsFlag
	}
	if intervalFlag > 0 {
		cfg.JobQueue.PollingInterval = intervalFlag
	}

	raw, err := loadEvent()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	awsClients := lambdaboot.InitAWS()
	if err := lambdaboot.LoadAPIKey(ctx, awsClients.SSM, cfg); err != nil {
		return err
	}
	lambdaboot.WarnMissingJobQueue(cfg)

	gateway, err := storage.NewGateway(cfg.Storage, awsClients.Config)
	if err != nil {
		return err
	}

	var opts []summarize.Option
	if runs := lambdaboot.InitRunStore(awsClients.Config, cfg.RunsTable); runs != nil {
		opts = append(opts, summarize.WithLedger(runs))
	}
	// Keep stdout for the envelope body.
	opts = append(opts, summarize.WithMetricsWriter(os.Stderr))

	o := summarize.New(cfg, gateway, jobqueue.NewClient(cfg.JobQueue), opts...)
	log.Info().
		Str("backend", cfg.Storage.Backend).
		Str("outputBucket", cfg.Storage.OutputBucket).
		Int("maxAttempts", cfg.JobQueue.MaxAttempts).
		Dur("interval", cfg.JobQueue.PollingInterval).
		Msg("Starting summarization")

	resp := o.Handle(ctx, jobs.RunID(""), raw)
	fmt.Println(resp.Body)
	if resp.StatusCode != 200 {
		return fmt.Errorf("summarization failed with status %d", resp.StatusCode)
	}
	return nil
}

// loadEvent reads --event or builds a notification from --bucket/--key.
func loadEvent() ([]byte, error) {
	if eventFlag != "" {
		raw, err := os.ReadFile(eventFlag)
		if err != nil {
			return nil, fmt.Errorf("read event file: %w", err)
		}
		return raw, nil
	}
	return summarize.NewUploadNotification(bucketFlag, keyFlag)
}
