// Package summarize turns an upload notification into a stored summary.
//
// An invocation runs five stages in order, each depending on the previous
// one succeeding:
//
//	ParseEvent -> FetchTranscript -> SubmitJob -> PollJob -> StoreSummary
//
// The first failing stage ends the run. The error is logged, optionally
// recorded in the run ledger, and returned as a 500 envelope. Nothing is
// rolled back; a submitted job is never cancelled.
package summarize

import (
	"context"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/apperr"
	"github.com/fpang/transcript-summarizer/internal/config"
	"github.com/fpang/transcript-summarizer/internal/jobutil"
	"github.com/fpang/transcript-summarizer/internal/metrics"
	"github.com/fpang/transcript-summarizer/internal/storage"
	"github.com/fpang/transcript-summarizer/internal/store"
)

// Stage names a step of the run.
type Stage string

const (
	StageParseEvent      Stage = "ParseEvent"
	StageFetchTranscript Stage = "FetchTranscript"
	StageSubmitJob       Stage = "SubmitJob"
	StagePollJob         Stage = "PollJob"
	StageStoreSummary    Stage = "StoreSummary"
	StageDone            Stage = "Done"
)

// ObjectStore reads transcripts and writes summaries.
type ObjectStore interface {
	FetchText(ctx context.Context, bucket, key string) (string, error)
	StoreText(ctx context.Context, bucket, key, content string) error
}

// JobRunner submits a summarization job and waits for its result.
type JobRunner interface {
	Submit(ctx context.Context, transcript string) (string, error)
	PollUntilComplete(ctx context.Context, jobID string) (string, error)
}

// RunRecorder persists the outcome of a run.
type RunRecorder interface {
	PutRun(ctx context.Context, run *store.Run) error
}

// Orchestrator sequences the storage gateway and the job client.
type Orchestrator struct {
	objects          ObjectStore
	jobs             JobRunner
	ledger           RunRecorder
	outputBucket     string
	metricsNamespace string
	metricsOut       io.Writer
	now              func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLedger records every run's outcome in r.
func WithLedger(r RunRecorder) Option {
	return func(o *Orchestrator) { o.ledger = r }
}

// WithMetricsWriter sends EMF documents to w instead of stdout.
func WithMetricsWriter(w io.Writer) Option {
	return func(o *Orchestrator) { o.metricsOut = w }
}

// New creates an Orchestrator writing summaries to cfg's output bucket.
func New(cfg *config.Config, objects ObjectStore, jobs JobRunner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		objects:          objects,
		jobs:             jobs,
		outputBucket:     cfg.Storage.OutputBucket,
		metricsNamespace: cfg.MetricsNamespace,
		metricsOut:       os.Stdout,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run tracks one invocation's progress for logging, metrics, and the ledger.
type run struct {
	stage     Stage
	event     UploadEvent
	jobID     string
	outputKey string

	transcriptBytes int
	summaryBytes    int
	pollDuration    time.Duration
}

func (r *run) inputFile() string {
	if r.event.Bucket == "" {
		return ""
	}
	return storage.Location(r.event.Bucket, r.event.Key)
}

// Handle processes one raw notification and always returns an envelope.
func (o *Orchestrator) Handle(ctx context.Context, runID string, raw []byte) Response {
	start := o.now()
	r := &run{stage: StageParseEvent}
	logger := log.With().Str("runId", runID).Logger()
	ctx = logger.WithContext(ctx)

	err := o.process(ctx, r, raw)
	elapsed := o.now().Sub(start)

	rec := metrics.NewTo(o.metricsOut, o.metricsNamespace).
		Count("Invocations").
		Duration("DurationMs", elapsed).
		Property("runId", runID)
	defer rec.Flush()

	if err != nil {
		rec.Dimension("Outcome", "error").
			Count("Errors").
			Property("stage", string(r.stage)).
			Property("errorKind", string(apperr.KindOf(err)))

		var write jobutil.ErrorWriter
		if o.ledger != nil {
			write = func(ctx context.Context, runID, jobID string, err error) error {
				return o.ledger.PutRun(ctx, &store.Run{
					ID:         runID,
					Status:     store.RunStatusError,
					InputFile:  r.inputFile(),
					JobID:      jobID,
					Stage:      string(r.stage),
					Error:      err.Error(),
					DurationMs: elapsed.Milliseconds(),
				})
			}
		}
		if werr := jobutil.RecordFailure(ctx, runID, r.jobID, string(r.stage), err, write); werr != nil {
			rec.Property("ledgerError", werr.Error())
		}
		return errorResponse(err)
	}

	outputFile := storage.Location(o.outputBucket, r.outputKey)
	rec.Dimension("Outcome", "success").
		Metric("TranscriptBytes", float64(r.transcriptBytes), metrics.UnitBytes).
		Metric("SummaryBytes", float64(r.summaryBytes), metrics.UnitBytes).
		Duration("PollDurationMs", r.pollDuration)

	if o.ledger != nil {
		if lerr := o.ledger.PutRun(ctx, &store.Run{
			ID:         runID,
			Status:     store.RunStatusComplete,
			InputFile:  r.inputFile(),
			OutputFile: outputFile,
			JobID:      r.jobID,
			Stage:      string(StageDone),
			DurationMs: elapsed.Milliseconds(),
		}); lerr != nil {
			logger.Warn().Err(lerr).Msg("Failed to persist run result")
			rec.Property("ledgerError", lerr.Error())
		}
	}

	logger.Info().
		Str("input", r.inputFile()).
		Str("output", outputFile).
		Str("jobId", r.jobID).
		Dur("duration", elapsed).
		Msg("Summary generated")
	return successResponse(r.inputFile(), outputFile)
}

// process runs the stages in order, recording progress on r. The first
// error is returned with r.stage naming the stage that produced it.
func (o *Orchestrator) process(ctx context.Context, r *run, raw []byte) error {
	logger := log.Ctx(ctx)

	r.stage = StageParseEvent
	event, err := ParseEvent(raw)
	if err != nil {
		return err
	}
	r.event = event
	logger.Info().Str("bucket", event.Bucket).Str("key", event.Key).Msg("Processing transcript")

	r.stage = StageFetchTranscript
	transcript, err := o.objects.FetchText(ctx, event.Bucket, event.Key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return apperr.New(apperr.EmptyTranscript,
			"transcript is empty: "+storage.Location(event.Bucket, event.Key))
	}
	r.transcriptBytes = len(transcript)
	logger.Debug().
		Int("bytes", r.transcriptBytes).
		Int("chars", utf8.RuneCountInString(transcript)).
		Msg("Transcript loaded")

	r.stage = StageSubmitJob
	jobID, err := o.jobs.Submit(ctx, transcript)
	if err != nil {
		return err
	}
	r.jobID = jobID

	r.stage = StagePollJob
	pollStart := o.now()
	summary, err := o.jobs.PollUntilComplete(ctx, jobID)
	r.pollDuration = o.now().Sub(pollStart)
	if err != nil {
		return err
	}
	r.summaryBytes = len(summary)

	r.stage = StageStoreSummary
	r.outputKey = OutputKey(event.Key)
	if err := o.objects.StoreText(ctx, o.outputBucket, r.outputKey, summary); err != nil {
		return err
	}

	r.stage = StageDone
	return nil
}
