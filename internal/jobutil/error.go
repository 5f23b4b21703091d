// Package jobutil provides shared helpers for the run lifecycle.
//
// RecordFailure is the single exit for a failed run: it logs the error with
// its context and delegates persistence to an optional writer.
package jobutil

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/apperr"
)

// ErrorWriter persists a failed run to a backing store.
type ErrorWriter func(ctx context.Context, runID, jobID string, err error) error

// RecordFailure logs err and, when write is non-nil, persists it. A write
// failure is logged and returned but never replaces the original error.
func RecordFailure(ctx context.Context, runID, jobID, stage string, err error, write ErrorWriter) error {
	log.Error().
		Err(err).
		Str("runId", runID).
		Str("jobId", jobID).
		Str("stage", stage).
		Str("errorKind", string(apperr.KindOf(err))).
		Msg("Error processing file")

	if write == nil {
		return nil
	}
	if werr := write(ctx, runID, jobID, err); werr != nil {
		log.Warn().Err(werr).Str("runId", runID).Msg("Failed to persist run error")
		return werr
	}
	return nil
}
