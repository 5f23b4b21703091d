// Package jobqueue is a client for an asynchronous inference job-queue API
// (RunPod-style serverless endpoints). A summarization job is submitted with
// POST {base}/run and its status read with GET {base}/status/{id}, both
// authenticated with a bearer token.
//
// PollUntilComplete is a fixed-interval polling state machine:
//
//	RUNNING --COMPLETED--> return output text
//	RUNNING --FAILED-----> JobFailedError (no retry)
//	RUNNING --other------> wait interval, poll again
//	RUNNING --transport--> wait interval, poll again (consumes an attempt)
//	attempts exhausted --> PollingTimeoutError
//
// The interval is only slept between attempts, so N attempts sleep at most
// N-1 times. There is no backoff growth and no jitter.
package jobqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/apperr"
	"github.com/fpang/transcript-summarizer/internal/assets"
	"github.com/fpang/transcript-summarizer/internal/config"
)

// unknownJobError is reported when a FAILED job carries no error detail.
const unknownJobError = "Unknown error"

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Client submits summarization jobs and polls them to completion.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	maxAttempts int
	interval    time.Duration
	params      GenerationParams
	sleep       Sleeper
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleeper replaces the wait between polling attempts.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// NewClient creates a Client from the job-queue configuration.
func NewClient(cfg config.JobQueueConfig, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		apiKey:      cfg.APIKey,
		baseURL:     cfg.Endpoint,
		maxAttempts: cfg.MaxAttempts,
		interval:    cfg.PollingInterval,
		params:      DefaultGenerationParams,
		sleep:       SleepContext,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = config.DefaultMaxPollingAttempts
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends transcript for summarization and returns the remote job ID.
func (c *Client) Submit(ctx context.Context, transcript string) (string, error) {
	if c.apiKey == "" {
		return "", apperr.New(apperr.Config, "API key is not set")
	}
	if c.baseURL == "" {
		return "", apperr.New(apperr.Config, "API endpoint is not set")
	}

	payload := runRequest{Input: runInput{
		Prompt:      assets.RenderSummaryPrompt(transcript),
		MaxTokens:   c.params.MaxTokens,
		Temperature: c.params.Temperature,
		TopP:        c.params.TopP,
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Wrap(apperr.Submission, "encode job request", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, "/run", body)
	if err != nil {
		return "", apperr.Wrap(apperr.Submission, "submit job", err)
	}

	var resp runResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", apperr.Wrap(apperr.Submission, "submit job",
			fmt.Errorf("parse response: %w (body: %s)", err, truncate(string(respBody), 200)))
	}
	if resp.ID == "" {
		return "", apperr.New(apperr.Submission,
			fmt.Sprintf("no job ID returned from job queue: %s", truncate(string(respBody), 200)))
	}

	log.Info().Str("jobId", resp.ID).Str("status", string(resp.Status)).Int("promptChars", len(payload.Input.Prompt)).Msg("Summarization job submitted")
	return resp.ID, nil
}

// Status reads the current state of a job. Errors are transport-level
// (network, non-2xx, undecodable body) and safe to retry.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}

	var status JobStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("parse status response: %w (body: %s)", err, truncate(string(respBody), 200))
	}
	return &status, nil
}

// PollUntilComplete polls jobID until it reaches a terminal state or the
// attempt budget runs out, and returns the summary text.
func (c *Client) PollUntilComplete(ctx context.Context, jobID string) (string, error) {
	logger := log.With().Str("jobId", jobID).Logger()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.interval); err != nil {
				return "", apperr.Wrap(apperr.PollingTimeout,
					fmt.Sprintf("polling for job %s stopped after %d attempts", jobID, attempt-1), err)
			}
		}

		status, err := c.Status(ctx, jobID)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Int("maxAttempts", c.maxAttempts).Msg("Job status poll error, retrying")
			continue
		}

		if !status.Status.Terminal() {
			logger.Info().Str("status", string(status.Status)).Int("attempt", attempt).Int("maxAttempts", c.maxAttempts).Msg("Job still running")
			continue
		}

		if status.Status == StatusFailed {
			detail := string(status.Error)
			if detail == "" {
				detail = unknownJobError
			}
			logger.Error().Int("attempt", attempt).Str("error", detail).Msg("Job failed")
			return "", apperr.New(apperr.JobFailed, "job failed: "+detail)
		}

		text := status.Output.SummaryText()
		logger.Info().Int("attempt", attempt).Int("outputKind", int(status.Output.Kind)).Int("chars", len(text)).Msg("Job completed")
		return text, nil
	}

	return "", apperr.New(apperr.PollingTimeout,
		fmt.Sprintf("polling for job %s timed out after %d attempts", jobID, c.maxAttempts))
}

// do sends an authenticated JSON request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	startTime := time.Now()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Str("method", method).Str("path", path).Dur("duration", duration).Err(err).Msg("Job queue response")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	log.Debug().Str("method", method).Str("path", path).Int("statusCode", httpResp.StatusCode).Dur("duration", duration).Msg("Job queue response")

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d (body: %s)", httpResp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

// truncate returns at most the first n bytes of s, appending "..." if
// truncated. The cut backs up to a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
