package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FunctionNameDimension(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "summarize-lambda")

	r := NewTo(&bytes.Buffer{}, "TestNamespace")
	assert.Equal(t, "TestNamespace", r.namespace)
	assert.Equal(t, "summarize-lambda", r.dimensions["FunctionName"])
}

func TestRecorder_FlushOutput(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	var buf bytes.Buffer

	rec := NewTo(&buf, "TranscriptSummarizer")
	rec.now = func() time.Time { return time.UnixMilli(1700000000000) }
	rec.Dimension("Outcome", "success").
		Metric("DurationMs", 1234, UnitMilliseconds).
		Count("Invocations").
		Property("runId", "run-abc")
	rec.Flush()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), "output: %s", buf.String())

	aws := doc["_aws"].(map[string]any)
	assert.Equal(t, float64(1700000000000), aws["Timestamp"])

	cw := aws["CloudWatchMetrics"].([]any)[0].(map[string]any)
	assert.Equal(t, "TranscriptSummarizer", cw["Namespace"])
	assert.Equal(t, []any{[]any{"Outcome"}}, cw["Dimensions"])

	metrics := cw["Metrics"].([]any)
	require.Len(t, metrics, 2)
	assert.Equal(t, "DurationMs", metrics[0].(map[string]any)["Name"])
	assert.Equal(t, "Invocations", metrics[1].(map[string]any)["Name"])

	assert.Equal(t, "success", doc["Outcome"])
	assert.Equal(t, float64(1234), doc["DurationMs"])
	assert.Equal(t, float64(1), doc["Invocations"])
	assert.Equal(t, "run-abc", doc["runId"])
}

func TestRecorder_FlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTo(&buf, "Test").Property("runId", "x").Flush()
	assert.Zero(t, buf.Len())
}

func TestRecorder_Duration(t *testing.T) {
	rec := NewTo(&bytes.Buffer{}, "Test").Duration("PollWaitMs", 2500*time.Millisecond)
	assert.Equal(t, float64(2500), rec.values["PollWaitMs"])
	assert.Equal(t, UnitMilliseconds, rec.metrics["PollWaitMs"].Unit)
}
