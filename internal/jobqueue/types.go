package jobqueue

import (
	"bytes"
	"encoding/json"
)

// Status is the remote job state. Only COMPLETED and FAILED are terminal;
// every other value (IN_QUEUE, IN_PROGRESS, ...) means keep polling.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether no further polling should occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// GenerationParams are the sampling settings sent with every job.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultGenerationParams sizes the output for a ~4,000 word summary.
var DefaultGenerationParams = GenerationParams{
	MaxTokens:   6000,
	Temperature: 0.5,
	TopP:        0.9,
}

// runRequest is the body of POST {base}/run.
type runRequest struct {
	Input runInput `json:"input"`
}

type runInput struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// runResponse is the body returned by POST {base}/run.
type runResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status,omitempty"`
}

// JobStatus is the body returned by GET {base}/status/{id}.
type JobStatus struct {
	ID     string      `json:"id,omitempty"`
	Status Status      `json:"status"`
	Output Output      `json:"output"`
	Error  ErrorDetail `json:"error,omitempty"`
}

// OutputKind tags which shape the job output arrived in.
type OutputKind int

const (
	// OutputAbsent means the output field was missing.
	OutputAbsent OutputKind = iota
	// OutputTextField is a JSON object with a string "text" member.
	OutputTextField
	// OutputString is a bare JSON string.
	OutputString
	// OutputOther is any other JSON value (object without a string "text",
	// array, number, null).
	OutputOther
)

// Output is the polymorphic "output" member of a completed job.
type Output struct {
	Kind OutputKind
	Text string
	Raw  json.RawMessage
}

// UnmarshalJSON decodes the output into one of the OutputKind variants.
func (o *Output) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	o.Raw = append(json.RawMessage(nil), raw...)

	// null would otherwise decode into an empty string without error.
	if string(raw) == "null" {
		o.Kind = OutputOther
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		o.Kind, o.Text = OutputString, s
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		// Only a string "text" counts. A null or structured one falls through
		// so the whole output, including its other members, is kept.
		if textRaw, ok := obj["text"]; ok && isJSONString(textRaw) {
			if err := json.Unmarshal(textRaw, &o.Text); err == nil {
				o.Kind = OutputTextField
				return nil
			}
		}
	}

	o.Kind = OutputOther
	return nil
}

// isJSONString reports whether raw encodes a JSON string.
func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

// SummaryText returns the text a completed job produced. Outputs without a
// usable text member are returned as their full JSON so no field is lost;
// a missing output serializes as an empty object.
func (o Output) SummaryText() string {
	switch o.Kind {
	case OutputTextField, OutputString:
		return o.Text
	case OutputAbsent:
		return "{}"
	default:
		return string(o.Raw)
	}
}

// ErrorDetail is the "error" member of a failed job. The service usually
// sends a string but may send a structured value, kept as raw JSON.
type ErrorDetail string

// UnmarshalJSON accepts a string or any other JSON value.
func (e *ErrorDetail) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = ErrorDetail(s)
		return nil
	}
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		raw = ""
	}
	*e = ErrorDetail(raw)
	return nil
}
