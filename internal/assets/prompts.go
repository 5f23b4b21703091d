// Package assets provides prompt templates embedded at compile time.
package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompts/summary.txt
var summaryTemplate string

// summaryPromptTmpl is parsed once; template.Must fails at startup on a
// malformed template rather than at call time.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(summaryTemplate))

// SummaryPromptData holds the dynamic data injected into the summary prompt.
type SummaryPromptData struct {
	Transcript string
}

// RenderSummaryPrompt embeds transcript in the summarization prompt. The
// result never ends with a trailing newline.
func RenderSummaryPrompt(transcript string) string {
	var buf bytes.Buffer
	// The template only interpolates a string; execution cannot fail.
	_ = summaryPromptTmpl.Execute(&buf, SummaryPromptData{Transcript: transcript})
	return strings.TrimRight(buf.String(), "\n")
}
