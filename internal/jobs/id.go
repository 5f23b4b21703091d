package jobs

import (
	"github.com/google/uuid"
)

// RunIDPrefix prefixes locally generated run IDs.
const RunIDPrefix = "run-"

// GenerateID creates a new random ID with the given prefix.
// The prefix should include a trailing dash, e.g. "run-".
func GenerateID(prefix string) string {
	return prefix + uuid.NewString()
}

// RunID returns requestID when the runtime supplied one, otherwise a fresh
// "run-" ID.
func RunID(requestID string) string {
	if requestID != "" {
		return requestID
	}
	return GenerateID(RunIDPrefix)
}
