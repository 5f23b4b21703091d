package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageWithCause(t *testing.T) {
	err := Wrap(StorageRead, "get object b/k", errors.New("NoSuchKey"))
	assert.Equal(t, "get object b/k: NoSuchKey", err.Error())
}

func TestError_MessageWithoutCause(t *testing.T) {
	err := New(EmptyTranscript, "transcript file is empty")
	assert.Equal(t, "transcript file is empty", err.Error())
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	inner := New(JobFailed, "job failed: boom")
	outer := fmt.Errorf("poll: %w", inner)

	assert.True(t, IsKind(outer, JobFailed))
	assert.False(t, IsKind(outer, PollingTimeout))
	assert.Equal(t, JobFailed, KindOf(outer))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, Config))
}

func TestUnwrap_ExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Submission, "submit job", cause)
	assert.ErrorIs(t, err, cause)
}
