package store

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.PutItemOutput), args.Error(1)
}

func stringAttr(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func TestPutRun_WritesKeysAndTTL(t *testing.T) {
	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	m := new(MockDynamoDB)

	var captured *dynamodb.PutItemInput
	m.On("PutItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*dynamodb.PutItemInput) }).
		Return(&dynamodb.PutItemOutput{}, nil)

	s := NewRunStore(m, "summarizer-runs")
	s.now = func() time.Time { return fixed }

	err := s.PutRun(context.Background(), &Run{
		ID:         "run-1",
		Status:     RunStatusComplete,
		InputFile:  "s3://uploads/call.txt",
		OutputFile: "s3://summaries/summaries/call_summary.txt",
		JobID:      "job-123",
		DurationMs: 4200,
	})
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, "summarizer-runs", *captured.TableName)
	assert.Equal(t, "RUN#run-1", stringAttr(captured.Item, "PK"))
	assert.Equal(t, "RESULT", stringAttr(captured.Item, "SK"))
	assert.Equal(t, "complete", stringAttr(captured.Item, "status"))
	assert.Equal(t, "job-123", stringAttr(captured.Item, "jobId"))
	assert.Equal(t, "2026-10-15T12:00:00Z", stringAttr(captured.Item, "completedAt"))
	_, hasID := captured.Item["ID"]
	assert.False(t, hasID)
	_, hasError := captured.Item["error"]
	assert.False(t, hasError, "empty error is omitted")

	ttl := captured.Item["expiresAt"].(*types.AttributeValueMemberN).Value
	assert.Equal(t, strconv.FormatInt(fixed.Add(RunTTL).Unix(), 10), ttl)
}

func TestPutRun_EmptyID(t *testing.T) {
	m := new(MockDynamoDB)
	err := NewRunStore(m, "t").PutRun(context.Background(), &Run{Status: RunStatusError})
	require.Error(t, err)
	m.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
}

func TestPutRun_DynamoError(t *testing.T) {
	m := new(MockDynamoDB)
	m.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("ProvisionedThroughputExceeded"))

	err := NewRunStore(m, "t").PutRun(context.Background(), &Run{ID: "run-2", Status: RunStatusError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-2")
}
