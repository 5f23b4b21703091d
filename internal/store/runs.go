// Package store records the terminal outcome of each summarization run in
// DynamoDB. One item is written per invocation when it finishes; nothing is
// written while a job is in flight, and no run is ever resumed from the
// ledger. A TTL attribute (expiresAt) expires records after RunTTL.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// RunTTL is how long run records are kept.
const RunTTL = 7 * 24 * time.Hour

// Run statuses.
const (
	RunStatusComplete = "complete"
	RunStatusError    = "error"
)

const (
	pkPrefix = "RUN#"
	skResult = "RESULT"
)

// Run is the ledger record for one invocation.
type Run struct {
	ID          string `dynamodbav:"-"`
	Status      string `dynamodbav:"status"`
	InputFile   string `dynamodbav:"inputFile,omitempty"`
	OutputFile  string `dynamodbav:"outputFile,omitempty"`
	JobID       string `dynamodbav:"jobId,omitempty"`
	Stage       string `dynamodbav:"stage,omitempty"`
	Error       string `dynamodbav:"error,omitempty"`
	DurationMs  int64  `dynamodbav:"durationMs"`
	CompletedAt string `dynamodbav:"completedAt"`
}

// DynamoAPI is the subset of *dynamodb.Client used by RunStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// RunStore writes Run records to a single DynamoDB table keyed by PK/SK.
type RunStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

// NewRunStore creates a RunStore for the given table.
func NewRunStore(client DynamoAPI, tableName string) *RunStore {
	return &RunStore{client: client, tableName: tableName, now: time.Now}
}

// TableName returns the backing table.
func (s *RunStore) TableName() string {
	return s.tableName
}

// PutRun creates or replaces the record for run.ID.
func (s *RunStore) PutRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("put run: empty run ID")
	}
	if run.CompletedAt == "" {
		run.CompletedAt = s.now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(run)
	if err != nil {
		return fmt.Errorf("put run %s: marshal: %w", run.ID, err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: pkPrefix + run.ID}
	item["SK"] = &types.AttributeValueMemberS{Value: skResult}
	item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Add(RunTTL).Unix(), 10)}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put run %s: %w", run.ID, err)
	}

	log.Debug().
		Str("runId", run.ID).
		Str("status", run.Status).
		Str("jobId", run.JobID).
		Msg("Run persisted")
	return nil
}
