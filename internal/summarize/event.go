package summarize

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/apperr"
)

// summaryPrefix is the key prefix every summary is written under.
const summaryPrefix = "summaries/"

// UploadEvent identifies the uploaded transcript.
type UploadEvent struct {
	Bucket string
	Key    string
}

// ParseEvent extracts the bucket and URL-decoded key of the first record in
// an S3 notification. Later records are ignored.
func ParseEvent(raw []byte) (UploadEvent, error) {
	var notification events.S3Event
	if err := json.Unmarshal(raw, &notification); err != nil {
		return UploadEvent{}, apperr.Wrap(apperr.InvalidEventFormat, "invalid S3 event format", err)
	}
	if len(notification.Records) == 0 {
		return UploadEvent{}, apperr.New(apperr.InvalidEventFormat, "invalid S3 event format: no records")
	}
	if n := len(notification.Records); n > 1 {
		log.Warn().Int("records", n).Msg("Notification has multiple records, only the first is processed")
	}

	record := notification.Records[0].S3
	if record.Bucket.Name == "" {
		return UploadEvent{}, apperr.New(apperr.InvalidEventFormat, "invalid S3 event format: missing bucket name")
	}
	if record.Object.Key == "" {
		return UploadEvent{}, apperr.New(apperr.InvalidEventFormat, "invalid S3 event format: missing object key")
	}

	// S3 form-encodes keys in notifications: "+" is a space.
	key, err := url.QueryUnescape(record.Object.Key)
	if err != nil {
		return UploadEvent{}, apperr.Wrap(apperr.InvalidEventFormat,
			fmt.Sprintf("invalid S3 event format: undecodable key %q", record.Object.Key), err)
	}

	return UploadEvent{Bucket: record.Bucket.Name, Key: key}, nil
}

// NewUploadNotification builds a single-record S3 notification for bucket
// and key, encoding the key the way S3 does.
func NewUploadNotification(bucket, key string) ([]byte, error) {
	notification := events.S3Event{Records: []events.S3EventRecord{{
		EventSource: "aws:s3",
		EventName:   "ObjectCreated:Put",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: url.QueryEscape(key)},
		},
	}}}
	return json.Marshal(notification)
}

// OutputKey derives the summary key from an input key: the last
// "."-delimited segment is dropped (if any) and the remainder is placed
// under summaries/ with a _summary.txt suffix.
func OutputKey(inputKey string) string {
	base := inputKey
	if i := strings.LastIndex(inputKey, "."); i >= 0 {
		base = inputKey[:i]
	}
	return summaryPrefix + base + "_summary.txt"
}
