package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/apperr"
)

// S3API is the subset of *s3.Client used by S3Gateway.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Gateway implements Gateway on Amazon S3.
type S3Gateway struct {
	client S3API
}

var _ Gateway = (*S3Gateway)(nil)

// NewS3Gateway wraps an existing S3 client.
func NewS3Gateway(client S3API) *S3Gateway {
	return &S3Gateway{client: client}
}

// NewS3GatewayFromConfig creates the S3 client from the shared AWS config.
func NewS3GatewayFromConfig(cfg aws.Config) *S3Gateway {
	return NewS3Gateway(s3.NewFromConfig(cfg))
}

func (g *S3Gateway) FetchText(ctx context.Context, bucket, key string) (string, error) {
	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Fetching transcript from S3")

	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.StorageRead,
			fmt.Sprintf("get object %s", Location(bucket, key)), classify(err))
	}
	defer out.Body.Close()

	text, err := decodeBody(out.Body, key, aws.ToString(out.ContentEncoding))
	if err != nil {
		return "", apperr.Wrap(apperr.StorageRead,
			fmt.Sprintf("read object %s", Location(bucket, key)), err)
	}
	return text, nil
}

func (g *S3Gateway) StoreText(ctx context.Context, bucket, key, content string) error {
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String(ContentTypeText),
		Tagging:     aws.String(projectTagging()),
	})
	if err != nil {
		return apperr.Wrap(apperr.StorageWrite,
			fmt.Sprintf("put object %s", Location(bucket, key)), err)
	}

	log.Info().Str("location", Location(bucket, key)).Int("bytes", len(content)).Msg("Summary stored in S3")
	return nil
}

// projectTagging returns the URL-encoded tag set for PutObjectInput.Tagging.
func projectTagging() string {
	return url.Values{projectTagKey: {projectTagValue}}.Encode()
}

// classify attaches ErrNotFound or ErrAccessDenied to S3 API errors that
// carry a recognized code. Other errors pass through unchanged.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case "AccessDenied", "Forbidden", "AllAccessDisabled":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return err
}
