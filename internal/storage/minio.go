package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/fpang/transcript-summarizer/internal/apperr"
)

// MinioGateway implements Gateway on any S3-compatible endpoint (local
// MinIO, Cloudflare R2) using path-style bucket lookup.
type MinioGateway struct {
	client *minio.Client
}

var _ Gateway = (*MinioGateway)(nil)

// NewMinioGateway builds a client for endpoint. A scheme prefix selects TLS;
// a bare host:port is treated as plain HTTP.
func NewMinioGateway(endpoint, accessKey, secretKey, region string) (*MinioGateway, error) {
	host, secure := splitEndpoint(endpoint)
	if host == "" {
		return nil, fmt.Errorf("minio endpoint is empty")
	}
	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinioGateway{client: client}, nil
}

func (g *MinioGateway) FetchText(ctx context.Context, bucket, key string) (string, error) {
	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Fetching transcript from S3-compatible store")

	obj, err := g.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", apperr.Wrap(apperr.StorageRead,
			fmt.Sprintf("get object %s", Location(bucket, key)), classifyMinio(err))
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces missing objects and permission errors.
	info, err := obj.Stat()
	if err != nil {
		return "", apperr.Wrap(apperr.StorageRead,
			fmt.Sprintf("get object %s", Location(bucket, key)), classifyMinio(err))
	}

	text, err := decodeBody(obj, key, info.Metadata.Get("Content-Encoding"))
	if err != nil {
		return "", apperr.Wrap(apperr.StorageRead,
			fmt.Sprintf("read object %s", Location(bucket, key)), err)
	}
	return text, nil
}

func (g *MinioGateway) StoreText(ctx context.Context, bucket, key, content string) error {
	data := []byte(content)
	_, err := g.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentTypeText,
		UserTags:    map[string]string{projectTagKey: projectTagValue},
	})
	if err != nil {
		return apperr.Wrap(apperr.StorageWrite,
			fmt.Sprintf("put object %s", Location(bucket, key)), err)
	}

	log.Info().Str("location", Location(bucket, key)).Int("bytes", len(data)).Msg("Summary stored in S3-compatible store")
	return nil
}

func splitEndpoint(endpoint string) (host string, secure bool) {
	e := strings.TrimSpace(endpoint)
	lower := strings.ToLower(e)
	switch {
	case strings.HasPrefix(lower, "https://"):
		return strings.TrimRight(e[len("https://"):], "/"), true
	case strings.HasPrefix(lower, "http://"):
		return strings.TrimRight(e[len("http://"):], "/"), false
	default:
		return strings.TrimRight(e, "/"), false
	}
}

func classifyMinio(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return err
}
