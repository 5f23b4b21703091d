package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/fpang/transcript-summarizer/internal/config"
)

// Gateway is the object-store contract the orchestrator depends on.
type Gateway interface {
	// FetchText reads an object fully and returns it as UTF-8 text.
	FetchText(ctx context.Context, bucket, key string) (string, error)
	// StoreText writes content as a text/plain object.
	StoreText(ctx context.Context, bucket, key, content string) error
}

// NewGateway builds the backend selected by cfg.Backend. awsCfg is only
// used for the S3 backend.
func NewGateway(cfg config.StorageConfig, awsCfg aws.Config) (Gateway, error) {
	switch cfg.Backend {
	case config.BackendMinio:
		return NewMinioGateway(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioRegion)
	case config.BackendS3, "":
		return NewS3GatewayFromConfig(awsCfg), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
