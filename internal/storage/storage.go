// Package storage reads transcripts from and writes summaries to an object
// store. Two backends share the Gateway contract: S3 (the default inside
// Lambda) and any S3-compatible endpoint reachable through MinIO's client.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
)

// ContentTypeText is the content type of every object the gateway writes.
const ContentTypeText = "text/plain"

// projectTagKey and projectTagValue label written objects for cost allocation.
const (
	projectTagKey   = "Project"
	projectTagValue = "transcript-summarizer"
)

// Sentinel causes attached to read failures so callers can tell a missing
// object from a permissions problem.
var (
	ErrNotFound     = errors.New("object not found")
	ErrAccessDenied = errors.New("access denied")
	ErrInvalidUTF8  = errors.New("object is not valid UTF-8 text")
)

// Location formats a bucket/key pair as an s3:// URI.
func Location(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// decodeBody reads an object body and returns it as text. Bodies stored
// gzip-compressed (by key suffix or Content-Encoding) are inflated first.
func decodeBody(body io.Reader, key, contentEncoding string) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if isGzipped(key, contentEncoding, raw) {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return "", fmt.Errorf("open gzip body: %w", err)
		}
		defer zr.Close()
		if raw, err = io.ReadAll(zr); err != nil {
			return "", fmt.Errorf("inflate gzip body: %w", err)
		}
	}

	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

// isGzipped checks the key suffix and Content-Encoding, and confirms the
// gzip magic bytes so a mislabeled plain-text object still decodes.
func isGzipped(key, contentEncoding string, raw []byte) bool {
	labeled := strings.HasSuffix(strings.ToLower(key), ".gz") ||
		strings.EqualFold(strings.TrimSpace(contentEncoding), "gzip")
	return labeled && len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b
}
