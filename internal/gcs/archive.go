// Package gcs archives raw utterance audio and receipt images in Google
// Cloud Storage so verification can re-fetch a document later by URI.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archive stores and retrieves immutable binary artifacts.
type Archive interface {
	// StoreAudio saves utterance audio and returns its gs:// URI.
	StoreAudio(ctx context.Context, userID string, data []byte, contentType string) (string, error)

	// StoreReceipt saves a receipt image and returns its gs:// URI.
	StoreReceipt(ctx context.Context, userID string, data []byte, contentType string) (string, error)

	// Fetch downloads the bytes behind a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

const uploadTimeout = 2 * time.Minute

// BucketArchive is the Cloud Storage implementation of Archive. All objects
// live in one bucket, segmented by user and artifact kind.
type BucketArchive struct {
	client *storage.Client
	bucket string
}

// NewBucketArchive creates an archive on the given bucket. It assumes
// Application Default Credentials are configured.
func NewBucketArchive(ctx context.Context, bucket string) (*BucketArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &BucketArchive{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (a *BucketArchive) Close() error {
	return a.client.Close()
}

func (a *BucketArchive) StoreAudio(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	object := fmt.Sprintf("audio/%s/%s%s", userID, uuid.NewString(), extensionFor(contentType))
	return a.store(ctx, object, data, contentType)
}

func (a *BucketArchive) StoreReceipt(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	object := fmt.Sprintf("receipts/%s/%s%s", userID, uuid.NewString(), extensionFor(contentType))
	return a.store(ctx, object, data, contentType)
}

func (a *BucketArchive) store(ctx context.Context, object string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing upload of %s: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, object), nil
}

func (a *BucketArchive) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading object bytes: %w", err)
	}
	return data, nil
}

// parseURI splits a gs://bucket/path URI.
func parseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid storage URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("storage URI has no object path: %s", uri)
	}
	return parts[0], parts[1], nil
}

// ObjectName extracts the bare filename from a gs:// URI.
func ObjectName(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}

var _ Archive = (*BucketArchive)(nil)
