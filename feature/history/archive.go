package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// Archive stores run reports as JSON objects.
type Archive struct {
	client storage.Client
	bucket string
}

// NewArchive creates an archive writing to bucket.
func NewArchive(client storage.Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// ReportKey is the object key of a run's report.
func ReportKey(runID string) string {
	return "reports/" + runID + ".json"
}

// EnsureBucket creates the bucket when it does not exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Put uploads the report and returns its key.
func (a *Archive) Put(ctx context.Context, runID string, res *reconcile.Results) (string, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := ReportKey(runID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return key, nil
}

// Open returns a reader over the stored report.
func (a *Archive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open report %s: %w", key, err)
	}
	return obj, nil
}

// Remove deletes reports. Every key is attempted.
func (a *Archive) Remove(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove report %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
