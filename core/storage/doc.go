// Package storage wraps the MinIO client used to archive run reports.
//
// The Client interface carries only the operations the archive needs, which
// keeps core/storage/mocks small. NewClient accepts endpoints with or without
// a scheme and applies TimeoutSeconds to connection setup and response headers.
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
