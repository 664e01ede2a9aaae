// Package storage wraps the MinIO client for the planner's object storage.
//
// Exported calendars (.ics files) are written under the exports/ prefix of
// the configured bucket, and the ICS importer can read them back. Works
// against AWS S3 and self-hosted MinIO alike.
//
// # Client Interface
//
// Client is the subset of minio.Client the planner calls. Tests use the
// testify based mock in core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
//	    return err
//	}
package storage
