// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small interface covering the calls the
// exporter needs: bucket checks, uploads, downloads and listings. Both AWS S3
// and self-hosted MinIO instances are supported.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: used by EnsureBucket before writing artifacts.
//   - PutObject: uploads artifacts and exported images.
//   - GetObject: reads package documents and existing artifacts. Missing keys
//     fail at call time with a NoSuchKey error response.
//   - ListObjects: builds the file index of a bucket source.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.EnsureBucket(ctx, client, "exports", "")
package storage
