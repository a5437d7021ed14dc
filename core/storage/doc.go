// Package storage provides an S3-compatible keystore backend.
//
// Operators that keep their signed key files in a bucket point the settings
// document's keystore URL at "s3://bucket/prefix" instead of an HTTP(S)
// location. This package wraps the MinIO Go client so that both AWS S3 and
// self-hosted MinIO instances work.
//
// # Client Interface
//
// The Client interface exposes only what the keystore needs and can be
// mocked for unit tests (see core/storage/mocks).
//
// # Usage
//
//	loc, err := storage.ParseURL("s3://keys/arma3")
//	client, err := storage.NewClient(cfg.Storage)
//	obj, err := client.GetObject(ctx, loc.Bucket, loc.ObjectName("ace.bikey"), minio.GetObjectOptions{})
package storage
