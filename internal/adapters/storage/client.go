// Package storage provides a domain-agnostic interface for S3-compatible object storage.
// Objects written here are served publicly, so every key must be unguessable.
package storage

import (
	"context"
	"io"
)

// ObjectStore defines the object storage operations used by the application.
type ObjectStore interface {
	// PutObject writes an object under the exact key given.
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error

	// PublicURL returns the stable, anonymously fetchable URL of an object.
	PublicURL(bucket, key string) string

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, key string) error

	// EnsureBucketExists creates the bucket if it doesn't exist and makes its objects publicly readable.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// ValidateContentType checks if the content type is an accepted image type.
	ValidateContentType(contentType string) error

	// ValidateFileSize checks if the file size is within limits.
	ValidateFileSize(sizeBytes int64) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	IsMinIOEnabled() bool
}
