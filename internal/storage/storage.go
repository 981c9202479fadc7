// Package storage manages the directory segment files are written to.
// It defines the Storage interface used by the segment writer and
// implementations for local disk and local disk plus S3 publication.
package storage

import (
	"context"
	"io"
	"os"
)

// Storage defines where segment files are created and published.
type Storage interface {
	// Dir returns the output directory.
	Dir() string

	// Create creates (or truncates) the named file in the output directory.
	// The directory is created on first use.
	Create(ctx context.Context, name string) (*os.File, error)

	// Open reads a file previously created by Create.
	// The caller is responsible for closing the returned ReadCloser.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes the specified files.
	// It continues even if some files fail to delete.
	Remove(ctx context.Context, paths []string) error

	// Publish uploads data under key and returns its URL.
	// Returns ErrS3NotConfigured if publication is not configured.
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}
