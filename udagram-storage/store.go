// Package udagramstorage provides bucket-scoped object storage for original
// images and their thumbnails, backed by S3, any S3-compatible endpoint via
// MinIO, or process memory.
package udagramstorage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by a ReadError when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Store reads and writes whole objects in a single bucket.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// ReadError reports a failure to fetch an object from the backing store.
type ReadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("unable to read object %v from bucket %v: %v", e.Key, e.Bucket, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failure to store an object.
type WriteError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("unable to write object %v to bucket %v: %v", e.Key, e.Bucket, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
