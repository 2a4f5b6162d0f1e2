package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions describe an archived deck. Size is -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored deck. Metadata keys are lowercase.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object store used to archive uploaded decks.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get returns ErrObjectNotFound (wrapped) for a missing key.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a download link valid for expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// TempStore holds uploads on local disk for the duration of one conversion.
type TempStore interface {
	// Save writes r to a new file derived from originalName and returns its path.
	Save(ctx context.Context, r io.Reader, originalName string) (string, error)
	// Remove deletes a file previously returned by Save.
	Remove(path string) error
}
