// Package core defines the abstractions for raw-data archive backends. The
// archive holds the acquisition files a run's samples were decoded from
// (channel logs, mass traces), keyed per run.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete archive backend implementation.
type Driver string

const (
	// DriverFilesystem archives under a local directory, the default for
	// development.
	DriverFilesystem Driver = "fs"
	// DriverS3 archives in an S3 or MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps everything in process, for tests.
	DriverMemory Driver = "memory"
)

// PutOptions carries the optional attributes of an archive write.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string // flat key-value pairs stored with the file
}

// SignedURLOptions configures pre-signed URL generation.
type SignedURLOptions struct {
	Method  string        // HTTP method the URL authorizes, GET when empty
	Expiry  time.Duration // defaults to 15m
	Headers map[string]string
}

// Info describes a stored archive object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store provides a thin S3-like abstraction over archive backends. Put is
// create-only: acquisition files are immutable once archived.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("rawdata: unsupported operation")
