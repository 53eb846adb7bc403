package rawdata

import (
	"context"

	"chambercore/internal/infra/rawdata/fs"
	"chambercore/internal/infra/rawdata/memory"
	"chambercore/internal/infra/rawdata/s3"
)

// NewMemory returns an in-memory archive store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a filesystem archive store rooted at root.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// S3Config configures an S3-compatible archive backend.
type S3Config = s3.Config

// NewS3 returns an archive store backed by an S3-compatible service.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return s3.New(ctx, cfg)
}

// NewMockS3ForTests returns an S3-backed store with a mocked transport.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
