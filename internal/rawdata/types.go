// Package rawdata re-exports the archive abstractions and provides the
// run-scoped key scheme plus the environment-driven factory.
package rawdata

import (
	"fmt"
	"strings"

	"chambercore/internal/rawdata/core"
)

type (
	// Driver identifies an archive backend driver.
	Driver = core.Driver
	// PutOptions configures an archive write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored object metadata.
	Info = core.Info
	// Store is the interface for archive backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// RunPrefix returns the key prefix under which a run's acquisition files are
// archived.
func RunPrefix(runID uint64) string {
	return fmt.Sprintf("runs/%d/", runID)
}

// RunKey builds the archive key for one of a run's acquisition files.
func RunKey(runID uint64, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return RunPrefix(runID) + name, nil
}
