package rawdata

import (
	"context"
	"fmt"
	"os"

	"chambercore/internal/infra/rawdata/fs"
	"chambercore/internal/infra/rawdata/memory"
	"chambercore/internal/infra/rawdata/s3"
)

// Open selects a rawdata.Store implementation using environment variables.
//
//	CHAMBERCORE_RAWDATA_DRIVER: fs|s3|memory (default fs)
//	CHAMBERCORE_RAWDATA_FS_ROOT: directory root when driver=fs (default ./rawdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("CHAMBERCORE_RAWDATA_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("CHAMBERCORE_RAWDATA_FS_ROOT")
		return fs.New(root)
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown rawdata driver %s", driver)
	}
}
