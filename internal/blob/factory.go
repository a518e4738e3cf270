package blob

import (
	"context"
	"fmt"
	"os"

	"culturecore/internal/infra/blob/fs"
	memorystore "culturecore/internal/infra/blob/memory"
	infraS3 "culturecore/internal/infra/blob/s3"
)

// Open selects a blob.Store implementation using environment variables.
//
//	CULTURECORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	CULTURECORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("CULTURECORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("CULTURECORE_BLOB_FS_ROOT")
		return NewFilesystem(root)
	case DriverS3:
		return infraS3.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// NewFilesystem constructs a filesystem-backed blob.Store rooted at the
// provided path. Returns blob.Store to encourage call sites to depend on the
// interface instead of concrete implementations.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// NewMemory returns an in-memory blob.Store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// S3Config re-exports the infra S3 configuration type.
type S3Config = infraS3.Config

// NewS3 constructs an S3-backed blob.Store from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infraS3.New(ctx, cfg)
}
