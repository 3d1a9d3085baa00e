// Package storage holds uploaded document files.  Keys are slash
// separated and start with a partition (temp, documents, licenses).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iliyamo/taxischool/internal/config"
)

// ErrNotExist is returned when a key has no blob behind it.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore is the file side of the two-phase document upload.  Moves
// are not transactional with the database; callers treat a missing
// blob as a skipped item.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	MoveToPermanent(ctx context.Context, tempKey, permanentKey string) error
	Delete(ctx context.Context, key string) error
}

// New returns the backend selected by cfg.Driver.
func New(cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(cfg.AWSRegion, cfg.AWSBucket, cfg.AWSAccessKey, cfg.AWSSecretKey)
	case "", "local":
		return NewLocal(cfg.UploadRoot)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
