// internal/adapters/storage/storage.go
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// Kinds accepted by New
const (
	KindS3    = "s3"
	KindLocal = "local"
)

// New opens the object storage selected by kind. Local storage lives under
// localDir/stockledger.
func New(ctx context.Context, kind string, s3cfg *S3Config, localDir string, logger *slog.Logger) (ports.ObjectStorage, error) {
	switch kind {
	case KindS3:
		return NewS3Storage(ctx, s3cfg, logger)
	case KindLocal:
		return NewLocalStorage(filepath.Join(localDir, "stockledger"), logger), nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", kind)
	}
}
