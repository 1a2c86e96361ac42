package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Aashish788/clouddrive/internal/config"
)

// ObjectStore holds completed file content. Implementations must be safe
// for concurrent use.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectName string) error
}

// New builds the configured backend. "minio" talks to any S3-compatible
// endpoint; "local" keeps objects on the server's disk.
func New(cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		client, err := NewMinIOStore(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		return client, nil
	case "local":
		return NewLocalStore(cfg.Storage.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
