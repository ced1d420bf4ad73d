package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	ProviderGCS   = "gcs"
	ProviderLocal = "local"
)

// BlobStore holds submitted files between the gateway and the worker. Queue
// items carry the object key, not the bytes, so the store must be shared by
// both processes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

func GetProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return ProviderGCS
	}
	return provider
}

// ForProvider returns the blob store selected by STORAGE_PROVIDER.
func ForProvider() (BlobStore, error) {
	switch GetProvider() {
	case ProviderGCS:
		return &GCSStore{}, nil
	case ProviderLocal:
		dir := strings.TrimSpace(os.Getenv("LOCAL_STORAGE_DIR"))
		if dir == "" {
			dir = "./data/uploads"
		}
		return &LocalStore{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("storage provider %q not supported", GetProvider())
	}
}
