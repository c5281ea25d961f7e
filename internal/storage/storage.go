// backend-go/internal/storage/storage.go
package storage

import (
	"context"
	"time"
)

// ObjectInfo is the metadata of one remote object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is the minimal S3-compatible surface the exporters need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}
