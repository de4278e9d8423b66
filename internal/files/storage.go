package files

import (
	"context"
	"fmt"
	"net/url"
	"path"
)

// Storage is the blob-store boundary. The platform only issues keys and
// URLs; actual byte transfer is the client's business against the store.
type Storage interface {
	// UploadURL returns the location a client should PUT the object to.
	UploadURL(ctx context.Context, objectKey string) (string, error)
	// Remove deletes the stored object.
	Remove(ctx context.Context, objectKey string) error
}

// LocalStorage is the development adapter: it maps object keys onto a static
// file prefix and treats removal as a no-op for missing objects.
type LocalStorage struct {
	BaseURL string
}

// NewLocalStorage constructs the development adapter.
func NewLocalStorage(baseURL string) *LocalStorage {
	return &LocalStorage{BaseURL: baseURL}
}

func (s *LocalStorage) UploadURL(_ context.Context, objectKey string) (string, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse storage base url: %w", err)
	}
	base.Path = path.Join(base.Path, objectKey)
	return base.String(), nil
}

func (s *LocalStorage) Remove(_ context.Context, _ string) error {
	return nil
}

var _ Storage = (*LocalStorage)(nil)
