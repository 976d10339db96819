package storage

import (
	"bytes"
	"context"
	"io"
)

// WriteFile stores data at path.
func WriteFile(ctx context.Context, s Storage, path string, data []byte) error {
	return s.Upload(ctx, path, bytes.NewReader(data))
}

// ReadFile reads the whole object at path.
func ReadFile(ctx context.Context, s Storage, path string) ([]byte, error) {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
