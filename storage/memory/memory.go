// Package memory is an in-process artifact store. Nothing survives the
// process; it backs tests and dry runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(storage.Config, *logger.Logger) (storage.Storage, error) {
		return New(), nil
	})
}

type object struct {
	data    []byte
	modTime time.Time
}

// Storage keeps objects in a map guarded by a RWMutex.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New returns an empty store.
func New() *Storage {
	return &Storage{objects: make(map[string]object)}
}

func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: read upload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[path] = object{data: data, modTime: time.Now()}
	s.mu.Unlock()
	return nil
}

func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	delete(s.objects, path)
	s.mu.Unlock()
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	_, ok := s.objects[path]
	s.mu.RUnlock()
	return ok, nil
}

func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var files []storage.FileInfo
	for p, obj := range s.objects {
		if strings.HasPrefix(p, prefix) {
			files = append(files, storage.FileInfo{Path: p, Size: int64(len(obj.data)), LastModified: obj.modTime})
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Put replaces the raw bytes at path. Tests use it to plant corrupt objects.
func (s *Storage) Put(path string, data []byte) {
	s.mu.Lock()
	s.objects[path] = object{data: append([]byte(nil), data...), modTime: time.Now()}
	s.mu.Unlock()
}

// compile-time check
var _ storage.Storage = (*Storage)(nil)
