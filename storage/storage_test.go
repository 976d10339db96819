package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/storage"
	"github.com/kbukum/mlopskit/storage/local"
	"github.com/kbukum/mlopskit/storage/memory"
)

func backends(t *testing.T) map[string]storage.Storage {
	t.Helper()
	l, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("local.NewStorage: %v", err)
	}
	return map[string]storage.Storage{
		"local":  l,
		"memory": memory.New(),
	}
}

func TestStorageContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := storage.WriteFile(ctx, s, "runs/a/model_trainer/model", []byte("v1")); err != nil {
				t.Fatalf("upload: %v", err)
			}
			if err := storage.WriteFile(ctx, s, "runs/a/model_trainer/model", []byte("v2")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if err := storage.WriteFile(ctx, s, "runs/b/evaluation/accuracy", []byte("0.8")); err != nil {
				t.Fatalf("upload: %v", err)
			}

			got, err := storage.ReadFile(ctx, s, "runs/a/model_trainer/model")
			if err != nil || string(got) != "v2" {
				t.Fatalf("expected v2, got %q (%v)", got, err)
			}

			ok, err := s.Exists(ctx, "runs/a/model_trainer/model")
			if err != nil || !ok {
				t.Errorf("expected object to exist, got %v (%v)", ok, err)
			}
			ok, _ = s.Exists(ctx, "runs/missing")
			if ok {
				t.Error("expected missing object to not exist")
			}

			files, err := s.List(ctx, "runs/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(files) != 2 || files[0].Path != "runs/a/model_trainer/model" || files[1].Path != "runs/b/evaluation/accuracy" {
				t.Errorf("unexpected listing %+v", files)
			}
			if files[0].Size != 2 {
				t.Errorf("expected size 2, got %d", files[0].Size)
			}

			if err := s.Delete(ctx, "runs/a/model_trainer/model"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := s.Delete(ctx, "runs/a/model_trainer/model"); err != nil {
				t.Errorf("second delete should be a no-op, got %v", err)
			}
			_, err = s.Download(ctx, "runs/a/model_trainer/model")
			if !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestLocalRejectsEscapingPaths(t *testing.T) {
	s, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	err = s.Upload(context.Background(), "../outside", strings.NewReader("x"))
	if err == nil {
		t.Error("expected error for a path outside the base directory")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestLocalFailedUploadKeepsPreviousObject(t *testing.T) {
	ctx := context.Background()
	s, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.WriteFile(ctx, s, "obj", []byte("good")); err != nil {
		t.Fatal(err)
	}
	if err := s.Upload(ctx, "obj", failingReader{}); err == nil {
		t.Fatal("expected upload error")
	}
	got, err := storage.ReadFile(ctx, s, "obj")
	if err != nil || string(got) != "good" {
		t.Errorf("expected previous content to survive, got %q (%v)", got, err)
	}
	files, _ := s.List(ctx, "")
	if len(files) != 1 {
		t.Errorf("expected temp files to be cleaned up, got %+v", files)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	log := logger.NewNop()

	s, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, log)
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, ok := s.(*local.Storage); !ok {
		t.Errorf("expected *local.Storage, got %T", s)
	}

	s, err = storage.New(storage.Config{Provider: storage.ProviderMemory}, log)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*memory.Storage); !ok {
		t.Errorf("expected *memory.Storage, got %T", s)
	}

	if _, err := storage.New(storage.Config{Provider: "gcs"}, log); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"local defaults", storage.Config{}, false},
		{"memory", storage.Config{Provider: storage.ProviderMemory}, false},
		{"s3 ok", storage.Config{Provider: storage.ProviderS3, Bucket: "artifacts"}, false},
		{"s3 missing bucket", storage.Config{Provider: storage.ProviderS3}, true},
		{"s3 half credentials", storage.Config{Provider: storage.ProviderS3, Bucket: "b", AccessKey: "k"}, true},
		{"unknown", storage.Config{Provider: "ftp"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
