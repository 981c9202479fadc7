package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("does not create the directory up front", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "segments")

		storage, err := NewLocalStorage(dir)
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		if storage.Dir() != dir {
			t.Errorf("Dir() = %v, want %v", storage.Dir(), dir)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("directory should not exist yet, stat err = %v", err)
		}
	})

	t.Run("uses working directory when empty", func(t *testing.T) {
		storage, err := NewLocalStorage("")
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}
		if storage.Dir() != "." {
			t.Errorf("Dir() = %v, want .", storage.Dir())
		}
	})

	t.Run("rejects a path that is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}

		_, err := NewLocalStorage(path)
		if !errors.Is(err, ErrNotDirectory) {
			t.Errorf("expected ErrNotDirectory, got %v", err)
		}
	})
}

func TestLocalStorage_Create(t *testing.T) {
	storage := setupTestStorage(t)

	t.Run("creates directory and file", func(t *testing.T) {
		f, err := storage.Create(context.Background(), "00000.wav")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := f.WriteString("segment"); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}

		content, err := os.ReadFile(filepath.Join(storage.Dir(), "00000.wav"))
		if err != nil {
			t.Fatalf("failed to read created file: %v", err)
		}
		if string(content) != "segment" {
			t.Errorf("got %q, want %q", string(content), "segment")
		}
	})

	t.Run("truncates an existing file", func(t *testing.T) {
		f, err := storage.Create(context.Background(), "00000.wav")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		_ = f.Close()

		info, err := os.Stat(filepath.Join(storage.Dir(), "00000.wav"))
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Size() != 0 {
			t.Errorf("size = %d, want 0", info.Size())
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := storage.Create(ctx, "00001.wav")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_Open(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	t.Run("opens created file", func(t *testing.T) {
		f, err := storage.Create(ctx, "open.wav")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		_, _ = f.WriteString("load data")
		_ = f.Close()

		reader, err := storage.Open(ctx, f.Name())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = reader.Close() }()

		content, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if string(content) != "load data" {
			t.Errorf("got %q, want %q", string(content), "load data")
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		_, err := storage.Open(ctx, "/non/existent/file")
		if err == nil {
			t.Error("expected error for non-existent file")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := storage.Open(ctx, "/some/path")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_Remove(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	t.Run("removes files", func(t *testing.T) {
		var paths []string
		for _, name := range []string{"a.wav", "b.wav", "c.wav"} {
			f, err := storage.Create(ctx, name)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			_ = f.Close()
			paths = append(paths, f.Name())
		}

		if err := storage.Remove(ctx, paths); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}

		for _, p := range paths {
			if _, err := os.Stat(p); !os.IsNotExist(err) {
				t.Errorf("file %s still exists", p)
			}
		}
	})

	t.Run("ignores non-existent files", func(t *testing.T) {
		if err := storage.Remove(ctx, []string{"/non/existent/file"}); err != nil {
			t.Errorf("Remove() should ignore non-existent files, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := storage.Remove(ctx, []string{"/some/path"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_Publish(t *testing.T) {
	storage := setupTestStorage(t)

	_, err := storage.Publish(context.Background(), "key", nil)
	if !errors.Is(err, ErrS3NotConfigured) {
		t.Errorf("expected ErrS3NotConfigured, got %v", err)
	}
}

func setupTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	storage, err := NewLocalStorage(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return storage
}
