package blobstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/eaglenest7/infino/errs"
)

// Local is the filesystem-backed Store, keyed under a root directory.
// Keys map to paths via filepath.Join(root, key); nested directories are
// created on demand.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating it if absent.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, classifyOSError(err)
	}

	return &Local{root: dir}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Put writes data to the file at key, creating parent directories and
// writing to a temporary file first so a concurrent Get never observes a
// partial write.
func (l *Local) Put(_ context.Context, key string, data []byte) error {
	target := l.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return classifyOSError(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return classifyOSError(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return classifyOSError(err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return classifyOSError(err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)

		return classifyOSError(err)
	}

	return nil
}

// Get reads the file at key.
func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Newf(err, errs.NotFound, "blobstore: key %q not found", key)
		}

		return nil, classifyOSError(err)
	}

	return data, nil
}

// Delete removes the file at key. A missing file is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return classifyOSError(err)
	}

	return nil
}

// List returns every key under prefix.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	root := l.path(prefix)

	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}

		keys = append(keys, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, classifyOSError(err)
	}

	return keys, nil
}

// Exists reports whether the file at key is present.
func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, classifyOSError(err)
}

// classifyOSError maps filesystem errors to the blob store's retry taxonomy.
// Permission, read-only-filesystem and no-space-left failures are permanent;
// everything else (including transient I/O errors) is treated as retryable.
func classifyOSError(err error) error {
	if errors.Is(err, os.ErrPermission) {
		return errs.New(err, errs.StoragePermanent, "blobstore: permission denied")
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.EROFS, syscall.ENOSPC:
				return errs.New(err, errs.StoragePermanent, "blobstore: filesystem error")
			}
		}
	}

	if strings.Contains(err.Error(), "too many open files") {
		return errs.New(err, errs.StorageTransient, "blobstore: resource exhausted")
	}

	return errs.New(err, errs.StorageTransient, "blobstore: I/O error")
}
