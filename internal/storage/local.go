package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps objects as plain files under a root directory. Used in
// development and tests, where a MinIO endpoint is not available.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	path, err := l.objectPath(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (l *LocalStore) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	path, err := l.objectPath(objectName)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (l *LocalStore) Delete(ctx context.Context, objectName string) error {
	path, err := l.objectPath(objectName)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// objectPath confines object names to the root directory.
func (l *LocalStore) objectPath(objectName string) (string, error) {
	clean := filepath.Clean("/" + objectName)
	if strings.Contains(clean, "..") {
		return "", os.ErrInvalid
	}
	return filepath.Join(l.root, clean), nil
}
