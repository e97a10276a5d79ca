package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

var fileNames = map[Collection]string{
	CollectionUsers:   "users_data.json",
	CollectionTickets: "tickets_data.json",
}

// FileBackend keeps each collection in its own JSON file under dir.
type FileBackend struct {
	dir string
}

// NewFileBackend returns a backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file backing collection.
func (b *FileBackend) Path(collection Collection) string {
	name, ok := fileNames[collection]
	if !ok {
		name = string(collection) + "_data.json"
	}
	return filepath.Join(b.dir, name)
}

func (b *FileBackend) Read(_ context.Context, collection Collection) ([]byte, bool, error) {
	data, err := os.ReadFile(b.Path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Write replaces the file via a temp file and rename so readers never see a
// partial collection.
func (b *FileBackend) Write(_ context.Context, collection Collection, data []byte) error {
	path := b.Path(collection)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	// atomic.WriteFile doesn't set permissions for new files
	return os.Chmod(path, filePerms)
}

func (b *FileBackend) Ping(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}
