package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// DirSource reads assets from a directory tree.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at dir. A leading ~ is expanded.
func NewDirSource(dir string) (*DirSource, error) {
	root, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding asset root %q: %w", dir, err)
	}
	return &DirSource{root: filepath.Clean(root)}, nil
}

// Root returns the expanded root directory.
func (d *DirSource) Root() string {
	return d.root
}

// Path returns the filesystem path of an asset.
func (d *DirSource) Path(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(path))
}

// Open opens the asset file. ctx is only checked before opening.
func (d *DirSource) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(d.Path(path))
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// MemSource serves assets from memory. Useful for tests and embedded assets.
type MemSource struct {
	mu    sync.RWMutex
	files map[string][]byte
	// HideSize makes Open report size 0, like a transfer of unknown length.
	HideSize bool
}

// NewMemSource creates a source over files (path → content).
func NewMemSource(files map[string][]byte) *MemSource {
	m := &MemSource{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// Put adds or replaces a file.
func (m *MemSource) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
}

// Open returns a reader over the file's content.
func (m *MemSource) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	data, ok := m.files[path]
	m.mu.RUnlock()
	if !ok {
		return nil, 0, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	size := int64(len(data))
	if m.HideSize {
		size = 0
	}
	return io.NopCloser(bytes.NewReader(data)), size, nil
}
