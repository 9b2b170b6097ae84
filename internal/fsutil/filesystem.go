// Package fsutil lets the frame loader and the snapshot renderer run against
// either the real disk or an in-memory tree.
package fsutil

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSystem is the file access the loader and renderers need.
// Use OSFileSystem for production; MemoryFileSystem for testing.
type FileSystem interface {
	// Open opens the named file for streaming reads (PCD input).
	Open(name string) (fs.File, error)

	// Create creates or truncates the named file (PNG snapshots).
	Create(name string) (io.WriteCloser, error)

	// ReadFile reads a whole file (.bin points and .label arrays).
	ReadFile(name string) ([]byte, error)

	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory is present.
	Exists(name string) bool
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error)            { return os.Open(name) }
func (OSFileSystem) Create(name string) (io.WriteCloser, error)   { return os.Create(name) }
func (OSFileSystem) ReadFile(name string) ([]byte, error)         { return os.ReadFile(name) }
func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Exists reports whether name can be stat'ed.
func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// MemoryFileSystem keeps frames and snapshots in memory. Paths are cleaned
// before lookup, so "/a/../b" and "/b" name the same file.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

// NewMemoryFileSystem creates an empty tree.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
	}
}

// WriteFile stores a copy of data under name. It is a fixture helper and not
// part of FileSystem.
func (m *MemoryFileSystem) WriteFile(name string, data []byte) error {
	m.put(name, bytes.Clone(data))
	return nil
}

func (m *MemoryFileSystem) put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data == nil {
		data = []byte{}
	}
	m.files[filepath.Clean(name)] = data
}

func (m *MemoryFileSystem) get(op, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

// Open returns a read-only view of the named file.
func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	data, err := m.get("open", name)
	if err != nil {
		return nil, err
	}
	return &openFile{Reader: bytes.NewReader(data), name: filepath.Base(name), size: int64(len(data))}, nil
}

// ReadFile returns a copy of the named file.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	data, err := m.get("read", name)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// Create truncates name now; the written bytes replace it on Close.
func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	m.put(name, nil)
	return &pendingFile{fs: m, name: name}, nil
}

// MkdirAll records path and every parent as a directory.
func (m *MemoryFileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := filepath.Clean(path); p != "." && p != "/"; p = filepath.Dir(p) {
		m.dirs[p] = struct{}{}
	}
	return nil
}

// Exists reports whether name is a stored file or a recorded directory.
func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	if _, ok := m.files[name]; ok {
		return true
	}
	_, ok := m.dirs[name]
	return ok
}

type openFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *openFile) Close() error               { return nil }
func (f *openFile) Stat() (fs.FileInfo, error) { return fileInfo{name: f.name, size: f.size}, nil }

type pendingFile struct {
	fs   *MemoryFileSystem
	name string
	buf  bytes.Buffer
}

func (f *pendingFile) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *pendingFile) Close() error {
	f.fs.put(f.name, f.buf.Bytes())
	return nil
}

type fileInfo struct {
	name string
	size int64
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) Mode() fs.FileMode  { return 0444 }
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool        { return false }
func (i fileInfo) Sys() any           { return nil }
