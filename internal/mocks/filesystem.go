// Package mocks provides mock implementations for testing.
package mocks

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcdonaldj/wheeledit/internal/ports"
)

// MockFileSystem implements ports.FileSystem for testing.
type MockFileSystem struct {
	// Files maps paths to file contents for ReadFile/WriteFile
	Files map[string][]byte
	// Dirs maps paths to directory entries for ReadDir
	Dirs map[string][]os.DirEntry
	// Stats maps paths to FileInfo for Stat
	Stats map[string]os.FileInfo
	// Errors maps paths to errors (for simulating failures)
	Errors map[string]error
	// WalkEntries contains entries to return during Walk
	WalkEntries []WalkEntry
	// TempDir is the path MkdirTemp returns
	TempDir string
	// RemovedPaths records calls to RemoveAll
	RemovedPaths []string
	// RenameCalls records (old, new) pairs from Rename
	RenameCalls [][2]string
	// CopyCalls records (src, dst) pairs from CopyFile
	CopyCalls [][2]string
}

// WalkEntry represents a file or directory entry for Walk testing.
type WalkEntry struct {
	Path string
	Info os.FileInfo
	Err  error
}

// NewMockFileSystem creates a new mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:   make(map[string][]byte),
		Dirs:    make(map[string][]os.DirEntry),
		Stats:   make(map[string]os.FileInfo),
		Errors:  make(map[string]error),
		TempDir: "/tmp/wheeledit-mock",
	}
}

// ReadDir reads the named directory and returns directory entries.
func (m *MockFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if entries, ok := m.Dirs[name]; ok {
		return entries, nil
	}
	return nil, os.ErrNotExist
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if info, ok := m.Stats[name]; ok {
		return info, nil
	}
	// Check if we have file content (implies file exists)
	if _, ok := m.Files[name]; ok {
		return &MockFileInfo{FileName: filepath.Base(name), FileSize: int64(len(m.Files[name]))}, nil
	}
	return nil, os.ErrNotExist
}

// MkdirAll creates a directory along with any necessary parents.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if err, ok := m.Errors[path]; ok {
		return err
	}
	m.Stats[path] = &MockFileInfo{FileName: filepath.Base(path), Dir: true}
	return nil
}

// MkdirTemp creates a new temporary directory and returns its path.
func (m *MockFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	if err, ok := m.Errors["MkdirTemp"]; ok {
		return "", err
	}
	m.Stats[m.TempDir] = &MockFileInfo{FileName: filepath.Base(m.TempDir), Dir: true}
	return m.TempDir, nil
}

// Open opens the named file for reading.
func (m *MockFileSystem) Open(name string) (io.ReadCloser, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if content, ok := m.Files[name]; ok {
		return io.NopCloser(bytes.NewReader(content)), nil
	}
	return nil, os.ErrNotExist
}

// ReadFile reads the named file and returns the contents.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if content, ok := m.Files[name]; ok {
		return content, nil
	}
	return nil, os.ErrNotExist
}

// WriteFile writes data to the named file, creating it if necessary.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err, ok := m.Errors[name]; ok {
		return err
	}
	m.Files[name] = data
	return nil
}

// Rename renames (moves) oldpath to newpath.
func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	if err, ok := m.Errors[oldpath]; ok {
		return err
	}
	m.RenameCalls = append(m.RenameCalls, [2]string{oldpath, newpath})
	if content, ok := m.Files[oldpath]; ok {
		m.Files[newpath] = content
		delete(m.Files, oldpath)
	}
	if info, ok := m.Stats[oldpath]; ok {
		m.Stats[newpath] = info
		delete(m.Stats, oldpath)
	}
	// Move any children along with a directory
	for k, v := range m.Files {
		if strings.HasPrefix(k, oldpath+string(filepath.Separator)) {
			m.Files[newpath+strings.TrimPrefix(k, oldpath)] = v
			delete(m.Files, k)
		}
	}
	return nil
}

// RemoveAll removes path and any children it contains.
func (m *MockFileSystem) RemoveAll(path string) error {
	if err, ok := m.Errors[path]; ok {
		return err
	}
	m.RemovedPaths = append(m.RemovedPaths, path)
	for k := range m.Files {
		if strings.HasPrefix(k, path) {
			delete(m.Files, k)
		}
	}
	for k := range m.Stats {
		if strings.HasPrefix(k, path) {
			delete(m.Stats, k)
		}
	}
	return nil
}

// CopyFile copies src to dst.
func (m *MockFileSystem) CopyFile(src, dst string) error {
	if err, ok := m.Errors[src]; ok {
		return err
	}
	m.CopyCalls = append(m.CopyCalls, [2]string{src, dst})
	content, ok := m.Files[src]
	if !ok {
		return os.ErrNotExist
	}
	m.Files[dst] = content
	return nil
}

// Chtimes changes the access and modification times of the named file.
func (m *MockFileSystem) Chtimes(name string, atime, mtime time.Time) error {
	if err, ok := m.Errors[name]; ok {
		return err
	}
	return nil
}

// Walk walks the file tree rooted at root, calling fn for each file or directory.
func (m *MockFileSystem) Walk(root string, fn ports.WalkFunc) error {
	for _, entry := range m.WalkEntries {
		if strings.HasPrefix(entry.Path, root) {
			if err := fn(entry.Path, entry.Info, entry.Err); err != nil {
				if err == filepath.SkipDir || err == filepath.SkipAll {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// MockFileInfo implements os.FileInfo for testing.
type MockFileInfo struct {
	FileName string
	FileSize int64
	FileMode os.FileMode
	Modified time.Time
	Dir      bool
}

func (fi *MockFileInfo) Name() string       { return fi.FileName }
func (fi *MockFileInfo) Size() int64        { return fi.FileSize }
func (fi *MockFileInfo) Mode() os.FileMode  { return fi.FileMode }
func (fi *MockFileInfo) ModTime() time.Time { return fi.Modified }
func (fi *MockFileInfo) IsDir() bool        { return fi.Dir }
func (fi *MockFileInfo) Sys() interface{}   { return nil }

// MockDirEntry implements os.DirEntry for testing.
type MockDirEntry struct {
	EntryName string
	Dir       bool
}

func (e *MockDirEntry) Name() string      { return e.EntryName }
func (e *MockDirEntry) IsDir() bool       { return e.Dir }
func (e *MockDirEntry) Type() os.FileMode { return 0 }
func (e *MockDirEntry) Info() (os.FileInfo, error) {
	return &MockFileInfo{FileName: e.EntryName, Dir: e.Dir}, nil
}

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
