// Package filesystem abstracts the file system mutations performed while
// mirroring a repository so that callers can substitute fakes in tests.
package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem lists the operations used to mirror remote content locally.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, permissions fs.FileMode) error
	Create(path string, permissions fs.FileMode) (io.WriteCloser, error)
	Rename(oldPath string, newPath string) error
	RemoveAll(path string) error
	Remove(path string) error
	Abs(path string) (string, error)
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether path is present. Errors other than absence are returned.
func (OSFileSystem) Exists(path string) (bool, error) {
	_, statError := os.Lstat(path)
	if statError == nil {
		return true, nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, statError
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// Create truncates or creates a file for writing.
func (OSFileSystem) Create(path string, permissions fs.FileMode) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, permissions)
}

// Rename renames a path.
func (OSFileSystem) Rename(oldPath string, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// RemoveAll deletes path and any children it contains.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Remove deletes a single file or empty directory.
func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}
