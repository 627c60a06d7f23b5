package cert

import (
	"io/fs"
	"os"
)

// FileSystem is the filesystem surface used by Install, Save and Load.
type FileSystem interface {
	MkdirAll(path string, perm fs.FileMode) error
	WriteFile(name string, data []byte, perm fs.FileMode) error
	ReadFile(name string) ([]byte, error)
}

// OSFileSystem implements FileSystem on the local filesystem.
type OSFileSystem struct{}

// Ensure OSFileSystem implements FileSystem.
var _ FileSystem = OSFileSystem{}

func (OSFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}
