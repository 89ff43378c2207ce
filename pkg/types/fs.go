package types

import "io/fs"

// FS abstracts the filesystem operations dotconf performs so the engine and
// its collaborators can run against an in-memory filesystem in tests.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error

	// CreateExclusive atomically creates name with the given content,
	// failing if it already exists. Used for the registry lock file.
	CreateExclusive(name string, data []byte) error
}
