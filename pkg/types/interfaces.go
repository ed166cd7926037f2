package types

import (
	"io"
	"io/fs"
)

// FS abstracts the filesystem operations the engines need, so tests
// can run against temp directories and future callers can substitute
// in-memory implementations.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	MkdirAll(path string, perm fs.FileMode) error
	Rename(oldpath, newpath string) error
	Remove(name string) error
	RemoveAll(path string) error
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, error)
}

// Trasher moves items into a recoverable trash area and restores them.
// Put returns an opaque key identifying the trashed location; Restore
// fails if the trashed item is no longer recoverable.
type Trasher interface {
	Put(path string) (key string, err error)
	Restore(key, originalPath string) error
}
