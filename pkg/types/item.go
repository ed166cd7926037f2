package types

import (
	"path/filepath"
	"strings"
	"time"
)

// ItemStatus tracks the processing state of a FileItem within a run.
type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemSuccess ItemStatus = "success"
	ItemError   ItemStatus = "error"
	ItemSkipped ItemStatus = "skipped"
)

// OperationKind identifies the kind of filesystem mutation performed
// (or planned) for an item.
type OperationKind string

const (
	OpMove         OperationKind = "move"
	OpCopy         OperationKind = "copy"
	OpRename       OperationKind = "rename"
	OpDelete       OperationKind = "delete"
	OpCreateFolder OperationKind = "createFolder"
)

// FileItem is one file or directory flowing through a workflow run.
// During preview items are never mutated on disk; NewPath records the
// intended destination. During execute the pipeline updates Path,
// Status and Error as actions are applied.
type FileItem struct {
	ID          string
	Path        string
	Name        string
	Extension   string // with leading dot, empty for directories
	Size        int64
	IsDirectory bool
	CreatedAt   time.Time
	ModifiedAt  time.Time

	// Root is the input root this item was enumerated under; RelPath is
	// the item's path relative to Root. Both drive structure-preserving
	// classification and the default move/copy destination.
	Root    string
	RelPath string

	Status    ItemStatus
	Error     string
	NewPath   string
	Operation OperationKind
}

// Stem returns the item's name without its extension.
func (f *FileItem) Stem() string {
	if f.IsDirectory || f.Extension == "" {
		return f.Name
	}
	return strings.TrimSuffix(f.Name, f.Extension)
}

// NewFileItemFromPath builds a FileItem for a path with the given stat
// metadata. Root may equal path's directory for top-level inputs.
func NewFileItemFromPath(id, path, root string, size int64, isDir bool, created, modified time.Time) *FileItem {
	name := filepath.Base(path)
	ext := ""
	if !isDir {
		ext = filepath.Ext(name)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = name
	}
	return &FileItem{
		ID:          id,
		Path:        path,
		Name:        name,
		Extension:   ext,
		Size:        size,
		IsDirectory: isDir,
		CreatedAt:   created,
		ModifiedAt:  modified,
		Root:        root,
		RelPath:     rel,
		Status:      ItemPending,
	}
}
