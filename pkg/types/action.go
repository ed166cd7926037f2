package types

import (
	"github.com/fsweep/fsweep/pkg/errors"
)

// ActionType identifies the kind of mutation an action performs.
type ActionType string

const (
	ActionMove         ActionType = "move"
	ActionCopy         ActionType = "copy"
	ActionRename       ActionType = "rename"
	ActionDelete       ActionType = "delete"
	ActionCreateFolder ActionType = "createFolder"
)

// MoveConfig configures a move action. TargetPath may be empty, in
// which case items move within their original input root.
type MoveConfig struct {
	TargetPath        string         `yaml:"targetPath,omitempty" toml:"targetPath,omitempty" json:"targetPath,omitempty"`
	Naming            NamingPattern  `yaml:"naming" toml:"naming" json:"naming"`
	Classify          ClassifyConfig `yaml:"classify" toml:"classify" json:"classify"`
	ProcessSubfolders bool           `yaml:"processSubfolders,omitempty" toml:"processSubfolders,omitempty" json:"processSubfolders,omitempty"`
	MaxDepth          int            `yaml:"maxDepth,omitempty" toml:"maxDepth,omitempty" json:"maxDepth,omitempty"` // -1 unlimited, else 1..5
}

// CopyConfig configures a copy action, mirroring MoveConfig.
type CopyConfig struct {
	TargetPath        string         `yaml:"targetPath,omitempty" toml:"targetPath,omitempty" json:"targetPath,omitempty"`
	Naming            NamingPattern  `yaml:"naming" toml:"naming" json:"naming"`
	Classify          ClassifyConfig `yaml:"classify" toml:"classify" json:"classify"`
	ProcessSubfolders bool           `yaml:"processSubfolders,omitempty" toml:"processSubfolders,omitempty" json:"processSubfolders,omitempty"`
	MaxDepth          int            `yaml:"maxDepth,omitempty" toml:"maxDepth,omitempty" json:"maxDepth,omitempty"`
}

// RenameConfig configures a rename action; the item stays in its
// directory and only the name is recomputed.
type RenameConfig struct {
	Naming NamingPattern `yaml:"naming" toml:"naming" json:"naming"`
}

// DeleteConfig configures a delete action. Deletes always go to the
// trash area, never straight to permanent removal.
type DeleteConfig struct{}

// CreateFolderConfig configures a createFolder action (folder targets
// only): an empty subfolder is created inside the matched folder at a
// computed name.
type CreateFolderConfig struct {
	Naming NamingPattern `yaml:"naming" toml:"naming" json:"naming"`
}

// Action is one atomic mutation recipe within a step. Exactly the
// config matching Type must be populated; Validate enforces this so a
// malformed workflow is rejected before any mutation begins.
type Action struct {
	ID      string     `yaml:"id" toml:"id" json:"id"`
	Type    ActionType `yaml:"type" toml:"type" json:"type"`
	Enabled bool       `yaml:"enabled" toml:"enabled" json:"enabled"`

	Move         *MoveConfig         `yaml:"move,omitempty" toml:"move,omitempty" json:"move,omitempty"`
	Copy         *CopyConfig         `yaml:"copy,omitempty" toml:"copy,omitempty" json:"copy,omitempty"`
	Rename       *RenameConfig       `yaml:"rename,omitempty" toml:"rename,omitempty" json:"rename,omitempty"`
	Delete       *DeleteConfig       `yaml:"delete,omitempty" toml:"delete,omitempty" json:"delete,omitempty"`
	CreateFolder *CreateFolderConfig `yaml:"createFolder,omitempty" toml:"createFolder,omitempty" json:"createFolder,omitempty"`
}

// Validate checks that the action's type has a matching config and that
// depth limits are within range.
func (a Action) Validate() error {
	switch a.Type {
	case ActionMove:
		if a.Move == nil {
			return errors.Newf(errors.ErrWorkflowInvalid, "move action %s has no move config", a.ID)
		}
		return validateDepth(a.ID, a.Move.MaxDepth)
	case ActionCopy:
		if a.Copy == nil {
			return errors.Newf(errors.ErrWorkflowInvalid, "copy action %s has no copy config", a.ID)
		}
		return validateDepth(a.ID, a.Copy.MaxDepth)
	case ActionRename:
		if a.Rename == nil {
			return errors.Newf(errors.ErrWorkflowInvalid, "rename action %s has no rename config", a.ID)
		}
	case ActionDelete:
		// DeleteConfig carries no settings; a nil pointer is accepted.
	case ActionCreateFolder:
		if a.CreateFolder == nil {
			return errors.Newf(errors.ErrWorkflowInvalid, "createFolder action %s has no createFolder config", a.ID)
		}
	default:
		return errors.Newf(errors.ErrWorkflowInvalid, "action %s has unknown type %q", a.ID, a.Type)
	}
	return nil
}

func validateDepth(actionID string, maxDepth int) error {
	if maxDepth == 0 || maxDepth == -1 || (maxDepth >= 1 && maxDepth <= 5) {
		return nil
	}
	return errors.Newf(errors.ErrWorkflowInvalid,
		"action %s: maxDepth must be -1 (unlimited) or 1-5, got %d", actionID, maxDepth)
}
