package types

import (
	"sort"

	"github.com/fsweep/fsweep/pkg/errors"
)

// ProcessTarget selects whether a step operates on files or folders.
type ProcessTarget string

const (
	TargetFiles   ProcessTarget = "files"
	TargetFolders ProcessTarget = "folders"
)

// InputSource selects where a step's input set comes from.
type InputSource string

const (
	// InputOriginal feeds the step the run's original enumerated items.
	InputOriginal InputSource = "original"
	// InputPrevious feeds the step the successful output of the step
	// before it.
	InputPrevious InputSource = "previousOutput"
	// InputPath enumerates a specific path at step start.
	InputPath InputSource = "path"
)

// ProcessStep is one condition+action unit within a workflow. Action
// order is semantically significant and preserved.
type ProcessStep struct {
	ID      string         `yaml:"id" toml:"id" json:"id"`
	Order   int            `yaml:"order" toml:"order" json:"order"`
	Enabled bool           `yaml:"enabled" toml:"enabled" json:"enabled"`
	Target  ProcessTarget  `yaml:"target" toml:"target" json:"target"`
	Source  InputSource    `yaml:"source" toml:"source" json:"source"`
	Path    string         `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty"`
	Match   ConditionGroup `yaml:"match" toml:"match" json:"match"`
	Actions []Action       `yaml:"actions" toml:"actions" json:"actions"`
}

// Workflow is an ordered set of process steps.
type Workflow struct {
	ID                  string        `yaml:"id" toml:"id" json:"id"`
	Name                string        `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Enabled             bool          `yaml:"enabled" toml:"enabled" json:"enabled"`
	Steps               []ProcessStep `yaml:"steps" toml:"steps" json:"steps"`
	CleanupEmptyFolders bool          `yaml:"cleanupEmptyFolders,omitempty" toml:"cleanupEmptyFolders,omitempty" json:"cleanupEmptyFolders,omitempty"`
}

// OrderedSteps returns the workflow's steps sorted by Order, with the
// original slice left untouched.
func (w Workflow) OrderedSteps() []ProcessStep {
	steps := make([]ProcessStep, len(w.Steps))
	copy(steps, w.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

// Validate checks workflow structure before any mutation begins. All
// problems surface as WORKFLOW_INVALID errors.
func (w Workflow) Validate() error {
	if w.ID == "" {
		return errors.New(errors.ErrWorkflowInvalid, "workflow has no id")
	}
	if len(w.Steps) == 0 {
		return errors.Newf(errors.ErrWorkflowInvalid, "workflow %s has no steps", w.ID)
	}
	for _, step := range w.Steps {
		if step.ID == "" {
			return errors.Newf(errors.ErrWorkflowInvalid, "workflow %s contains a step with no id", w.ID)
		}
		switch step.Target {
		case TargetFiles, TargetFolders:
		default:
			return errors.Newf(errors.ErrWorkflowInvalid, "step %s has invalid target %q", step.ID, step.Target)
		}
		switch step.Source {
		case InputOriginal, InputPrevious, "":
		case InputPath:
			if step.Path == "" {
				return errors.Newf(errors.ErrWorkflowInvalid, "step %s uses path input but sets no path", step.ID)
			}
		default:
			return errors.Newf(errors.ErrWorkflowInvalid, "step %s has invalid input source %q", step.ID, step.Source)
		}
		if len(step.Actions) == 0 {
			return errors.Newf(errors.ErrWorkflowInvalid, "step %s has no actions", step.ID)
		}
		for _, action := range step.Actions {
			if err := action.Validate(); err != nil {
				return err
			}
			if action.Type == ActionCreateFolder && step.Target != TargetFolders {
				return errors.Newf(errors.ErrWorkflowInvalid,
					"step %s: createFolder action %s requires a folders target", step.ID, action.ID)
			}
		}
	}
	return nil
}
