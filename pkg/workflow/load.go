package workflow

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/types"
)

// Load reads a workflow definition from path. The format is chosen by
// extension: .yaml/.yml or .toml. The workflow is validated before it
// is returned.
func Load(path string) (*types.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "workflow file %s not found", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read workflow file %s", path)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a workflow from raw bytes. ext selects the format and
// must be ".yaml", ".yml" or ".toml".
func Parse(data []byte, ext string) (*types.Workflow, error) {
	var wf types.Workflow
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &wf); err != nil {
			return nil, errors.Wrap(err, errors.ErrWorkflowInvalid, "invalid workflow yaml")
		}
	case ".toml":
		if err := toml.Unmarshal(data, &wf); err != nil {
			return nil, errors.Wrap(err, errors.ErrWorkflowInvalid, "invalid workflow toml")
		}
	default:
		return nil, errors.Newf(errors.ErrWorkflowInvalid, "unsupported workflow format %q", ext)
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}
