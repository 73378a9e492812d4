package workflow

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/RIGishan/text-toolkit/pkg/models"
)

// FileVersion is written to every exported workflow file.
const FileVersion = 1

type workflowFile struct {
	Version  int                  `yaml:"version"`
	Workflow models.SavedWorkflow `yaml:"workflow"`
}

// ExportYAML encodes w as a workflow file.
func ExportYAML(w models.SavedWorkflow) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(workflowFile{Version: FileVersion, Workflow: w}); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportYAML decodes a workflow file. The id and timestamps it carries are
// informational; Store.Import assigns new ones.
func ImportYAML(data []byte) (models.SavedWorkflow, error) {
	var f workflowFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return models.SavedWorkflow{}, fmt.Errorf("decode workflow: %w", err)
	}
	if f.Version != FileVersion {
		return models.SavedWorkflow{}, fmt.Errorf("unsupported workflow file version %d", f.Version)
	}
	for i := range f.Workflow.Steps {
		if f.Workflow.Steps[i].Options == nil {
			f.Workflow.Steps[i].Options = map[string]any{}
		}
	}
	return f.Workflow, nil
}
