package workflows

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Workflow is one parsed workflow document.
type Workflow struct {
	Path string   `yaml:"-"`
	Name string   `yaml:"name"`
	On   Triggers `yaml:"on"`
	Env  Env      `yaml:"env"`
	Jobs Jobs     `yaml:"jobs"`
}

// Jobs preserves the document order of job definitions alongside the lookup
// map the `needs` resolution works against.
type Jobs struct {
	Order []string
	ByID  map[string]Job
}

// Job is a single workflow job.
type Job struct {
	Name   string     `yaml:"name"`
	RunsOn StringList `yaml:"runs-on"`
	Needs  StringList `yaml:"needs"`
	If     string     `yaml:"if"`
	Env    Env        `yaml:"env"`
	Steps  []Step     `yaml:"steps"`
	Line   int        `yaml:"-"`
}

// Step is one step of a job. Exactly one of Uses or Run must be set.
type Step struct {
	ID   string            `yaml:"id"`
	Name string            `yaml:"name"`
	Uses string            `yaml:"uses"`
	Run  string            `yaml:"run"`
	With map[string]string `yaml:"with"`
	Env  Env               `yaml:"env"`
	Line int               `yaml:"-"`
}

// Env is a string-to-string environment map.
type Env map[string]string

// Triggers captures the `on:` block in its scalar, list, and map forms.
type Triggers struct {
	Events map[string]EventFilter
}

// EventFilter holds the branch/tag filters of a single trigger event.
type EventFilter struct {
	Branches       []string `yaml:"branches"`
	BranchesIgnore []string `yaml:"branches-ignore"`
	Tags           []string `yaml:"tags"`
	TagsIgnore     []string `yaml:"tags-ignore"`
	Types          []string `yaml:"types"`
}

// StringList accepts both a scalar and a sequence in YAML.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*l = StringList{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*l = StringList(many)
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list", node.Line)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler for the three `on:` shapes.
func (t *Triggers) UnmarshalYAML(node *yaml.Node) error {
	t.Events = make(map[string]EventFilter)
	switch node.Kind {
	case yaml.ScalarNode:
		var event string
		if err := node.Decode(&event); err != nil {
			return err
		}
		t.Events[event] = EventFilter{}
		return nil
	case yaml.SequenceNode:
		var events []string
		if err := node.Decode(&events); err != nil {
			return err
		}
		for _, event := range events {
			t.Events[event] = EventFilter{}
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valueNode := node.Content[i+1]
			var event string
			if err := keyNode.Decode(&event); err != nil {
				return err
			}
			var filter EventFilter
			if valueNode.Kind == yaml.MappingNode {
				if err := valueNode.Decode(&filter); err != nil {
					return fmt.Errorf("trigger %q: %w", event, err)
				}
			}
			t.Events[event] = filter
		}
		return nil
	default:
		return fmt.Errorf("line %d: unsupported `on` form", node.Line)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler, decoding job definitions in
// document order.
func (j *Jobs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: jobs must be a mapping", node.Line)
	}
	j.ByID = make(map[string]Job)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]
		var id string
		if err := keyNode.Decode(&id); err != nil {
			return err
		}
		var job Job
		if err := valueNode.Decode(&job); err != nil {
			return fmt.Errorf("job %q: %w", id, err)
		}
		job.Line = keyNode.Line
		for s := range job.Steps {
			if job.Steps[s].Line == 0 {
				job.Steps[s].Line = valueNode.Line
			}
		}
		j.Order = append(j.Order, id)
		j.ByID[id] = job
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler, recording the step's line for
// diagnostics.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	type plain Step
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*s = Step(decoded)
	s.Line = node.Line
	return nil
}
