package workflow

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/swarmflow/types"
)

// Definition is the serializable form of a graph workflow. Step names
// bind to registered Step implementations at build time.
type Definition struct {
	// Name is the workflow name.
	Name string `yaml:"name" json:"name"`
	// Description describes the workflow.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Entry is the ID of the entry node.
	Entry string `yaml:"entry" json:"entry"`
	// Nodes lists the node definitions.
	Nodes []NodeDefinition `yaml:"nodes" json:"nodes"`
}

// NodeDefinition is the serializable form of one graph node.
type NodeDefinition struct {
	// ID is the unique node identifier.
	ID string `yaml:"id" json:"id"`
	// Step is the registered step name; defaults to the node ID.
	Step string `yaml:"step,omitempty" json:"step,omitempty"`
	// Next lists the successor node IDs.
	Next []string `yaml:"next,omitempty" json:"next,omitempty"`
}

// ParseDefinition decodes a YAML workflow definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, types.NewError(types.ErrWorkflowInvalid, "malformed workflow definition").WithCause(err)
	}
	return &def, nil
}

// LoadDefinition reads and decodes a YAML workflow definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrWorkflowInvalid, "cannot read workflow definition: "+path).WithCause(err)
	}
	return ParseDefinition(data)
}

// Build binds the definition's step names against the registry and
// produces a validated graph. Every node must resolve to a registered
// step, and the resulting graph must pass structural validation,
// including acyclicity.
func (d *Definition) Build(steps map[string]Step) (*Graph, error) {
	graph := NewGraph(d.Name, d.Description)
	graph.SetEntry(d.Entry)

	for _, node := range d.Nodes {
		if node.ID == "" {
			return nil, types.NewError(types.ErrWorkflowInvalid, "node without id in definition")
		}
		stepName := node.Step
		if stepName == "" {
			stepName = node.ID
		}
		step, ok := steps[stepName]
		if !ok {
			return nil, types.NewError(types.ErrWorkflowInvalid, "no registered step named: "+stepName)
		}
		graph.AddNode(&Node{ID: node.ID, Step: step})
		for _, next := range node.Next {
			graph.AddEdge(node.ID, next)
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph, nil
}
