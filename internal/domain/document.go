package domain

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps schema violations.
var ErrInvalid = errors.New("domain: invalid document")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/joeycumines/goap/domain.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// Fact is one atom assignment.
type Fact struct {
	Atom  string
	Value bool
}

// Facts is an atom to bool mapping that keeps document order.
type Facts []Fact

// UnmarshalYAML decodes a mapping node, preserving key order.
func (f *Facts) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of atom to bool", value.Line)
	}
	facts := make(Facts, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var v bool
		if err := value.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("atom %q: %w", value.Content[i].Value, err)
		}
		facts = append(facts, Fact{Atom: value.Content[i].Value, Value: v})
	}
	*f = facts
	return nil
}

// Map returns the facts as a map.
func (f Facts) Map() map[string]bool {
	m := make(map[string]bool, len(f))
	for _, fact := range f {
		m[fact.Atom] = fact.Value
	}
	return m
}

// SensorSpec binds an atom to an expression.
type SensorSpec struct {
	Atom       string
	Expression string
}

// SensorSpecs is an atom to expression mapping that keeps document order.
type SensorSpecs []SensorSpec

// UnmarshalYAML decodes a mapping node, preserving key order.
func (s *SensorSpecs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of atom to expression", value.Line)
	}
	specs := make(SensorSpecs, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		specs = append(specs, SensorSpec{Atom: value.Content[i].Value, Expression: value.Content[i+1].Value})
	}
	*s = specs
	return nil
}

// ActionSpec declares an action. A nil Cost means 1.
type ActionSpec struct {
	Name   string `yaml:"name"`
	Cost   *int   `yaml:"cost"`
	Pre    Facts  `yaml:"pre"`
	Effect Facts  `yaml:"effect"`
}

// GoalSpec declares a named goal state.
type GoalSpec struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	State    Facts  `yaml:"state"`
}

// Document is a parsed, schema-valid domain file.
type Document struct {
	Name       string         `yaml:"name"`
	Atoms      []string       `yaml:"atoms"`
	Actions    []ActionSpec   `yaml:"actions"`
	Start      Facts          `yaml:"start"`
	Goals      []GoalSpec     `yaml:"goals"`
	Default    string         `yaml:"default"`
	Sensors    SensorSpecs    `yaml:"sensors"`
	Blackboard map[string]any `yaml:"blackboard"`
}

// Load reads and parses the domain file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a YAML domain document, validating it against the domain
// schema before decoding.
func Parse(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode domain: %w", err)
	}
	return &doc, nil
}

// Validate checks raw YAML against the domain schema.
func Validate(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("domain schema: %w", err)
	}

	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode domain: %w", err)
	}
	if tree == nil {
		return fmt.Errorf("%w: empty document", ErrInvalid)
	}

	// the validator wants JSON types
	buf, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var instance any
	if err := json.Unmarshal(buf, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

//go:embed example.yaml
var exampleYAML []byte

// ExampleSource returns the embedded example domain file.
func ExampleSource() []byte {
	return bytes.Clone(exampleYAML)
}

// Example parses the embedded example domain: the classic soldier with a gun
// and a bomb.
func Example() *Document {
	doc, err := Parse(bytes.NewReader(exampleYAML))
	if err != nil {
		panic(err)
	}
	return doc
}
