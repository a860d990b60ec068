package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dukex/flowforge/pkg/models"
	"gopkg.in/yaml.v3"
)

// Field is one entry of an ordered mapping.
type Field struct {
	Key   string
	Value any
}

// Mapping is a mapping whose keys serialize in insertion order.
type Mapping []Field

// Get returns the value stored under key.
func (m Mapping) Get(key string) (any, bool) {
	for _, field := range m {
		if field.Key == key {
			return field.Value, true
		}
	}

	return nil, false
}

// Step is a single named entry of the step document.
type Step struct {
	Name string
	Body Mapping
}

// StepDocument is the declarative workflow definition: main.steps, each step a single-key mapping.
type StepDocument struct {
	Steps []Step
}

// StepNames returns the step keys in document order.
func (d *StepDocument) StepNames() []string {
	names := make([]string, 0, len(d.Steps))
	for _, step := range d.Steps {
		names = append(names, step.Name)
	}

	return names
}

func (d *StepDocument) root() Mapping {
	steps := make([]any, 0, len(d.Steps))
	for _, step := range d.Steps {
		steps = append(steps, Mapping{{Key: step.Name, Value: step.Body}})
	}

	return Mapping{{Key: "main", Value: Mapping{{Key: "steps", Value: steps}}}}
}

// MarshalYAML implements yaml.Marshaler, keeping step and field order.
func (d *StepDocument) MarshalYAML() (any, error) {
	return toYAMLNode(d.root())
}

// YAML renders the document as a YAML stream.
func (d *StepDocument) YAML() ([]byte, error) {
	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode step document: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode step document: %w", err)
	}

	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler, keeping step and field order.
func (d *StepDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, d.root()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Render serializes the document in the given target format.
func Render(doc *StepDocument, format models.TargetFormat) (string, error) {
	switch format {
	case models.TargetFormatJSON:
		compact, err := doc.MarshalJSON()
		if err != nil {
			return "", err
		}

		var out bytes.Buffer
		if err := json.Indent(&out, compact, "", "  "); err != nil {
			return "", fmt.Errorf("failed to indent step document: %w", err)
		}

		out.WriteByte('\n')

		return out.String(), nil
	case models.TargetFormatYAML, "":
		data, err := doc.YAML()
		if err != nil {
			return "", err
		}

		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported target format %q", format)
	}
}

func toYAMLNode(value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case Mapping:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if len(v) == 0 {
			node.Style = yaml.FlowStyle
		}

		for _, field := range v {
			child, err := toYAMLNode(field.Value)
			if err != nil {
				return nil, err
			}

			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field.Key}, child)
		}

		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(v) == 0 {
			node.Style = yaml.FlowStyle
		}

		for _, item := range v {
			child, err := toYAMLNode(item)
			if err != nil {
				return nil, err
			}

			node.Content = append(node.Content, child)
		}

		return node, nil
	default:
		// Plain values and free-form maps; yaml.v3 sorts map keys.
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode value %v: %w", v, err)
		}

		return node, nil
	}
}

func writeJSON(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case Mapping:
		buf.WriteByte('{')

		for i, field := range v {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeJSONValue(buf, field.Key); err != nil {
				return err
			}

			buf.WriteByte(':')

			if err := writeJSON(buf, field.Value); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')

		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	default:
		return writeJSONValue(buf, v)
	}

	return nil
}

func writeJSONValue(buf *bytes.Buffer, value any) error {
	var out bytes.Buffer

	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode value %v: %w", value, err)
	}

	buf.Write(bytes.TrimRight(out.Bytes(), "\n"))

	return nil
}
