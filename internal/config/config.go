// Package config holds the typed view of a kernel wrapper description.
//
// A description is a JSON (or YAML) document:
//
//	{
//	  "name": "add",
//	  "clocks": 1,
//	  "unroll": 1,
//	  "params": {"g": {"scalar": 32}},
//	  "buses": {"in": ["saxis", 1], "out": ["maxis", 1]}
//	}
//
// Mapping order in the document is preserved: it decides the order of
// parameter wires, register offsets and bus ports in the generated wrapper.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the parsed wrapper description. It is read-only once parsed.
type Config struct {
	Name   string
	Clocks int
	Unroll int
	Params []ParamGroup
	Buses  []Bus
}

// ParamGroup is a user-facing grouping of parameters. Groups only affect
// iteration order.
type ParamGroup struct {
	Name   string
	Params []Param
}

// Param is a kernel configuration parameter exposed through the control
// registers.
type Param struct {
	Name  string
	Width int
}

// Bus is a streaming bus of the kernel.
type Bus struct {
	Name   string
	Kind   string
	VecLen int
}

// IsMaster reports whether the wrapper drives the bus payload (kind prefix 'm').
func (b Bus) IsMaster() bool {
	return strings.HasPrefix(b.Kind, "m")
}

// IsStreaming reports whether the kind denotes an AXI4-Stream role, i.e. it
// has an 's' or 'm' direction prefix and the "axis" suffix.
func (b Bus) IsStreaming() bool {
	if !strings.HasSuffix(b.Kind, "axis") {
		return false
	}
	return strings.HasPrefix(b.Kind, "s") || strings.HasPrefix(b.Kind, "m")
}

// AllParams flattens the parameter groups in group-then-name order.
func (c *Config) AllParams() []Param {
	var out []Param
	for _, g := range c.Params {
		out = append(out, g.Params...)
	}
	return out
}

// ConfigurationError reports a description the generator cannot accept.
type ConfigurationError struct {
	Reason string
	// Buses lists the offending buses when the problem is bus related.
	Buses []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Buses) == 0 {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Reason, strings.Join(e.Buses, ", "))
}

// Load reads and parses the description at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a description. Required keys are name, params and buses;
// clocks and unroll default to 1.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, &ConfigurationError{Reason: "empty document"}
	}
	cfg := &Config{}
	if err := root.Content[0].Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UnmarshalYAML implements yaml.Unmarshaler, walking mapping nodes in
// document order.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &ConfigurationError{Reason: fmt.Sprintf("line %d: top level must be a mapping", node.Line)}
	}
	*c = Config{Clocks: 1, Unroll: 1}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		seen[key.Value] = true
		var err error
		switch key.Value {
		case "name":
			err = val.Decode(&c.Name)
		case "clocks":
			c.Clocks, err = decodePositive(key.Value, val)
		case "unroll":
			c.Unroll, err = decodePositive(key.Value, val)
		case "params":
			c.Params, err = decodeParams(val)
		case "buses":
			c.Buses, err = decodeBuses(val)
		}
		if err != nil {
			return err
		}
	}
	for _, required := range []string{"name", "params", "buses"} {
		if !seen[required] {
			return &ConfigurationError{Reason: fmt.Sprintf("missing required key %q", required)}
		}
	}
	if c.Name == "" {
		return &ConfigurationError{Reason: "name must not be empty"}
	}
	return nil
}

func decodePositive(key string, val *yaml.Node) (int, error) {
	var n int
	if err := val.Decode(&n); err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n < 1 {
		return 0, &ConfigurationError{Reason: fmt.Sprintf("%s must be positive, got %d", key, n)}
	}
	return n, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func decodeParams(node *yaml.Node) ([]ParamGroup, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("line %d: params must be a mapping of groups", node.Line)}
	}
	groups := make([]ParamGroup, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i].Value, node.Content[i+1]
		group := ParamGroup{Name: name}
		if !isNull(body) {
			if body.Kind != yaml.MappingNode {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("line %d: params group %q must map names to widths", body.Line, name)}
			}
			for j := 0; j+1 < len(body.Content); j += 2 {
				p := Param{Name: body.Content[j].Value}
				if err := body.Content[j+1].Decode(&p.Width); err != nil {
					return nil, fmt.Errorf("config: param %s.%s: %w", name, p.Name, err)
				}
				group.Params = append(group.Params, p)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func decodeBuses(node *yaml.Node) ([]Bus, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("line %d: buses must be a mapping", node.Line)}
	}
	buses := make([]Bus, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i].Value, node.Content[i+1]
		if body.Kind != yaml.SequenceNode || len(body.Content) != 2 {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("line %d: bus must be a [kind, vector-length] pair", body.Line),
				Buses:  []string{name},
			}
		}
		bus := Bus{Name: name}
		if err := body.Content[0].Decode(&bus.Kind); err != nil {
			return nil, fmt.Errorf("config: bus %s kind: %w", name, err)
		}
		if err := body.Content[1].Decode(&bus.VecLen); err != nil {
			return nil, fmt.Errorf("config: bus %s vector length: %w", name, err)
		}
		buses = append(buses, bus)
	}
	return buses, nil
}
