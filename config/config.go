// Package config provides YAML scenario files for the recordstore CLI.
//
// A scenario declares an initial record and a script of store operations.
// Running it (recordstore run) shows exactly which listeners fire for each
// update, which makes scenarios handy both as documentation and as
// regression fixtures.
//
// Example scenario:
//
//	name: person
//	ids: sequential
//
//	record:
//	  name: John
//	  age: 23
//	  boss: null
//
//	steps:
//	  - listen: [name, age]
//	    as: view
//	  - set: {name: Joe}
//	  - set: {name: Tim, age: 42}
//	  - get: age
//	  - unlisten: view
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Id generator names accepted by the ids key.
const (
	IDsSequential = "sequential"
	IDsUUID       = "uuid"
)

// Scenario is the root structure of a scenario file.
//
// It maps directly to the YAML file structure.
// Use [Load] or [Parse] to create a Scenario from YAML.
type Scenario struct {
	// Name labels the scenario in logs and output. Optional.
	Name string `yaml:"name"`

	// IDs selects the subscription id generator: "sequential" (default)
	// or "uuid".
	IDs string `yaml:"ids"`

	// Record is the initial record. Its keys define the store's shape.
	// String values support environment variable substitution:
	// ${VAR} or ${VAR:-default}.
	Record Fields `yaml:"record"`

	// Steps are executed in order against the store.
	Steps []Step `yaml:"steps"`
}

// FieldValue is one entry of an ordered YAML mapping.
type FieldValue struct {
	Name  string
	Value any
}

// Fields is a YAML mapping of field names to values that keeps the order
// in which the keys appear in the file.
type Fields []FieldValue

// Names returns the field names in file order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, fv := range f {
		names[i] = fv.Name
	}
	return names
}

// UnmarshalYAML implements yaml.Unmarshaler for Fields.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of field names to values", node.Line)
	}

	out := make(Fields, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return fmt.Errorf("line %d: field name: %w", keyNode.Line, err)
		}
		if name == "" {
			return fmt.Errorf("line %d: field name cannot be empty", keyNode.Line)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("line %d: duplicate field %q", keyNode.Line, name)
		}
		seen[name] = struct{}{}

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("line %d: field %q: %w", valueNode.Line, name, err)
		}
		out = append(out, FieldValue{Name: name, Value: value})
	}

	*f = out
	return nil
}

// Step is one scripted operation. Exactly one action key is set.
type Step struct {
	// Set writes the given fields in one batched update.
	Set Fields

	// Listen subscribes one listener per named field. Accepts a single
	// name or a list.
	Listen []string

	// As labels the listener bundle created by Listen, so Unlisten can
	// refer to it.
	As string

	// Unlisten removes the bundle registered under this label.
	Unlisten string

	// Get reads a field and reports its value.
	Get string
}

// Action returns the step's action name, or "" if none or several are set.
func (s Step) Action() string {
	var actions []string
	if s.Set != nil {
		actions = append(actions, "set")
	}
	if s.Listen != nil {
		actions = append(actions, "listen")
	}
	if s.Unlisten != "" {
		actions = append(actions, "unlisten")
	}
	if s.Get != "" {
		actions = append(actions, "get")
	}
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

// UnmarshalYAML implements yaml.Unmarshaler for Step.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", node.Line)
	}

	// temporary struct to avoid infinite recursion
	var raw struct {
		Set      Fields     `yaml:"set"`
		Listen   fieldNames `yaml:"listen"`
		As       string     `yaml:"as"`
		Unlisten string     `yaml:"unlisten"`
		Get      string     `yaml:"get"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	s.Set = raw.Set
	s.Listen = raw.Listen
	s.As = raw.As
	s.Unlisten = raw.Unlisten
	s.Get = raw.Get
	return nil
}

// fieldNames accepts either a single name or a list of names.
type fieldNames []string

// UnmarshalYAML implements yaml.Unmarshaler for fieldNames.
func (n *fieldNames) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*n = fieldNames{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		if list == nil {
			list = []string{}
		}
		*n = list
		return nil
	default:
		return fmt.Errorf("line %d: listen must be a field name or a list of names", node.Line)
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandValue applies expandEnvVars to every string inside a decoded value.
// Mappings with non-string keys are rejected: their values could not be
// reported as JSON.
func expandValue(v any) (any, error) {
	switch val := v.(type) {
	case map[any]any:
		return nil, errors.New("mapping keys must be strings")
	case string:
		return expandEnvVars(val)
	case []any:
		for i, item := range val {
			expanded, err := expandValue(item)
			if err != nil {
				return nil, err
			}
			val[i] = expanded
		}
		return val, nil
	case map[string]any:
		for k, item := range val {
			expanded, err := expandValue(item)
			if err != nil {
				return nil, err
			}
			val[k] = expanded
		}
		return val, nil
	default:
		return v, nil
	}
}

// Load reads and parses a YAML scenario file.
//
// Environment variables in string values are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML scenario data.
//
// Defaults are applied for IDs ("sequential").
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sc.IDs == "" {
		sc.IDs = IDsSequential
	}

	if err := sc.expandAndValidate(); err != nil {
		return nil, err
	}

	return &sc, nil
}

// expandAndValidate expands environment variables and validates the scenario.
func (sc *Scenario) expandAndValidate() error {
	if sc.IDs != IDsSequential && sc.IDs != IDsUUID {
		return fmt.Errorf("ids must be %q or %q, got %q", IDsSequential, IDsUUID, sc.IDs)
	}

	if len(sc.Record) == 0 {
		return errors.New("record must define at least one field")
	}
	for i := range sc.Record {
		fv := &sc.Record[i]
		expanded, err := expandValue(fv.Value)
		if err != nil {
			return fmt.Errorf("record.%s: %w", fv.Name, err)
		}
		fv.Value = expanded
	}

	known := sc.Record.Names()
	live := make(map[string]struct{})

	for i := range sc.Steps {
		st := &sc.Steps[i]
		where := fmt.Sprintf("steps[%d]", i)

		action := st.Action()
		if action == "" {
			return fmt.Errorf("%s: exactly one of set, listen, unlisten or get is required", where)
		}
		if st.As != "" && action != "listen" {
			return fmt.Errorf("%s: as is only valid with listen", where)
		}

		switch action {
		case "set":
			if len(st.Set) == 0 {
				return fmt.Errorf("%s: set needs at least one field", where)
			}
			for j := range st.Set {
				fv := &st.Set[j]
				if !slices.Contains(known, fv.Name) {
					return fmt.Errorf("%s: set: unknown field %q", where, fv.Name)
				}
				expanded, err := expandValue(fv.Value)
				if err != nil {
					return fmt.Errorf("%s: set.%s: %w", where, fv.Name, err)
				}
				fv.Value = expanded
			}

		case "listen":
			if len(st.Listen) == 0 {
				return fmt.Errorf("%s: listen needs at least one field", where)
			}
			if st.As == "" {
				return fmt.Errorf("%s: listen requires as", where)
			}
			if _, exists := live[st.As]; exists {
				return fmt.Errorf("%s: listener %q is already registered", where, st.As)
			}
			seen := make(map[string]struct{}, len(st.Listen))
			for _, name := range st.Listen {
				if !slices.Contains(known, name) {
					return fmt.Errorf("%s: listen: unknown field %q", where, name)
				}
				if _, dup := seen[name]; dup {
					return fmt.Errorf("%s: listen: duplicate field %q", where, name)
				}
				seen[name] = struct{}{}
			}
			live[st.As] = struct{}{}

		case "unlisten":
			if _, exists := live[st.Unlisten]; !exists {
				return fmt.Errorf("%s: unlisten: no live listener %q", where, st.Unlisten)
			}
			delete(live, st.Unlisten)

		case "get":
			if !slices.Contains(known, st.Get) {
				return fmt.Errorf("%s: get: unknown field %q", where, st.Get)
			}
		}
	}

	return nil
}
