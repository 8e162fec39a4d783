// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package project

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// InfoEntry is one project-information item. A nil Value means the key was
// given without a value and is skipped during setup.
type InfoEntry struct {
	Key   string
	Value *string
}

// ProjectInfo is an ordered mapping of SetProjectInfo items to values.
type ProjectInfo []InfoEntry

// Set appends key=value, or replaces the value of an existing key in place.
func (p *ProjectInfo) Set(key, value string) {
	v := value
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = &v
			return
		}
	}
	*p = append(*p, InfoEntry{Key: key, Value: &v})
}

// Merge applies other on top of p: existing keys take the new value (a nil
// value clears them), new keys are appended.
func (p *ProjectInfo) Merge(other ProjectInfo) {
	for _, e := range other {
		found := false
		for i := range *p {
			if (*p)[i].Key == e.Key {
				(*p)[i].Value = e.Value
				found = true
				break
			}
		}
		if !found {
			*p = append(*p, e)
		}
	}
}

// Present returns the entries that carry a value, in order.
func (p ProjectInfo) Present() []InfoEntry {
	out := make([]InfoEntry, 0, len(p))
	for _, e := range p {
		if e.Key != "" && e.Value != nil {
			out = append(out, e)
		}
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping while keeping its key order. Null
// values are kept as absent entries and null keys are dropped; scalars of any
// type are taken verbatim.
func (p *ProjectInfo) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("project_info: line %d: expected a mapping", node.Line)
	}
	out := make(ProjectInfo, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.Tag == "!!null" {
			continue
		}
		entry := InfoEntry{Key: k.Value}
		switch {
		case v.Kind == yaml.ScalarNode && v.Tag == "!!null":
		case v.Kind == yaml.ScalarNode:
			s := v.Value
			entry.Value = &s
		default:
			return fmt.Errorf("project_info: line %d: value of %q must be a scalar", v.Line, k.Value)
		}
		out = append(out, entry)
	}
	*p = out
	return nil
}

// ParseInfoPairs parses "key=value" flags in order. A bare "key" is an absent entry.
func ParseInfoPairs(pairs []string) (ProjectInfo, error) {
	var out ProjectInfo
	for _, raw := range pairs {
		key, value, found := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid project info %q (want key=value)", raw)
		}
		if !found {
			out = append(out, InfoEntry{Key: key})
			continue
		}
		out.Set(key, value)
	}
	return out, nil
}
