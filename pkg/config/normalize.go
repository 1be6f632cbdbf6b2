package config

import (
	"fmt"
	"maps"
	"slices"
)

// ParseError reports a value that does not have an accepted shape.
type ParseError struct {
	Message string
	Value   any
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", err.Message, err.Value)
}

// FromValues builds a configuration from generically decoded values, as
// produced by yaml.v3, BurntSushi/toml or encoding/json decoding into an
// interface value.
func FromValues(values any) (*Config, error) {
	root, ok := values.(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "configuration must be a map", Value: values}
	}

	c := New()
	for key := range root {
		switch key {
		case "merge_sequence", "blocklist", "root_module":
		default:
			return nil, &ParseError{Message: "unknown configuration key", Value: key}
		}
	}

	seq, ok := root["merge_sequence"]
	if !ok {
		return nil, &ParseError{Message: "missing merge_sequence", Value: nil}
	}
	items, ok := NormalizeList(seq)
	if !ok {
		return nil, &ParseError{Message: "merge_sequence must be a list", Value: seq}
	}
	for i, item := range items {
		g, err := NormalizeGroup(item)
		if err != nil {
			return nil, fmt.Errorf("merge_sequence[%d]: %w", i, err)
		}
		c.MergeSequence = append(c.MergeSequence, g)
	}

	bl, err := NormalizeStringList(root["blocklist"])
	if err != nil {
		return nil, fmt.Errorf("blocklist: %w", err)
	}
	c.Blocklist = bl

	if rm, ok := root["root_module"]; ok {
		s, ok := rm.(string)
		if !ok {
			return nil, &ParseError{Message: "root_module must be a string", Value: rm}
		}
		c.RootModule = s
	}
	return c, nil
}

// NormalizeGroup accepts a merge group in full, compact or pair form.
func NormalizeGroup(value any) (g GroupConfig, err error) {
	switch v := value.(type) {
	case map[string]any:
		if _, full := v["name"]; full {
			return normalizeFullGroup(v)
		}
		if len(v) != 1 {
			return g, &ParseError{Message: "compact merge group must have exactly one key", Value: v}
		}
		for name, roots := range v {
			g.Name = name
			err = normalizeRoots(&g, roots)
		}
		return g, err
	case []any:
		if len(v) != 2 {
			return g, &ParseError{Message: "merge group pair must have two elements", Value: v}
		}
		name, ok := v[0].(string)
		if !ok {
			return g, &ParseError{Message: "merge group name must be a string", Value: v[0]}
		}
		g.Name = name
		err = normalizeRoots(&g, v[1])
		return g, err
	default:
		return g, &ParseError{Message: "invalid merge group", Value: value}
	}
}

func normalizeFullGroup(v map[string]any) (g GroupConfig, err error) {
	for key := range v {
		switch key {
		case "name", "roots", "root_sets":
		default:
			return g, &ParseError{Message: "unknown merge group key", Value: key}
		}
	}
	name, ok := v["name"].(string)
	if !ok {
		return g, &ParseError{Message: "merge group name must be a string", Value: v["name"]}
	}
	g.Name = name

	roots, hasRoots := v["roots"]
	sets, hasSets := v["root_sets"]
	switch {
	case hasRoots && hasSets:
		return g, &ParseError{Message: "roots and root_sets are mutually exclusive", Value: name}
	case hasSets:
		m, ok := sets.(map[string]any)
		if !ok {
			return g, &ParseError{Message: "root_sets must be a map", Value: sets}
		}
		g.RootSets, err = normalizeRootSets(m)
	case hasRoots:
		g.Roots, err = NormalizeStringList(roots)
	}
	return g, err
}

// normalizeRoots reads the value of a compact group: a pattern list, a single
// pattern, or a map of root sets.
func normalizeRoots(g *GroupConfig, value any) (err error) {
	if m, ok := value.(map[string]any); ok {
		g.RootSets, err = normalizeRootSets(m)
		return err
	}
	g.Roots, err = NormalizeStringList(value)
	return err
}

func normalizeRootSets(m map[string]any) (map[string][]string, error) {
	sets := make(map[string][]string, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		patterns, err := NormalizeStringList(m[name])
		if err != nil {
			return nil, fmt.Errorf("root set %q: %w", name, err)
		}
		sets[name] = patterns
	}
	return sets, nil
}

// NormalizeList returns value as a generic list. TOML arrays of tables
// decode to a list of maps and are converted.
func NormalizeList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []map[string]any:
		list := make([]any, len(v))
		for i, m := range v {
			list[i] = m
		}
		return list, true
	default:
		return nil, false
	}
}

// NormalizeStringList accepts nil, a string, or a list of strings.
func NormalizeStringList(value any) (list []string, err error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ParseError{Message: "list item must be a string", Value: item}
			}
			list = append(list, s)
		}
		return list, nil
	default:
		return nil, &ParseError{Message: "must be a string or a list of strings", Value: value}
	}
}
