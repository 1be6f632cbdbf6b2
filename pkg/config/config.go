// Package config loads and validates the merge configuration: the merge
// sequence, the blocklist, and the root module name.
//
// Configuration files are YAML, TOML or JSON, chosen by file extension. All
// three are decoded into generic values first and then normalized by the
// same code, so every format accepts the same shapes. A merge group can be
// written in full:
//
//	merge_sequence:
//	  - name: libfoo.so
//	    roots: ["//a:root"]
//
// in compact form, as a single-key map from library name to root patterns:
//
//	merge_sequence:
//	  - libfoo.so: ["//a:root"]
//
// or as a [name, roots] pair. A group with named root sets (experimental)
// replaces roots with a map of set name to patterns, under root_sets in the
// full form or directly as the value in the compact form.
package config

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/nativemerge/pkg/errors"
	"github.com/matzehuels/nativemerge/pkg/linkgraph"
	"github.com/matzehuels/nativemerge/pkg/mergespec"
)

// Config is a normalized merge configuration.
type Config struct {
	MergeSequence []GroupConfig `json:"merge_sequence"`
	Blocklist     []string      `json:"blocklist"`
	RootModule    string        `json:"root_module"`
}

// GroupConfig is one merge group. Exactly one of Roots and RootSets is set.
type GroupConfig struct {
	Name     string              `json:"name"`
	Roots    []string            `json:"roots,omitempty"`
	RootSets map[string][]string `json:"root_sets,omitempty"`
}

// New returns an empty configuration with the default root module.
func New() *Config {
	return &Config{RootModule: linkgraph.DefaultRootModule}
}

// Validate checks the configuration and compiles every pattern once. It
// returns an INVALID_CONFIG error for the first problem found.
func (c *Config) Validate() error {
	if len(c.MergeSequence) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "merge_sequence must list at least one merge group")
	}
	if err := errors.ValidateModuleName(c.RootModule); err != nil {
		return err
	}
	if _, err := c.Sequence(); err != nil {
		return err
	}
	if _, err := c.BlocklistPatterns(); err != nil {
		return err
	}
	return nil
}

// Sequence compiles the merge sequence.
func (c *Config) Sequence() (mergespec.Sequence, error) {
	seq := make(mergespec.Sequence, 0, len(c.MergeSequence))
	for i, gc := range c.MergeSequence {
		if err := errors.ValidateLibraryName(gc.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "merge group %d", i)
		}

		var (
			grp *mergespec.Group
			err error
		)
		switch {
		case len(gc.Roots) > 0 && len(gc.RootSets) > 0:
			return nil, errors.New(errors.ErrCodeInvalidConfig, "merge group %q: roots and root_sets are mutually exclusive", gc.Name)
		case len(gc.RootSets) > 0:
			grp, err = mergespec.NewMultiGroup(gc.Name, gc.RootSetNames(), gc.RootSets)
		default:
			grp, err = mergespec.NewGroup(gc.Name, gc.Roots)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "merge group %d", i)
		}
		seq = append(seq, grp)
	}
	return seq, nil
}

// RootSetNames returns the root set names in sorted order.
func (g GroupConfig) RootSetNames() []string {
	names := make([]string, 0, len(g.RootSets))
	for name := range g.RootSets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BlocklistPatterns compiles the blocklist.
func (c *Config) BlocklistPatterns() (*linkgraph.Blocklist, error) {
	bl, err := linkgraph.NewBlocklist(c.Blocklist)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "blocklist")
	}
	return bl, nil
}

// Canonical returns a stable JSON encoding of the configuration. Two
// configurations that normalize to the same values have the same canonical
// bytes, whatever format they were written in.
func (c *Config) Canonical() []byte {
	// encoding/json sorts map keys, which makes root_sets stable.
	data, _ := json.Marshal(c)
	return data
}
