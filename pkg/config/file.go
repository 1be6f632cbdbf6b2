package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nativemerge/pkg/errors"
)

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension. Standard input
// ("-") and unknown extensions are read as YAML, which also accepts JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads, normalizes and validates the configuration at path. A path of
// "-" reads standard input.
func Load(path string) (*Config, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "configuration file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read configuration %s", path)
	}
	return Parse(data, FormatFromPath(path))
}

// Parse decodes, normalizes and validates configuration data.
func Parse(data []byte, format Format) (*Config, error) {
	values, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	c, err := FromValues(values)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Decode decodes data into generic values.
func Decode(data []byte, format Format) (any, error) {
	var values any
	var err error
	switch format {
	case FormatTOML:
		var m map[string]any
		_, err = toml.Decode(string(data), &m)
		values = m
	case FormatJSON:
		err = json.Unmarshal(data, &values)
	case FormatYAML:
		err = yaml.Unmarshal(data, &values)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported configuration format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s configuration", format)
	}
	return values, nil
}
