package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned when a config file extension is not
// recognized.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Load reads filename and decodes it into v. The format is selected by file
// extension: .json, or .yaml/.yml.
func Load(filename string, v any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Decode(filepath.Ext(filename), data, v); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Decode unmarshals data in the format named by ext into v.
func Decode(ext string, data []byte, v any) error {
	switch strings.ToLower(ext) {
	case ".json":
		return json.Unmarshal(data, v)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
