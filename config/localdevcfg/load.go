package localdevcfg

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	ConfigEnvKey = "LOCALDEV_CONFIG"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "localdev.yml"

// Default returns the configuration used when no file exists.
func Default() (*Root, error) {
	var cfg Root
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &cfg, nil
}

// Load reads a YAML file from the given path over the defaults.
// It performs no validation beyond YAML decoding; call Validate afterwards.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown fields are rejected.
func Parse(data []byte) (*Root, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return cfg, nil
}

// Resolve loads the configuration from path, or from DefaultFileName when
// path is empty and the file exists, or returns the defaults. It returns the
// path actually read ("" for defaults).
func Resolve(path string) (*Root, string, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFileName); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				cfg, err := Default()
				return cfg, "", err
			}
			return nil, "", err
		}
		path = DefaultFileName
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Marshal renders the configuration as YAML.
func (r *Root) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
