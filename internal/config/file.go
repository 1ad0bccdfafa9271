package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up by the CLI.
const DefaultFileName = ".gotoconv.yaml"

// File is the on-disk configuration.
type File struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
	// Functions restricts conversion to the named functions when non-empty.
	Functions []string `yaml:"functions,omitempty"`
}

// Default returns the configuration written by `gotoconv init`.
func Default() File {
	return File{
		Name: "gotoconv",
		Options: map[string]any{
			ErrorLabel:     "",
			NoAssertions:   false,
			AtomicityCheck: false,
			BaseCase:       false,
		},
	}
}

// Load reads a configuration file.
func Load(path string) (File, error) {
	var file File

	f, err := os.Open(path)
	if err != nil {
		return file, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&file); err != nil {
		return file, fmt.Errorf("parsing %s: %w", path, err)
	}

	for key := range file.Options {
		if !known(key) {
			return file, fmt.Errorf("%s: unknown option %q", path, key)
		}
	}
	return file, nil
}

// Write stores f at path.
func (f File) Write(path string) error {
	d, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

// Apply copies the options of f into o.
func (f File) Apply(o *Options) {
	for key, v := range f.Options {
		switch v := v.(type) {
		case bool:
			o.SetBool(key, v)
		case nil:
			o.Set(key, "")
		default:
			o.Set(key, fmt.Sprint(v))
		}
	}
}

// Wants reports whether function name is selected by f.
func (f File) Wants(name string) bool {
	if len(f.Functions) == 0 {
		return true
	}
	for _, fn := range f.Functions {
		if fn == name {
			return true
		}
	}
	return false
}

func known(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
