// Package config handles loxvm.toml settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the settings file looked up from the working directory.
const FileName = "loxvm.toml"

var ErrInvalid = errors.New("invalid configuration")

// Config represents a loxvm.toml file.
type Config struct {
	VM     VM     `toml:"vm"`
	Output Output `toml:"output"`

	// Path is the file the settings came from; empty for defaults.
	Path string `toml:"-"`
}

// VM configures execution limits and tracing.
type VM struct {
	FramesMax int  `toml:"frames-max"`
	MaxSteps  int  `toml:"max-steps"`
	Trace     bool `toml:"trace"`
}

// Output configures what the driver prints.
type Output struct {
	NoColor     bool `toml:"no-color"`
	Disassemble bool `toml:"disassemble"`
}

// Default returns the settings used when no file is found.
func Default() *Config {
	return &Config{
		VM: VM{FramesMax: 64},
	}
}

// LoadFile parses the settings file at path. Keys that are absent keep
// their defaults; unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Path = path
	return c, nil
}

// Load parses loxvm.toml in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// FindAndLoad walks up from startDir to find a loxvm.toml file and loads
// it. Defaults are returned when there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate rejects limits the VM cannot honour.
func (c *Config) Validate() error {
	if c.VM.FramesMax <= 0 {
		return fmt.Errorf("%w: vm.frames-max must be positive, got %d", ErrInvalid, c.VM.FramesMax)
	}
	if c.VM.MaxSteps < 0 {
		return fmt.Errorf("%w: vm.max-steps must not be negative, got %d", ErrInvalid, c.VM.MaxSteps)
	}
	return nil
}
