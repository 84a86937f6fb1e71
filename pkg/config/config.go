// Package config loads lam settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/lam/pkg/capabilities"
	"github.com/thomasrohde/lam/pkg/evaluator"
)

const (
	// ProjectFile is looked up in the working directory.
	ProjectFile = ".lam.yaml"

	// UserFile is relative to the home directory.
	UserFile = ".lam/config.yaml"

	// DefaultHistoryFile is relative to the home directory.
	DefaultHistoryFile = ".lam_history"
)

// Config holds every setting a file can provide. CLI flags override it.
type Config struct {
	Capture      string             `yaml:"capture"`
	Prompt       string             `yaml:"prompt"`
	HistoryFile  string             `yaml:"history_file,omitempty"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
	TraceFile    string             `yaml:"trace_file,omitempty"`
	Pretty       bool               `yaml:"pretty"`

	// Source is the file the settings came from; empty for defaults.
	Source string `yaml:"-"`
}

// CapabilitiesConfig lists capabilities to allow and deny.
type CapabilitiesConfig struct {
	Allow []string `yaml:"allow,omitempty"`
	Deny  []string `yaml:"deny,omitempty"`
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config: ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString("validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Capture: evaluator.CaptureSnapshot.String(),
		Prompt:  "> ",
	}
}

// Load applies the first config file found, in order: projectDir/.lam.yaml,
// homeDir/.lam/config.yaml. Files are not merged. With neither present the
// defaults are returned. An empty homeDir skips the user file.
func Load(projectDir, homeDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads one YAML file over the defaults. Unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	cfg.Source = path

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a YAML decoder cannot.
func (c *Config) Validate() error {
	errs := ValidationError{Path: c.Source}
	if _, err := evaluator.ParseCaptureMode(c.Capture); err != nil {
		errs.Issues = append(errs.Issues, fmt.Sprintf("capture: %v", err))
	}
	if _, err := capabilities.New(c.Capabilities.Allow, c.Capabilities.Deny); err != nil {
		errs.Issues = append(errs.Issues, fmt.Sprintf("capabilities: %v", err))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// CaptureMode returns the parsed capture setting.
func (c *Config) CaptureMode() evaluator.CaptureMode {
	mode, _ := evaluator.ParseCaptureMode(c.Capture)
	return mode
}

// Policy builds the capability policy.
func (c *Config) Policy() (*capabilities.Policy, error) {
	return capabilities.New(c.Capabilities.Allow, c.Capabilities.Deny)
}

// HistoryPath resolves history_file, expanding a leading ~/. Relative paths
// and the default live in homeDir.
func (c *Config) HistoryPath(homeDir string) string {
	path := c.HistoryFile
	switch {
	case path == "":
		return filepath.Join(homeDir, DefaultHistoryFile)
	case path == "~":
		return homeDir
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(homeDir, path[2:])
	case filepath.IsAbs(path):
		return path
	}
	return filepath.Join(homeDir, path)
}

// Marshal renders the effective settings as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
