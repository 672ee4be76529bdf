package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultYAML is the built-in configuration. It reads everything from the
// environment.
//
//go:embed default.yaml
var DefaultYAML []byte

// EmbeddedSource is the source name reported for the built-in configuration.
const EmbeddedSource = "<embedded>"

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file, expands environment variables,
// and parses it into a Config struct.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(raw, path)
}

// LoadDefault parses the built-in configuration.
func LoadDefault() (*Config, error) {
	return Parse(DefaultYAML, EmbeddedSource)
}

// Parse decodes raw and expands environment references in every scalar.
// Expansion runs on decoded values so that substituted text is never
// interpreted as YAML. source names the input in errors.
func Parse(raw []byte, source string) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", source, err)
	}
	if err := expandNode(&doc); err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", source, err)
	}

	var cfg Config
	if doc.Kind != 0 {
		if err := doc.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", source, err)
		}
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Locate picks the configuration file: explicit if given, then
// $XDG_CONFIG_HOME/cronsync/cronsync.yaml (or ~/.config), then ./cronsync.yaml.
// It returns "" when none exists, meaning the built-in configuration.
// An explicit path that does not exist is an error.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config: %w", err)
		}
	}
	return "", nil
}

// LoadFrom resolves the configuration source with Locate and loads it.
// It returns the source name alongside the config.
func LoadFrom(explicit string) (*Config, string, error) {
	path, err := Locate(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		cfg, err := LoadDefault()
		return cfg, EmbeddedSource, err
	}
	cfg, err := Load(path)
	return cfg, path, err
}

func searchPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "cronsync", "cronsync.yaml"))
	}
	return append(paths, "cronsync.yaml")
}

// expandNode expands every scalar value under n in place. Errors from all
// scalars are joined.
func expandNode(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		value, err := expandEnv(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		if value != n.Value && n.Style == 0 {
			// Plain scalars resolve their type from the expanded text.
			n.Tag = ""
		}
		n.Value = value
		return nil
	}

	var errs []error
	for _, child := range n.Content {
		if err := expandNode(child); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in s.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(s string) (string, error) {
	var errs []error

	result := envPattern.ReplaceAllStringFunc(s, func(match string) string {
		subs := envPattern.FindStringSubmatch(match)
		name := subs[1]
		hasDefault := strings.Contains(match, ":-")

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return subs[2]
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}
