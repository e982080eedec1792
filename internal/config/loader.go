package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/sshprobe/internal/handshake"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".sshprobe"

// TargetConfig holds settings for probing a single target.
// Zero values mean "not set" so that sections can be layered.
type TargetConfig struct {
	// Port is used when the target is given without a port.
	Port int `yaml:"port,omitempty"`

	// ClientIdentifier is the identification string sent to the server.
	ClientIdentifier string `yaml:"ident,omitempty"`

	// Timeout bounds the probe, written as a Go duration such as "45s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// SkipKexInit stops the probe after the server identifier. It is a
	// pointer so that a target can turn it off again.
	SkipKexInit *bool `yaml:"skipKexInit,omitempty"`
}

// File represents the structure of the .sshprobe configuration file.
type File struct {
	// Targets maps a target to its settings. Keys are either the target as
	// given on the command line ("server.example:2222") or a bare host
	// ("server.example") which then applies to every port of that host.
	Targets map[string]TargetConfig `yaml:"targets,omitempty"`

	// Defaults applies to all targets unless overridden.
	Defaults TargetConfig `yaml:"defaults,omitempty"`
}

// GetTargetConfig returns the configuration for target. The defaults
// section is overlaid with the host section and then with the exact
// target section.
func (cf *File) GetTargetConfig(target string) TargetConfig {
	result := cf.Defaults

	if host, _, err := net.SplitHostPort(target); err == nil && host != target {
		if tc, ok := cf.Targets[host]; ok {
			result = overlay(result, tc)
		}
	}
	if tc, ok := cf.Targets[target]; ok {
		result = overlay(result, tc)
	}

	return result
}

// overlay returns base with every field set in top replaced.
func overlay(base, top TargetConfig) TargetConfig {
	if top.Port != 0 {
		base.Port = top.Port
	}
	if top.ClientIdentifier != "" {
		base.ClientIdentifier = top.ClientIdentifier
	}
	if top.Timeout != 0 {
		base.Timeout = top.Timeout
	}
	if top.SkipKexInit != nil {
		base.SkipKexInit = top.SkipKexInit
	}
	return base
}

// Validate checks every section of the file.
func (cf *File) Validate() error {
	if err := cf.Defaults.validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for name, tc := range cf.Targets {
		if err := tc.validate(); err != nil {
			return fmt.Errorf("target %s: %w", name, err)
		}
	}
	return nil
}

// validate checks the fields that are set.
func (tc TargetConfig) validate() error {
	if tc.Port < 0 || tc.Port > 65535 {
		return ErrInvalidPort
	}
	if tc.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if tc.ClientIdentifier != "" {
		if err := handshake.WriteIdentifier(io.Discard, tc.ClientIdentifier); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidClientIdentifier, err)
		}
	}
	return nil
}

// LoadConfigFile loads target configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cf.Targets == nil {
		cf.Targets = make(map[string]TargetConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sshprobe in the current directory
// 3. Look for .sshprobe in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
