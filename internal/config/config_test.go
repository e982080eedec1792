package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Tests fail if defaults change unexpectedly, so changes stay intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Port is 22", func(t *testing.T) {
		t.Parallel()
		if cfg.Port != 22 {
			t.Errorf("expected Port to be 22, got %d", cfg.Port)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default TorProxyAddress is 127.0.0.1:9050", func(t *testing.T) {
		t.Parallel()
		if cfg.TorProxyAddress != "127.0.0.1:9050" {
			t.Errorf("expected TorProxyAddress to be '127.0.0.1:9050', got '%s'", cfg.TorProxyAddress)
		}
	})

	t.Run("default TorStartupTimeout is 3 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout to be 3m, got %v", cfg.TorStartupTimeout)
		}
	})

	t.Run("results are saved by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
	})

	t.Run("Tor and KEXINIT skipping are off", func(t *testing.T) {
		t.Parallel()
		if cfg.UseTor || cfg.UseExternalTor || cfg.SkipKexInit {
			t.Error("expected UseTor, UseExternalTor and SkipKexInit to be false")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"server.example"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name: "multiple targets",
			modify: func(c *Config) {
				c.Targets = []string{"a.example", "b.example:2222", "[2001:db8::1]:22"}
			},
		},
		{
			name:    "no targets",
			modify:  func(c *Config) { c.Targets = nil },
			wantErr: ErrNoTarget,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "port zero",
			modify:  func(c *Config) { c.Port = 0 },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "port too large",
			modify:  func(c *Config) { c.Port = 65536 },
			wantErr: ErrInvalidPort,
		},
		{
			name:   "custom identifier",
			modify: func(c *Config) { c.ClientIdentifier = "SSH-2.0-Audit_1.0" },
		},
		{
			name:    "identifier without prefix",
			modify:  func(c *Config) { c.ClientIdentifier = "OpenSSH_9.6" },
			wantErr: ErrInvalidClientIdentifier,
		},
		{
			name:    "identifier with line break",
			modify:  func(c *Config) { c.ClientIdentifier = "SSH-2.0-a\r\nSSH-2.0-b" },
			wantErr: ErrInvalidClientIdentifier,
		},
		{
			name:    "identifier too long",
			modify:  func(c *Config) { c.ClientIdentifier = "SSH-2.0-" + strings.Repeat("x", 250) },
			wantErr: ErrInvalidClientIdentifier,
		},
		{
			name: "json and markdown",
			modify: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name: "proxy and tor",
			modify: func(c *Config) {
				c.ProxyURL = "socks5://127.0.0.1:1080"
				c.UseTor = true
			},
			wantErr: ErrConflictingProxies,
		},
		{
			name: "invalid port in config file",
			modify: func(c *Config) {
				c.TargetConfigs = &File{Targets: map[string]TargetConfig{"a.example": {Port: 70000}}}
			},
			wantErr: ErrInvalidPort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// boolPtr returns a pointer to b.
func boolPtr(b bool) *bool {
	return &b
}

// TestFileGetTargetConfig tests layering of defaults, host and target sections.
func TestFileGetTargetConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: TargetConfig{
			Timeout:     45 * time.Second,
			SkipKexInit: boolPtr(true),
		},
		Targets: map[string]TargetConfig{
			"bastion.example": {
				Port:             2222,
				ClientIdentifier: "SSH-2.0-Bastion",
			},
			"bastion.example:2200": {
				SkipKexInit: boolPtr(false),
			},
		},
	}

	t.Run("unknown target gets defaults", func(t *testing.T) {
		t.Parallel()

		tc := cf.GetTargetConfig("other.example")
		if tc.Timeout != 45*time.Second {
			t.Errorf("expected default timeout, got %v", tc.Timeout)
		}
		if tc.Port != 0 {
			t.Errorf("expected no port, got %d", tc.Port)
		}
	})

	t.Run("host section applies", func(t *testing.T) {
		t.Parallel()

		tc := cf.GetTargetConfig("bastion.example")
		if tc.Port != 2222 || tc.ClientIdentifier != "SSH-2.0-Bastion" {
			t.Errorf("unexpected config %+v", tc)
		}
		if tc.Timeout != 45*time.Second {
			t.Errorf("expected default timeout to be kept, got %v", tc.Timeout)
		}
	})

	t.Run("host section applies to host with port", func(t *testing.T) {
		t.Parallel()

		tc := cf.GetTargetConfig("bastion.example:22")
		if tc.ClientIdentifier != "SSH-2.0-Bastion" {
			t.Errorf("expected host identifier, got %q", tc.ClientIdentifier)
		}
		if tc.SkipKexInit == nil || !*tc.SkipKexInit {
			t.Error("expected default skipKexInit")
		}
	})

	t.Run("exact target section wins", func(t *testing.T) {
		t.Parallel()

		tc := cf.GetTargetConfig("bastion.example:2200")
		if tc.SkipKexInit == nil || *tc.SkipKexInit {
			t.Error("expected target to turn skipKexInit off")
		}
		if tc.ClientIdentifier != "SSH-2.0-Bastion" {
			t.Errorf("expected host identifier, got %q", tc.ClientIdentifier)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		empty := &File{}
		tc := empty.GetTargetConfig("server.example")
		if tc.Port != 0 || tc.Timeout != 0 || tc.SkipKexInit != nil || tc.ClientIdentifier != "" {
			t.Errorf("expected zero config, got %+v", tc)
		}
	})
}

// TestConfigSettings tests precedence between flags, file and defaults.
func TestConfigSettings(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: TargetConfig{Timeout: 45 * time.Second},
		Targets: map[string]TargetConfig{
			"slow.example": {Timeout: 90 * time.Second, Port: 2222, SkipKexInit: boolPtr(true)},
		},
	}

	t.Run("no file uses config values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		s := cfg.Settings("server.example")
		if s.Port != DefaultPort || s.Timeout != DefaultTimeout || s.SkipKexInit {
			t.Errorf("unexpected settings %+v", s)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.TargetConfigs = file
		s := cfg.Settings("slow.example")
		if s.Port != 2222 || s.Timeout != 90*time.Second || !s.SkipKexInit {
			t.Errorf("unexpected settings %+v", s)
		}
	})

	t.Run("file defaults apply to other targets", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.TargetConfigs = file
		s := cfg.Settings("fast.example")
		if s.Timeout != 45*time.Second || s.Port != DefaultPort {
			t.Errorf("unexpected settings %+v", s)
		}
	})

	t.Run("explicit flags override file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.TargetConfigs = file
		cfg.Timeout = 5 * time.Second
		cfg.SetExplicit(SettingTimeout, SettingSkipKexInit)

		s := cfg.Settings("slow.example")
		if s.Timeout != 5*time.Second {
			t.Errorf("expected flag timeout, got %v", s.Timeout)
		}
		if s.SkipKexInit {
			t.Error("expected flag value for skipKexInit")
		}
		if s.Port != 2222 {
			t.Errorf("expected file port, got %d", s.Port)
		}
	})

	t.Run("SetExplicit on zero config", func(t *testing.T) {
		t.Parallel()

		var cfg Config
		cfg.SetExplicit(SettingPort)
		if !cfg.IsExplicit(SettingPort) {
			t.Error("expected port to be explicit")
		}
		if cfg.IsExplicit(SettingTimeout) {
			t.Error("expected timeout not to be explicit")
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.sshprobe")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sshprobe")
		content := `defaults:
  timeout: 45s
  skipKexInit: false
targets:
  bastion.example:
    port: 2222
    ident: "SSH-2.0-Audit_1.0"
  "legacy.example:22":
    skipKexInit: true
    timeout: 2m
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.Timeout != 45*time.Second {
			t.Errorf("expected default timeout 45s, got %v", cfg.Defaults.Timeout)
		}
		if cfg.Defaults.SkipKexInit == nil || *cfg.Defaults.SkipKexInit {
			t.Error("expected explicit false skipKexInit")
		}

		bastion, ok := cfg.Targets["bastion.example"]
		if !ok {
			t.Fatal("expected bastion.example in targets")
		}
		if bastion.Port != 2222 || bastion.ClientIdentifier != "SSH-2.0-Audit_1.0" {
			t.Errorf("unexpected bastion config %+v", bastion)
		}

		legacy := cfg.Targets["legacy.example:22"]
		if legacy.Timeout != 2*time.Minute {
			t.Errorf("expected 2m timeout, got %v", legacy.Timeout)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid file, got %v", err)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sshprobe")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Targets map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sshprobe")
		if err := os.WriteFile(configPath, []byte("defaults:\n  port: 2022\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Targets == nil {
			t.Error("expected Targets map to be initialized")
		}
		if cfg.Defaults.Port != 2022 {
			t.Errorf("expected port 2022, got %d", cfg.Defaults.Port)
		}
	})
}

// TestFileValidate tests validation of config file sections.
func TestFileValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    File
		wantErr error
	}{
		{
			name: "valid",
			file: File{Targets: map[string]TargetConfig{"a.example": {Port: 22, Timeout: time.Second}}},
		},
		{
			name:    "negative default timeout",
			file:    File{Defaults: TargetConfig{Timeout: -time.Second}},
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "bad identifier",
			file:    File{Targets: map[string]TargetConfig{"a.example": {ClientIdentifier: "hello"}}},
			wantErr: ErrInvalidClientIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.file.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); !strings.HasSuffix(dir, AppName) {
		t.Errorf("expected data dir to end with %q, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); !strings.HasSuffix(dir, AppName) {
		t.Errorf("expected config dir to end with %q, got %q", AppName, dir)
	}
}
