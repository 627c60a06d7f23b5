// Package config loads qcert configuration files.
//
// YAML and TOML are supported, selected by file extension:
//
//	install_dir: ~/certs
//	cert_file: cert.pem
//	key_file: priv_key.pem
//	valid_for: 365
//	subject:
//	  C: US
//	  CN: example.org
//	  san: ["DNS:example.org", "URI:spiffe://example/x"]
//
// YAML subject fields are applied in file order. TOML tables are
// unordered, so TOML subject fields are applied in attribute order
// (C, ST, L, O, OU, CN, ...) with the SAN last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/remiblancher/qcert/internal/cert"
	"github.com/remiblancher/qcert/internal/x509util"
)

// Environment variables that override file settings.
const (
	EnvInstallDir = "QCERT_INSTALL_DIR"
	EnvValidFor   = "QCERT_VALID_FOR"
)

// Config is the qcert configuration.
type Config struct {
	InstallDir string  `yaml:"install_dir" toml:"install_dir"`
	CertFile   string  `yaml:"cert_file" toml:"cert_file"`
	KeyFile    string  `yaml:"key_file" toml:"key_file"`
	ValidFor   int     `yaml:"valid_for" toml:"valid_for"`
	Subject    Subject `yaml:"subject" toml:"-"`
}

// tomlConfig mirrors Config for TOML, where the subject is a plain table.
type tomlConfig struct {
	InstallDir string         `toml:"install_dir"`
	CertFile   string         `toml:"cert_file"`
	KeyFile    string         `toml:"key_file"`
	ValidFor   int            `toml:"valid_for"`
	Subject    map[string]any `toml:"subject"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		InstallDir: ".",
		CertFile:   cert.DefaultCertFile,
		KeyFile:    cert.DefaultKeyFile,
		ValidFor:   cert.DefaultValidFor,
	}
}

// Load reads, defaults, overrides from the environment and validates a
// configuration file.
func Load(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *Config
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	case ".toml":
		cfg, err = ParseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ParseYAML parses a YAML configuration and fills in defaults.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return cfg, nil
}

// ParseTOML parses a TOML configuration and fills in defaults.
func ParseTOML(data []byte) (*Config, error) {
	d := Default()
	tc := tomlConfig{
		InstallDir: d.InstallDir,
		CertFile:   d.CertFile,
		KeyFile:    d.KeyFile,
		ValidFor:   d.ValidFor,
	}
	if err := toml.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	subject, err := subjectFromMap(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return &Config{
		InstallDir: tc.InstallDir,
		CertFile:   tc.CertFile,
		KeyFile:    tc.KeyFile,
		ValidFor:   tc.ValidFor,
		Subject:    subject,
	}, nil
}

// ApplyEnv overrides settings from QCERT_INSTALL_DIR and QCERT_VALID_FOR.
func (c *Config) ApplyEnv() error {
	if dir, ok := os.LookupEnv(EnvInstallDir); ok && dir != "" {
		c.InstallDir = dir
	}
	if v, ok := os.LookupEnv(EnvValidFor); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvValidFor, err)
		}
		c.ValidFor = n
	}
	return nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.InstallDir) == "" {
		result = multierror.Append(result, fmt.Errorf("install_dir is required"))
	}
	if c.ValidFor <= 0 {
		result = multierror.Append(result, fmt.Errorf("valid_for must be positive, got %d", c.ValidFor))
	}
	for _, f := range c.Subject {
		if err := validateField(f); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func validateField(f cert.Field) error {
	if isSANKey(f.Key) {
		var entries []string
		switch v := f.Value.(type) {
		case string:
			entries = []string{v}
		case []string:
			entries = v
		default:
			return fmt.Errorf("subject.%s: unsupported value type %T", f.Key, f.Value)
		}
		if _, err := x509util.ParseSAN(x509util.JoinSAN(entries)); err != nil {
			return fmt.Errorf("subject.%s: %w", f.Key, err)
		}
		return nil
	}

	if _, ok := x509util.LookupAttribute(f.Key); !ok {
		return fmt.Errorf("subject.%s: %w", f.Key, cert.ErrUnknownSubjectField)
	}
	if _, ok := f.Value.(string); !ok {
		return fmt.Errorf("subject.%s: unsupported value type %T", f.Key, f.Value)
	}
	return nil
}

// InstallPath returns the install directory with ~ expanded.
func (c *Config) InstallPath() (string, error) {
	return homedir.Expand(c.InstallDir)
}

// Fields returns the subject as Generate fields, in application order.
func (c *Config) Fields() []cert.Field {
	return append([]cert.Field(nil), c.Subject...)
}

func isSANKey(key string) bool {
	return strings.EqualFold(key, "san") || strings.EqualFold(key, x509util.ExtSubjectAltName)
}
