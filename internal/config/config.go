// Package config loads the mapper's run defaults from the home-directory
// config file. Flags override everything here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".threat2pcya"
	DefaultConfigFile = "config.yaml"
	DefaultLogFile    = "runs.jsonl"
)

// Config carries run defaults and paths.
type Config struct {
	TargetLevel int      `yaml:"target_level"`
	Mode        string   `yaml:"mode"`
	Families    []string `yaml:"families"`

	Matrix MatrixColumns `yaml:"matrix_columns"`

	// AssetSynonyms maps a canonical asset name to alternate spellings used
	// across the inputs.
	AssetSynonyms map[string][]string `yaml:"asset_synonyms"`

	LogPath   string `yaml:"log_path"`
	ConfigDir string `yaml:"-"`
}

// MatrixColumns names the requirement-matrix columns.
type MatrixColumns struct {
	RID    string `yaml:"requirement_id"`
	Trace  string `yaml:"trace"`
	Assets string `yaml:"assets"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TargetLevel: 2,
		Mode:        "cascade",
		Families:    []string{"CR", "SAR", "EDR", "HDR", "NDR"},
		Matrix: MatrixColumns{
			RID:    "Requirement ID",
			Trace:  "TIS Source",
			Assets: "Assets Allocated to",
		},
	}
}

// Load reads the config file at path, or the home-directory default when
// path is empty. A missing file yields the defaults; zero fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	configDir := ""
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(homeDir, DefaultConfigDir)
		path = filepath.Join(configDir, DefaultConfigFile)
	}

	cfg := Default()
	cfg.ConfigDir = configDir

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	def := Default()
	if cfg.TargetLevel == 0 {
		cfg.TargetLevel = def.TargetLevel
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if len(cfg.Families) == 0 {
		cfg.Families = def.Families
	}
	if cfg.Matrix.RID == "" {
		cfg.Matrix.RID = def.Matrix.RID
	}
	if cfg.Matrix.Trace == "" {
		cfg.Matrix.Trace = def.Matrix.Trace
	}
	if cfg.Matrix.Assets == "" {
		cfg.Matrix.Assets = def.Matrix.Assets
	}
	return cfg, nil
}

// ResolveLogPath returns the configured log path, creating the config
// directory for the default location when needed.
func (c *Config) ResolveLogPath() (string, error) {
	if c.LogPath != "" {
		return c.LogPath, nil
	}
	if c.ConfigDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		c.ConfigDir = filepath.Join(homeDir, DefaultConfigDir)
	}
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(c.ConfigDir, DefaultLogFile), nil
}
