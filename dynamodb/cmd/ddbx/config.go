package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/awsddb"
)

const (
	configFileName = "ddbx.yaml"

	backendAWS   = "aws"
	backendLocal = "local"
)

// Config holds the settings shared by every ddbx command. Values come from
// ddbx.yaml, then the environment, then command-line flags.
type Config struct {
	// Port is the HTTP port for ddbx serve.
	Port int `yaml:"port"`

	// Backend is "aws" or "local".
	Backend string `yaml:"backend"`

	// Profile and Region select AWS credentials.
	Profile string `yaml:"profile"`
	Region  string `yaml:"region"`

	// DataDir is where the local backend keeps its BadgerDB files. Empty
	// keeps data in memory.
	DataDir string `yaml:"dataDir"`

	// Catalog is a catalog YAML file. Empty uses the built-in catalog.
	Catalog string `yaml:"catalog"`

	// Seed is a JSON file of items loaded into the local backend at start.
	Seed string `yaml:"seed"`
}

func defaultConfig() Config {
	return Config{
		Port:    8080,
		Backend: backendAWS,
		Region:  awsddb.DefaultRegion,
	}
}

// LoadConfig reads path, or when path is empty the nearest ddbx.yaml found
// walking up from dir. A missing implicit file yields the defaults. The
// returned string is the file that was read.
func LoadConfig(path, dir string) (Config, string, error) {
	cfg := defaultConfig()
	if path == "" {
		path = findConfigFile(dir)
		if path == "" {
			return cfg, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, "", fmt.Errorf("parse %s: %w", path, err)
	}

	// Relative paths in the file are relative to the file.
	base := filepath.Dir(path)
	cfg.DataDir = resolvePath(base, cfg.DataDir)
	cfg.Catalog = resolvePath(base, cfg.Catalog)
	cfg.Seed = resolvePath(base, cfg.Seed)
	return cfg, path, nil
}

// applyEnv overrides cfg with AWS_PROFILE, AWS_REGION and PORT.
func (c Config) applyEnv(getenv func(string) string) Config {
	if v := getenv("AWS_PROFILE"); v != "" {
		c.Profile = v
	}
	if v := getenv("AWS_REGION"); v != "" {
		c.Region = v
	}
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	return c
}

// Validate checks the combined settings.
func (c Config) Validate() error {
	switch c.Backend {
	case backendAWS, backendLocal:
	default:
		return fmt.Errorf("unknown backend %q: want %s or %s", c.Backend, backendAWS, backendLocal)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Seed != "" && c.Backend != backendLocal {
		return fmt.Errorf("seed requires the %s backend", backendLocal)
	}
	return nil
}

// findConfigFile searches for ddbx.yaml walking up from dir.
func findConfigFile(dir string) string {
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}

	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
