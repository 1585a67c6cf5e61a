// Package config loads the YAML configuration of the slime tool.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/astei/slimeworld/internal/properties"
	"github.com/astei/slimeworld/internal/slime"
)

// EnvPath names the variable consulted when no config path is given.
const EnvPath = "SLIME_CONFIG"

type Config struct {
	Store        StoreConfig           `yaml:"store"`
	Compression  string                `yaml:"compression"`
	WorldVersion string                `yaml:"world_version"`
	Properties   properties.Properties `yaml:"properties"`
}

// StoreConfig selects where worlds are kept. Type is one of file, memory,
// badger, redis, mysql or mongo.
type StoreConfig struct {
	Type string `yaml:"type"`

	// Path is the directory of the file and badger stores.
	Path string `yaml:"path"`

	// URL is the address or DSN of the redis, mysql and mongo stores.
	URL        string `yaml:"url"`
	Database   string `yaml:"database"`
	Table      string `yaml:"table"`
	Collection string `yaml:"collection"`
	KeyPrefix  string `yaml:"key_prefix"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Type:       "file",
			Path:       "worlds",
			Database:   "slime",
			Table:      "worlds",
			Collection: "worlds",
			KeyPrefix:  "slime:world:",
		},
		Compression:  slime.CompressionZstd.String(),
		WorldVersion: slime.V1_8.String(),
		Properties:   properties.Default(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to $SLIME_CONFIG, and to the defaults alone when that is unset too.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.Codec(); err != nil {
		return err
	}
	if _, err := c.Version(); err != nil {
		return err
	}
	return c.Properties.Validate()
}

func (c *Config) Codec() (slime.Compression, error) {
	return slime.ParseCompression(c.Compression)
}

func (c *Config) Version() (slime.WorldVersion, error) {
	return slime.ParseWorldVersion(c.WorldVersion)
}
