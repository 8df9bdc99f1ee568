package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings needed to open a pool and drive a TxManager.
// It loads in priority order: flags override environment variables,
// which override the config file.
type Config struct {
	URL             string        `yaml:"url"`
	MaxConnections  uint32        `yaml:"max_connections"`
	MinConnections  uint32        `yaml:"min_connections"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	LockWaitTimeout time.Duration `yaml:"tx_lock_wait_timeout"`
	CheckInterval   time.Duration `yaml:"tx_check_interval"`
	Verbose         bool          `yaml:"-"`
	JSON            bool          `yaml:"-"`
}

const defaultConfigFile = ".sqlcore.yaml"

func defaultConfig() *Config {
	return &Config{
		MaxConnections:  10,
		MinConnections:  0,
		ConnectTimeout:  10 * time.Second,
		LockWaitTimeout: 30 * time.Second,
		CheckInterval:   5 * time.Second,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	if c.URL == "" {
		if url := os.Getenv("SQLCORE_URL"); url != "" {
			c.URL = url
		}
	}
}
