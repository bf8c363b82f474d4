// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix is the environment variable prefix Load uses when
// LoaderOptions.EnvPrefix is left empty.
const DefaultEnvPrefix = "COPERNICA"

// defaultBloomBits and defaultMatchThreshold seed a Config that was never
// given explicit bloom settings.
const (
	defaultBloomBits      = 2048
	defaultMatchThreshold = 50
)

// LoaderOptions configures Load.
type LoaderOptions struct {
	// Path is the YAML config file to read.
	Path string
	// EnvPrefix names the environment variable prefix used for overrides.
	// Defaults to DefaultEnvPrefix. It does not apply to ${VAR:default}
	// substitution, which looks up VAR exactly as written.
	EnvPrefix string
	// DotEnvPath, if set, is loaded into the process environment with
	// godotenv before the config file is parsed, for local development.
	DotEnvPath string
}

// Load reads, substitutes, and validates a Config from opts.Path. It never
// mutates the process environment beyond opts.DotEnvPath, and environment
// overrides (opts.EnvPrefix-prefixed variables) are applied last, so they
// always win over the YAML file.
func Load(opts LoaderOptions) (*Config, error) {
	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	if opts.DotEnvPath != "" {
		if err := godotenv.Load(opts.DotEnvPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}

	cfg := &Config{}
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.Path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", opts.Path, err)
		}
	}

	setDefaults(cfg)
	substituteEnvVarsInConfig(cfg)
	applyEnvOverrides(cfg, prefix)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad calls Load and panics on error, for CLI entry points that
// cannot proceed without a valid configuration.
func MustLoad(opts LoaderOptions) *Config {
	cfg, err := Load(opts)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Bloom.Bits == 0 {
		cfg.Bloom.Bits = defaultBloomBits
	}
	if cfg.Bloom.MatchThreshold == 0 {
		cfg.Bloom.MatchThreshold = defaultMatchThreshold
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendMemory
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = "127.0.0.1:9760"
	}
}

func validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Links))
	for _, l := range cfg.Links {
		if l.Name == "" {
			return fmt.Errorf("config: link entry missing name")
		}
		if seen[l.Name] {
			return fmt.Errorf("config: duplicate link name %q", l.Name)
		}
		seen[l.Name] = true
		switch l.Kind {
		case LinkKindUDP:
			if l.Listen == "" {
				return fmt.Errorf("config: udp link %q requires listen", l.Name)
			}
		case LinkKindMpsc:
		default:
			return fmt.Errorf("config: link %q has unknown kind %q", l.Name, l.Kind)
		}
	}
	if cfg.Bloom.MatchThreshold < 0 || cfg.Bloom.MatchThreshold > 100 {
		return fmt.Errorf("config: bloom.match_threshold must be 0-100, got %d", cfg.Bloom.MatchThreshold)
	}
	switch cfg.Store.Backend {
	case StoreBackendMemory, StoreBackendPostgres:
	default:
		return fmt.Errorf("config: store.backend has unknown value %q", cfg.Store.Backend)
	}
	return nil
}
