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
	"os"
	"regexp"
	"strconv"
)

// envVarPattern matches ${VAR} or ${VAR:default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// substituteEnvVars replaces every ${VAR} or ${VAR:default} occurrence in
// input with the named environment variable, falling back to the default
// (or the empty string) when it is unset.
func substituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		value, ok := os.LookupEnv(parts[1])
		if !ok {
			if len(parts) > 2 {
				return parts[2]
			}
			return ""
		}
		return value
	})
}

// substituteEnvVarsInConfig walks every string field that plausibly
// carries a ${VAR:default} template and resolves it in place.
func substituteEnvVarsInConfig(cfg *Config) {
	cfg.Node.ID = substituteEnvVars(cfg.Node.ID)
	for i := range cfg.Links {
		cfg.Links[i].Listen = substituteEnvVars(cfg.Links[i].Listen)
	}
	cfg.Store.Postgres.Host = substituteEnvVars(cfg.Store.Postgres.Host)
	cfg.Store.Postgres.User = substituteEnvVars(cfg.Store.Postgres.User)
	cfg.Store.Postgres.Password = substituteEnvVars(cfg.Store.Postgres.Password)
	cfg.Store.Postgres.Database = substituteEnvVars(cfg.Store.Postgres.Database)
	cfg.Store.Postgres.SSLMode = substituteEnvVars(cfg.Store.Postgres.SSLMode)
	cfg.Logging.Level = substituteEnvVars(cfg.Logging.Level)
	cfg.Metrics.Listen = substituteEnvVars(cfg.Metrics.Listen)
}

// applyEnvOverrides overrides already-parsed config values, field by
// field, from environment variables named "<prefix>_<FIELD>", applied
// after YAML parsing and template substitution so the environment always
// wins.
func applyEnvOverrides(cfg *Config, prefix string) {
	if v, ok := os.LookupEnv(prefix + "_NODE_ID"); ok {
		cfg.Node.ID = v
	}
	if v, ok := os.LookupEnv(prefix + "_BLOOM_BITS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bloom.Bits = uint(n)
		}
	}
	if v, ok := os.LookupEnv(prefix + "_BLOOM_MATCH_THRESHOLD"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bloom.MatchThreshold = n
		}
	}
	if v, ok := os.LookupEnv(prefix + "_STORE_BACKEND"); ok {
		cfg.Store.Backend = StoreBackend(v)
	}
	if v, ok := os.LookupEnv(prefix + "_DB_HOST"); ok {
		cfg.Store.Postgres.Host = v
	}
	if v, ok := os.LookupEnv(prefix + "_DB_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.Port = n
		}
	}
	if v, ok := os.LookupEnv(prefix + "_DB_USER"); ok {
		cfg.Store.Postgres.User = v
	}
	if v, ok := os.LookupEnv(prefix + "_DB_PASSWORD"); ok {
		cfg.Store.Postgres.Password = v
	}
	if v, ok := os.LookupEnv(prefix + "_DB_NAME"); ok {
		cfg.Store.Postgres.Database = v
	}
	if v, ok := os.LookupEnv(prefix + "_LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv(prefix + "_LOG_PRETTY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.Pretty = b
		}
	}
	if v, ok := os.LookupEnv(prefix + "_METRICS_LISTEN"); ok {
		cfg.Metrics.Listen = v
	}
}
