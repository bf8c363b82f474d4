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

// Package config loads and validates a node's topology: which links to
// bring up, how big to make their Bloom filters, which content store
// backend to use, and how to log and expose metrics.
package config

// Config is the root configuration document.
type Config struct {
	Node    NodeConfig    `yaml:"node" json:"node"`
	Links   []LinkConfig  `yaml:"links" json:"links"`
	Bloom   BloomConfig   `yaml:"bloom" json:"bloom"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	// ID names the node's identity, hex-encoded. Empty generates a fresh
	// identity at startup.
	ID string `yaml:"id" json:"id"`
}

// LinkKind discriminates the supported transport kinds.
type LinkKind string

const (
	LinkKindUDP  LinkKind = "udp"
	LinkKindMpsc LinkKind = "mpsc"
)

// LinkConfig describes a single transport this node should bring up.
type LinkConfig struct {
	Name   string   `yaml:"name" json:"name"`
	Kind   LinkKind `yaml:"kind" json:"kind"`
	Listen string   `yaml:"listen,omitempty" json:"listen,omitempty"`
}

// BloomConfig sizes the per-link Bloom filters and sets the forwarding
// match threshold.
type BloomConfig struct {
	Bits           uint `yaml:"bits" json:"bits"`
	MatchThreshold int  `yaml:"match_threshold" json:"match_threshold"`
}

// StoreBackend discriminates the supported content-store backends.
type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendPostgres StoreBackend = "postgres"
)

// StoreConfig selects and configures the content store backend.
type StoreConfig struct {
	Backend  StoreBackend   `yaml:"backend" json:"backend"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
}

// PostgresConfig configures the postgres content-store backend.
type PostgresConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// MetricsConfig configures the standalone metrics HTTP server.
type MetricsConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}
