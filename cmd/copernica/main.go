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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "copernica",
	Short: "Copernica information-centric networking node",
	Long: `Copernica runs a content-addressed forwarding node: it brings up a set
of link transports, routes Request/Response packets between them through
per-link Bloom-filter PIT/FIB pairs, and caches Responses in a content
store.

This tool supports:
- Running a node from a YAML topology (run)
- Generating a node identity (keygen)
- Serving Prometheus metrics standalone (metrics)`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Subcommands register themselves via init() in their own files:
	// - run.go: runCmd
	// - keygen.go: keygenCmd
	// - metrics.go: metricsCmd
}
