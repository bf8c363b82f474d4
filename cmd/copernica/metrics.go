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

	"github.com/spf13/cobra"

	"github.com/fractalide/copernica/internal/logger"
	"github.com/fractalide/copernica/internal/metrics"
)

var metricsListen string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve Prometheus metrics standalone",
	Long: `Serve the process's Prometheus registry without running a node,
useful for exercising dashboards or alerting rules against a fixed set
of metric names before a real topology is up.`,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().StringVarP(&metricsListen, "listen", "l", "127.0.0.1:9760", "Address to serve /metrics on")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	logger.Info("metrics: serving", logger.String("listen", metricsListen))
	if err := metrics.StartServer(metricsListen); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
