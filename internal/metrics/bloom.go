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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BloomOccupancy reports the fraction of set bits in a link's bloom
	// filter, labeled by link and role (pit/fib).
	BloomOccupancy = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bloom",
			Name:      "occupancy_ratio",
			Help:      "Fraction of bits set in a link bloom filter",
		},
		[]string{"link", "role"},
	)

	// BloomDecoherenceTotal counts decoherence passes applied to bloom
	// filters to bound false positive growth over time.
	BloomDecoherenceTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bloom",
			Name:      "decoherence_total",
			Help:      "Total number of decoherence passes applied",
		},
		[]string{"link", "role"},
	)

	// BloomContainsTotal counts contains() lookups, split by whether the
	// percentage returned cleared the configured match threshold.
	BloomContainsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bloom",
			Name:      "contains_total",
			Help:      "Total number of bloom filter membership checks",
		},
		[]string{"link", "role", "matched"},
	)
)
