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
	// LinkFramesTotal counts link-layer frames sent or received, including
	// Reed-Solomon correction outcomes.
	LinkFramesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "frames_total",
			Help:      "Total number of link frames processed",
		},
		[]string{"link", "direction", "outcome"}, // tx/rx, ok/corrected/uncorrectable
	)

	// LinkBytesTotal counts raw bytes moved per link and direction.
	LinkBytesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "bytes_total",
			Help:      "Total number of bytes moved over a link",
		},
		[]string{"link", "direction"},
	)

	// LinkRSCorrectedSymbols tracks how many byte errors the Reed-Solomon
	// decoder corrected per frame, giving visibility into link health.
	LinkRSCorrectedSymbols = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "rs_corrected_symbols",
			Help:      "Number of byte errors corrected per Reed-Solomon block",
			Buckets:   prometheus.LinearBuckets(0, 1, 7),
		},
		[]string{"link"},
	)
)
