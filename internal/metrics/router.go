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
	// RouterPacketsHandled counts packets the forwarding engine has processed,
	// split by narrow waist kind (request/response) and outcome.
	RouterPacketsHandled = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "packets_total",
			Help:      "Total number of packets handled by the forwarding engine",
		},
		[]string{"kind", "outcome"}, // request/response, forwarded/cache_hit/broadcast/dropped
	)

	// RouterForwardedLinks counts the number of egress links a single packet
	// was fanned out to.
	RouterForwardedLinks = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "forwarded_links",
			Help:      "Number of links a packet was forwarded or broadcast to",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		},
	)

	// RouterHandleDuration tracks how long a single handle_packet pass takes.
	RouterHandleDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "handle_duration_seconds",
			Help:      "Duration of a single forwarding decision",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 15),
		},
	)
)
