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

// Package link declares the contract every transport (in-process channel,
// UDP/IP, the lossy test corruptor) satisfies to plug into the Copernica
// runtime, and the byte-oriented Transport abstraction the framed
// transports build their Link on top of.
package link

import (
	"context"
	"net/netip"

	"github.com/fractalide/copernica/linkpacket"
)

// Link is a running transport: it moves LinkPackets between its own wire
// and the two channels it was constructed with (an inbound sink and an
// outbound source), tagging everything that arrives with its own LinkID.
type Link interface {
	// ID returns the LinkID this transport was registered under.
	ID() linkpacket.LinkID
	// Run drives the transport until ctx is cancelled or an unrecoverable
	// transport error occurs.
	Run(ctx context.Context) error
}

// Transport is the byte-oriented abstraction a framed Link (UDP/IP, the
// lossy corruptor) is built on: send a Reed-Solomon-framed byte slice to a
// destination, or receive one along with where it came from.
type Transport interface {
	Send(ctx context.Context, frame []byte, to netip.AddrPort) error
	Recv(ctx context.Context) (frame []byte, from netip.AddrPort, err error)
	Close() error
}
