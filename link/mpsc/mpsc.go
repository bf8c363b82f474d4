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

// Package mpsc implements the in-process channel Link: everything written
// to its outbound channel is handed straight back to its inbound channel,
// tagged with its own LinkID. It needs no wire codec, so it is the
// transport used for local loopback topologies and for tests that drive
// the router directly.
package mpsc

import (
	"context"

	"github.com/fractalide/copernica/internal/logger"
	"github.com/fractalide/copernica/internal/metrics"
	"github.com/fractalide/copernica/linkpacket"
)

// Link is a loopback in-process Link.
type Link struct {
	id  linkpacket.LinkID
	t2c chan<- linkpacket.InterLinkPacket
	c2t <-chan linkpacket.InterLinkPacket
}

// New builds an mpsc Link. t2c is the channel the runtime's dispatch loop
// reads from (transport-to-core); c2t is the channel the dispatch loop
// writes outbound packets to for this link (core-to-transport).
func New(id linkpacket.LinkID, t2c chan<- linkpacket.InterLinkPacket, c2t <-chan linkpacket.InterLinkPacket) *Link {
	return &Link{id: id, t2c: t2c, c2t: c2t}
}

// ID returns the link's id.
func (l *Link) ID() linkpacket.LinkID { return l.id }

// Run loops until ctx is cancelled, echoing every outbound packet back in
// as inbound.
func (l *Link) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ilp, ok := <-l.c2t:
			if !ok {
				return nil
			}
			metrics.LinkFramesTotal.WithLabelValues(l.id.String(), "tx", "ok").Inc()
			select {
			case l.t2c <- linkpacket.NewInterLinkPacket(l.id, ilp.LinkPacket()):
				metrics.LinkFramesTotal.WithLabelValues(l.id.String(), "rx", "ok").Inc()
			case <-ctx.Done():
				return ctx.Err()
			default:
				logger.Warn("mpsc: dropping loopback packet, inbound queue full", logger.String("link", l.id.String()))
			}
		}
	}
}
