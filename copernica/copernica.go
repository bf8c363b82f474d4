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

// Package copernica wires the router to a set of Link transports: it owns
// the transport-to-core and router-to-core queues, registers each Link's
// core-to-transport channel, and runs the single dispatch goroutine that
// is the only caller of Router.HandlePacket.
package copernica

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fractalide/copernica/internal/logger"
	"github.com/fractalide/copernica/link"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/pkg/store"
	"github.com/fractalide/copernica/router"
)

// queueDepth sizes the t2c/r2c/c2t channels. The design calls these
// "unbounded queues"; Go channels are not unbounded, so a generous buffer
// plus the Router's drop-and-log-on-full policy (see router.send) stands
// in for that guarantee.
const queueDepth = 256

// Copernica owns the channel plumbing between a set of registered Links
// and a Router, and the goroutine that drives packets between them.
type Copernica struct {
	router *router.Router

	t2c chan linkpacket.InterLinkPacket
	r2c chan linkpacket.InterLinkPacket

	links []link.Link
	c2t   map[linkpacket.LinkID]chan linkpacket.InterLinkPacket
}

// New builds a Copernica core around r. r must already exist; Peer
// registers links and lazily grows r's Blooms as packets arrive from them.
func New(r *router.Router) *Copernica {
	return &Copernica{
		router: r,
		t2c:    make(chan linkpacket.InterLinkPacket, queueDepth),
		r2c:    make(chan linkpacket.InterLinkPacket, queueDepth),
		c2t:    make(map[linkpacket.LinkID]chan linkpacket.InterLinkPacket),
	}
}

// Peer registers a Link-building function with the core: build receives
// the (t2c_tx, c2t_rx) channel pair the transport should read from and
// write to, and returns the constructed Link. The Blooms entry for the
// link is pre-created so the first packet it ever sends already has a PIT
// and FIB to record itself in.
func (c *Copernica) Peer(id linkpacket.LinkID, build func(t2c chan<- linkpacket.InterLinkPacket, c2t <-chan linkpacket.InterLinkPacket) link.Link) {
	c2t := make(chan linkpacket.InterLinkPacket, queueDepth)
	c.c2t[id] = c2t
	c.router.EnsureLink(id)
	c.links = append(c.links, build(c.t2c, c2t))
}

// Run starts every registered Link plus the dispatch goroutine, supervised
// by an errgroup so that any one failure cancels the whole group through
// ctx. It blocks until ctx is cancelled or a Link's Run returns an error.
func (c *Copernica) Run(ctx context.Context, st store.ContentStore) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, l := range c.links {
		l := l
		g.Go(func() error { return l.Run(gctx) })
	}
	g.Go(func() error { return c.dispatch(gctx, st) })
	return g.Wait()
}

func (c *Copernica) dispatch(ctx context.Context, st store.ContentStore) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ilp := <-c.t2c:
			c.router.EnsureLink(ilp.LinkID())
			c.router.HandlePacket(ctx, ilp, st, c.r2c)
			c.drainOutbound(ctx)
		}
	}
}

// drainOutbound routes every packet currently queued on r2c to the c2t
// channel of the link it names. A packet addressed to an unregistered link
// id, or to a link whose queue is full, is dropped with a warning log;
// nothing is reported back to the router or the sending link.
func (c *Copernica) drainOutbound(ctx context.Context) {
	for {
		select {
		case out := <-c.r2c:
			dest, ok := c.c2t[out.LinkID()]
			if !ok {
				logger.Warn("copernica: dropping packet addressed to unknown link", logger.String("link", out.LinkID().String()))
				continue
			}
			select {
			case dest <- out:
			case <-ctx.Done():
				return
			default:
				logger.Warn("copernica: dropping outbound packet, link queue full", logger.String("link", out.LinkID().String()))
			}
		default:
			return
		}
	}
}
