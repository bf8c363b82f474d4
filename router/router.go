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

// Package router implements the Copernica forwarding engine: per-link
// Bloom filters acting as a combined PIT/FIB, the content-store lookup on
// the Request path, and the fan-out decision on both paths. A Router owns
// its Blooms map outright; the concurrency model promises it is only ever
// touched from the single dispatch goroutine that calls HandlePacket, so
// no internal locking protects it.
package router

import (
	"context"
	"sort"
	"time"

	"github.com/fractalide/copernica/bloomfilter"
	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/internal/logger"
	"github.com/fractalide/copernica/internal/metrics"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/pkg/store"
	"github.com/fractalide/copernica/wire"
)

// Blooms is the PIT-like and FIB-like filter pair a Router keeps for a
// single link.
type Blooms struct {
	PIT *bloomfilter.Filter
	FIB *bloomfilter.Filter
}

// Router is the forwarding engine's single entry point. The zero value is
// not usable; construct with New.
type Router struct {
	bloomBits      uint
	matchThreshold int

	blooms map[linkpacket.LinkID]*Blooms
}

// New builds a Router. bloomBits sizes every link's Bloom filters (zero
// picks bloomfilter.DefaultBits); matchThreshold is the contains()
// percentage a FIB/PIT lookup must exceed to count as a match, resolving
// the open question left by the Bloom filter's probabilistic membership
// test (§9 design note (c)).
func New(bloomBits uint, matchThreshold int) *Router {
	return &Router{
		bloomBits:      bloomBits,
		matchThreshold: matchThreshold,
		blooms:         make(map[linkpacket.LinkID]*Blooms),
	}
}

// EnsureLink lazily registers a link's Blooms entry, used both by Peer
// registration and by the dispatch loop's lazy-insert-on-arrival rule.
func (r *Router) EnsureLink(id linkpacket.LinkID) *Blooms {
	if b, ok := r.blooms[id]; ok {
		return b
	}
	b := &Blooms{
		PIT: bloomfilter.New(r.bloomBits),
		FIB: bloomfilter.New(r.bloomBits),
	}
	r.blooms[id] = b
	return b
}

// otherLinks returns every registered link other than exclude, in
// deterministic link-id order, satisfying the tie-breaking rule that
// forwards within one HandlePacket call happen in a fixed order.
func (r *Router) otherLinks(exclude linkpacket.LinkID) []linkpacket.LinkID {
	ids := make([]linkpacket.LinkID, 0, len(r.blooms))
	for id := range r.blooms {
		if !id.Equal(exclude) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// HandlePacket is the Router's single entry point. It mutates the Blooms
// state for ilp's link (and any link it forwards to), consults store on
// the Request path, and pushes every resulting outbound InterLinkPacket
// onto out, mirroring the distilled design's router-to-core queue: the
// caller (the Copernica dispatch loop) is responsible for draining out and
// routing each packet to its link's transport channel.
func (r *Router) HandlePacket(ctx context.Context, ilp linkpacket.InterLinkPacket, st store.ContentStore, out chan<- linkpacket.InterLinkPacket) {
	start := time.Now()
	defer func() {
		metrics.RouterHandleDuration.Observe(time.Since(start).Seconds())
	}()

	nwp := ilp.LinkPacket().NarrowWaistPacket()
	linkID := ilp.LinkID()
	r.EnsureLink(linkID)

	if nwp.IsRequest() {
		r.handleRequest(ctx, ilp, st, out)
		return
	}
	r.handleResponse(ctx, ilp, st, out)
}

func (r *Router) handleRequest(ctx context.Context, ilp linkpacket.InterLinkPacket, st store.ContentStore, out chan<- linkpacket.InterLinkPacket) {
	linkID := ilp.LinkID()
	lp := ilp.LinkPacket()
	nwp := lp.NarrowWaistPacket()
	h := nwp.HBFI()
	blooms := r.EnsureLink(linkID)

	blooms.PIT.Insert(h)
	metrics.BloomOccupancy.WithLabelValues(linkID.String(), "pit").Set(float64(blooms.PIT.Decoherence()) / 100)

	if st != nil {
		raw, hit, err := st.Get(ctx, h.Fingerprint())
		if err != nil {
			logger.Warn("router: content store get failed", logger.String("link", linkID.String()), logger.Error(err))
		} else if hit {
			respNwp, err := wire.DeserializeNarrowWaistPacket(raw)
			if err != nil {
				logger.Warn("router: cached response failed to deserialize", logger.String("link", linkID.String()), logger.Error(err))
			} else {
				send(out, linkID, linkpacket.New(lp.ReplyTo(), respNwp))
				metrics.RouterPacketsHandled.WithLabelValues("request", "cache_hit").Inc()
				metrics.RouterForwardedLinks.Observe(1)
				return
			}
		}
	}

	targets := r.fibMatches(h, linkID)
	if len(targets) == 0 {
		targets = r.otherLinks(linkID)
		metrics.RouterPacketsHandled.WithLabelValues("request", "broadcast").Inc()
	} else {
		metrics.RouterPacketsHandled.WithLabelValues("request", "forwarded").Inc()
	}
	for _, target := range targets {
		send(out, target, lp)
	}
	metrics.RouterForwardedLinks.Observe(float64(len(targets)))
}

func (r *Router) handleResponse(ctx context.Context, ilp linkpacket.InterLinkPacket, st store.ContentStore, out chan<- linkpacket.InterLinkPacket) {
	linkID := ilp.LinkID()
	lp := ilp.LinkPacket()
	nwp := lp.NarrowWaistPacket()
	h := nwp.HBFI()
	blooms := r.EnsureLink(linkID)

	ok, err := nwp.Verify()
	if err != nil || !ok {
		logger.Warn("router: dropping response with invalid signature", logger.String("link", linkID.String()), logger.Error(err))
		metrics.RouterPacketsHandled.WithLabelValues("response", "dropped").Inc()
		return
	}

	if st != nil {
		raw, err := wire.SerializeNarrowWaistPacket(nwp)
		if err != nil {
			logger.Warn("router: failed to serialize response for storage", logger.Error(err))
		} else if err := st.Put(ctx, h.Fingerprint(), raw); err != nil {
			logger.Warn("router: content store put failed", logger.String("link", linkID.String()), logger.Error(err))
		}
	}

	blooms.FIB.Insert(h)
	metrics.BloomOccupancy.WithLabelValues(linkID.String(), "fib").Set(float64(blooms.FIB.Decoherence()) / 100)

	targets := r.pitMatches(h, linkID)
	for _, target := range targets {
		send(out, target, lp)
		r.blooms[target].PIT.Delete(h)
	}
	metrics.RouterPacketsHandled.WithLabelValues("response", "forwarded").Inc()
	metrics.RouterForwardedLinks.Observe(float64(len(targets)))
}

func (r *Router) fibMatches(h hbfi.HBFI, exclude linkpacket.LinkID) []linkpacket.LinkID {
	var matches []linkpacket.LinkID
	for _, id := range r.otherLinks(exclude) {
		pct := r.blooms[id].FIB.Contains(h)
		matched := pct > r.matchThreshold
		metrics.BloomContainsTotal.WithLabelValues(id.String(), "fib", boolLabel(matched)).Inc()
		if matched {
			matches = append(matches, id)
		}
	}
	return matches
}

func (r *Router) pitMatches(h hbfi.HBFI, exclude linkpacket.LinkID) []linkpacket.LinkID {
	var matches []linkpacket.LinkID
	for _, id := range r.otherLinks(exclude) {
		pct := r.blooms[id].PIT.Contains(h)
		matched := pct > r.matchThreshold
		metrics.BloomContainsTotal.WithLabelValues(id.String(), "pit", boolLabel(matched)).Inc()
		if matched {
			matches = append(matches, id)
		}
	}
	return matches
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func send(out chan<- linkpacket.InterLinkPacket, target linkpacket.LinkID, lp linkpacket.LinkPacket) {
	select {
	case out <- linkpacket.NewInterLinkPacket(target, lp):
	default:
		logger.Warn("router: dropping forward, outbound queue full", logger.String("link", target.String()))
	}
}
