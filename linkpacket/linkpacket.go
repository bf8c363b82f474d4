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

// Package linkpacket wraps a NarrowWaistPacket with the hop-by-hop
// addressing Copernica needs to deliver it over a specific transport, and
// tags every packet moving between the runtime and a transport with the
// link it arrived on or must leave by.
package linkpacket

import (
	"fmt"
	"net/netip"

	"github.com/fractalide/copernica/narrowwaist"
)

// ReplyToKind discriminates the closed ReplyTo sum type.
type ReplyToKind int

const (
	// ReplyToMpsc marks a reply addressed to an in-process channel link;
	// it carries no further address, matching the zero-length wire form.
	ReplyToMpsc ReplyToKind = iota
	// ReplyToUDPIP marks a reply addressed to a UDP/IP endpoint.
	ReplyToUDPIP
	// ReplyToRF marks a reply addressed to a radio link named by a
	// frequency in hertz.
	ReplyToRF
)

// ReplyTo is the closed tagged variant describing where a Response should
// be sent: back over the same in-process channel, to a UDP/IP address, or
// to a radio frequency.
type ReplyTo struct {
	kind ReplyToKind
	addr netip.AddrPort
	hz   uint64
}

// Mpsc builds a ReplyTo addressed to the in-process channel link.
func Mpsc() ReplyTo { return ReplyTo{kind: ReplyToMpsc} }

// UdpIP builds a ReplyTo addressed to a UDP/IP endpoint.
func UdpIP(addr netip.AddrPort) ReplyTo { return ReplyTo{kind: ReplyToUDPIP, addr: addr} }

// Rf builds a ReplyTo addressed to a radio frequency, in hertz.
func Rf(hz uint64) ReplyTo { return ReplyTo{kind: ReplyToRF, hz: hz} }

// Kind reports which variant this ReplyTo holds.
func (r ReplyTo) Kind() ReplyToKind { return r.kind }

// Addr returns the UDP/IP endpoint; only meaningful when Kind is
// ReplyToUDPIP.
func (r ReplyTo) Addr() netip.AddrPort { return r.addr }

// Hz returns the radio frequency; only meaningful when Kind is ReplyToRF.
func (r ReplyTo) Hz() uint64 { return r.hz }

// Equal reports structural equality between two ReplyTo values.
func (r ReplyTo) Equal(o ReplyTo) bool {
	if r.kind != o.kind {
		return false
	}
	switch r.kind {
	case ReplyToUDPIP:
		return r.addr == o.addr
	case ReplyToRF:
		return r.hz == o.hz
	default:
		return true
	}
}

func (k ReplyToKind) String() string {
	switch k {
	case ReplyToMpsc:
		return "mpsc"
	case ReplyToUDPIP:
		return "udp_ip"
	case ReplyToRF:
		return "rf"
	default:
		return fmt.Sprintf("replyto(%d)", int(k))
	}
}

// LinkPacket pairs a NarrowWaistPacket with the address a Response to it
// should be delivered to.
type LinkPacket struct {
	replyTo ReplyTo
	nwp     narrowwaist.Packet
}

// New builds a LinkPacket.
func New(replyTo ReplyTo, nwp narrowwaist.Packet) LinkPacket {
	return LinkPacket{replyTo: replyTo, nwp: nwp}
}

// ReplyTo returns the reply address.
func (lp LinkPacket) ReplyTo() ReplyTo { return lp.replyTo }

// NarrowWaistPacket returns the carried packet.
func (lp LinkPacket) NarrowWaistPacket() narrowwaist.Packet { return lp.nwp }

// LinkID names a single point-to-point link between this node and a
// neighbour, the key every per-link Bloom filter pair and content-store
// interaction is indexed by.
type LinkID struct {
	name string
}

// NewLinkID wraps a link name into a LinkID.
func NewLinkID(name string) LinkID { return LinkID{name: name} }

// String returns the link's name.
func (l LinkID) String() string { return l.name }

// Equal reports whether two LinkIDs name the same link.
func (l LinkID) Equal(o LinkID) bool { return l.name == o.name }

// InterLinkPacket tags a LinkPacket with the LinkID it arrived on (an
// inbound packet handed to the router) or must leave by (an outbound
// packet handed to a transport).
type InterLinkPacket struct {
	linkID LinkID
	lp     LinkPacket
}

// NewInterLinkPacket builds an InterLinkPacket.
func NewInterLinkPacket(linkID LinkID, lp LinkPacket) InterLinkPacket {
	return InterLinkPacket{linkID: linkID, lp: lp}
}

// LinkID returns the link this packet is tagged with.
func (ilp InterLinkPacket) LinkID() LinkID { return ilp.linkID }

// LinkPacket returns the carried LinkPacket.
func (ilp InterLinkPacket) LinkPacket() LinkPacket { return ilp.lp }
