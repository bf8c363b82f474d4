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

package wire

import (
	"fmt"
	"net/netip"

	"github.com/fractalide/copernica/linkpacket"
)

// ReplyTo wire sizes: the variant is recovered purely from the serialized
// length, so each must be distinct.
const (
	replyToMpscSize  = 0
	replyToUDP4Size  = 4 + 2
	replyToUDP6Size  = 16 + 2
	replyToRFSize    = 8
)

// SerializeReplyTo renders a ReplyTo to its wire form, returning its
// length as a single byte (the wire contract limits a ReplyTo to 255
// bytes) alongside the bytes themselves.
func SerializeReplyTo(rt linkpacket.ReplyTo) (byte, []byte) {
	switch rt.Kind() {
	case linkpacket.ReplyToMpsc:
		return 0, nil
	case linkpacket.ReplyToUDPIP:
		addr := rt.Addr()
		if addr.Addr().Is4() {
			buf := make([]byte, replyToUDP4Size)
			a4 := addr.Addr().As4()
			copy(buf[0:4], a4[:])
			putU16(buf[4:6], addr.Port())
			return replyToUDP4Size, buf
		}
		buf := make([]byte, replyToUDP6Size)
		a16 := addr.Addr().As16()
		copy(buf[0:16], a16[:])
		putU16(buf[16:18], addr.Port())
		return replyToUDP6Size, buf
	case linkpacket.ReplyToRF:
		buf := make([]byte, replyToRFSize)
		putU64(buf, rt.Hz())
		return replyToRFSize, buf
	default:
		return 0, nil
	}
}

// DeserializeReplyTo recovers a ReplyTo from its wire bytes, dispatching
// purely on length.
func DeserializeReplyTo(data []byte) (linkpacket.ReplyTo, error) {
	switch len(data) {
	case replyToMpscSize:
		return linkpacket.Mpsc(), nil
	case replyToUDP4Size:
		var a4 [4]byte
		copy(a4[:], data[0:4])
		port := getU16(data[4:6])
		return linkpacket.UdpIP(netip.AddrPortFrom(netip.AddrFrom4(a4), port)), nil
	case replyToUDP6Size:
		var a16 [16]byte
		copy(a16[:], data[0:16])
		port := getU16(data[16:18])
		return linkpacket.UdpIP(netip.AddrPortFrom(netip.AddrFrom16(a16), port)), nil
	case replyToRFSize:
		return linkpacket.Rf(getU64(data)), nil
	default:
		return linkpacket.ReplyTo{}, fmt.Errorf("wire: deserializing ReplyTo hit an unrecognised length of %d", len(data))
	}
}
