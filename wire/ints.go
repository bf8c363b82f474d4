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

// Package wire implements the bit-exact, fixed-offset, big-endian codec
// every Copernica packet is serialized through before it touches a
// transport: HBFIs, NarrowWaistPackets, ReplyTo addresses and LinkPackets,
// plus the Reed-Solomon framing that protects a LinkPacket in flight.
package wire

import (
	"encoding/binary"

	"github.com/fractalide/copernica/hbfi"
)

func putU16(buf []byte, v uint16) {
	binary.BigEndian.PutUint16(buf, v)
}

func getU16(buf []byte) uint16 {
	return binary.BigEndian.Uint16(buf)
}

func putU64(buf []byte, v uint64) {
	binary.BigEndian.PutUint64(buf, v)
}

func getU64(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}

// bfiByteSize is the wire size of a single BFI: four big-endian uint16s.
const bfiByteSize = 8

func putBFI(buf []byte, b hbfi.BFI) {
	for i, v := range b {
		putU16(buf[i*2:i*2+2], v)
	}
}

func getBFI(buf []byte) hbfi.BFI {
	var b hbfi.BFI
	for i := range b {
		b[i] = getU16(buf[i*2 : i*2+2])
	}
	return b
}
