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

// Package hbfi implements the Hierarchical Bloom-Filter Index: the
// structured, content-addressed name carried by every NarrowWaistPacket.
package hbfi

import (
	"crypto/sha256"
	"hash/fnv"

	"github.com/fractalide/copernica/identity"
)

// BFICount is the number of labelled Bloom-Filter Index fields in an HBFI.
const BFICount = 6

// BFI is a single Bloom-Filter Index label: four 16-bit unsigned integers
// treated as bit positions by the Bloom filter.
type BFI [4]uint16

// Equal reports whether two BFIs carry identical entries.
func (b BFI) Equal(o BFI) bool { return b == o }

// FromLabel hashes an arbitrary string label into a BFI, the convention
// used to turn human-readable "app"/"m0d"/"fun"/"arg" names into indices.
func FromLabel(label string) BFI {
	var out BFI
	for i := range out {
		h := fnv.New32a()
		h.Write([]byte(label))
		h.Write([]byte{byte(i)})
		out[i] = uint16(h.Sum32())
	}
	return out
}

// HBFI is the hierarchical name of an information object: six BFI labels,
// a byte offset, a mandatory response identity and an optional request
// identity.
type HBFI struct {
	Res, Req, App, M0d, Fun, Arg BFI
	Offset                       uint64
	ResponsePID                  identity.PublicIdentity
	RequestPID                   *identity.PublicIdentity
}

// New builds an HBFI, hashing the four string labels into their BFIs. The
// presence of requestPID selects the cypher-text wire variant.
func New(responsePID identity.PublicIdentity, requestPID *identity.PublicIdentity, app, m0d, fun, arg string) HBFI {
	return HBFI{
		Res:         FromLabel("res"),
		Req:         FromLabel("req"),
		App:         FromLabel(app),
		M0d:         FromLabel(m0d),
		Fun:         FromLabel(fun),
		Arg:         FromLabel(arg),
		ResponsePID: responsePID,
		RequestPID:  requestPID,
	}
}

// IsCypherText reports whether this HBFI selects the cypher-text Response
// variant (a request identity is bound).
func (h HBFI) IsCypherText() bool { return h.RequestPID != nil }

// Equal reports structural equality, the relation the codec round-trip
// invariant is checked against.
func (h HBFI) Equal(o HBFI) bool {
	if h.Res != o.Res || h.Req != o.Req || h.App != o.App ||
		h.M0d != o.M0d || h.Fun != o.Fun || h.Arg != o.Arg ||
		h.Offset != o.Offset {
		return false
	}
	if !h.ResponsePID.Equal(o.ResponsePID) {
		return false
	}
	if (h.RequestPID == nil) != (o.RequestPID == nil) {
		return false
	}
	if h.RequestPID != nil && !h.RequestPID.Equal(*o.RequestPID) {
		return false
	}
	return true
}

// bfis returns the six BFI labels in their canonical wire order.
func (h HBFI) bfis() [BFICount]BFI {
	return [BFICount]BFI{h.Res, h.Req, h.App, h.M0d, h.Fun, h.Arg}
}

// BloomPositions returns every bit position this HBFI touches in a Bloom
// filter: all four entries of all six BFI labels.
func (h HBFI) BloomPositions() []uint16 {
	positions := make([]uint16, 0, BFICount*4)
	for _, b := range h.bfis() {
		positions = append(positions, b[0], b[1], b[2], b[3])
	}
	return positions
}

// Fingerprint is a deterministic hash of the HBFI's wire bytes, used as the
// content store key: the six BFI labels, the offset, and the response
// identity's key and chain code, plus the request identity's key and chain
// code when one is bound. This mirrors wire.SerializeHBFI's layout exactly
// (duplicated here rather than imported, since package wire already
// imports package hbfi), so two HBFIs that serialize to different wire
// bytes never collide in the content store.
func (h HBFI) Fingerprint() [16]byte {
	hasher := sha256.New()
	for _, b := range h.bfis() {
		for _, v := range b {
			hasher.Write([]byte{byte(v >> 8), byte(v)})
		}
	}
	var offsetBytes [8]byte
	for i := 0; i < 8; i++ {
		offsetBytes[i] = byte(h.Offset >> uint(56-8*i))
	}
	hasher.Write(offsetBytes[:])
	respKey := h.ResponsePID.Key()
	respCC := h.ResponsePID.ChainCode()
	hasher.Write(respKey[:])
	hasher.Write(respCC[:])
	if h.RequestPID != nil {
		reqKey := h.RequestPID.Key()
		reqCC := h.RequestPID.ChainCode()
		hasher.Write(reqKey[:])
		hasher.Write(reqCC[:])
	}
	sum := hasher.Sum(nil)
	var out [16]byte
	copy(out[:], sum[:16])
	return out
}
