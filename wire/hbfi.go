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

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
)

// bfiBlockSize is the wire size of the six BFI labels that precede an
// HBFI's offset and identities.
const bfiBlockSize = hbfi.BFICount * bfiByteSize

// ClearTextHBFISize is the wire size of an HBFI carrying only a response
// identity.
const ClearTextHBFISize = bfiBlockSize + 8 + identity.KeySize + identity.ChainCodeSize

// CypherTextHBFISize is the wire size of an HBFI carrying both a response
// and a request identity.
const CypherTextHBFISize = ClearTextHBFISize + identity.KeySize + identity.ChainCodeSize

// SerializeHBFI renders h to its wire form, the size depending on whether
// h carries a request identity.
func SerializeHBFI(h hbfi.HBFI) []byte {
	size := ClearTextHBFISize
	if h.IsCypherText() {
		size = CypherTextHBFISize
	}
	buf := make([]byte, size)
	putBFI(buf[0:8], h.Res)
	putBFI(buf[8:16], h.Req)
	putBFI(buf[16:24], h.App)
	putBFI(buf[24:32], h.M0d)
	putBFI(buf[32:40], h.Fun)
	putBFI(buf[40:48], h.Arg)
	putU64(buf[48:56], h.Offset)
	offset := 56
	respKey := h.ResponsePID.Key()
	respCC := h.ResponsePID.ChainCode()
	copy(buf[offset:offset+identity.KeySize], respKey[:])
	offset += identity.KeySize
	copy(buf[offset:offset+identity.ChainCodeSize], respCC[:])
	offset += identity.ChainCodeSize
	if h.RequestPID != nil {
		reqKey := h.RequestPID.Key()
		reqCC := h.RequestPID.ChainCode()
		copy(buf[offset:offset+identity.KeySize], reqKey[:])
		offset += identity.KeySize
		copy(buf[offset:offset+identity.ChainCodeSize], reqCC[:])
	}
	return buf
}

// DeserializeClearTextHBFI parses an HBFI carrying only a response
// identity.
func DeserializeClearTextHBFI(data []byte) (hbfi.HBFI, error) {
	if len(data) < ClearTextHBFISize {
		return hbfi.HBFI{}, fmt.Errorf("wire: clear-text HBFI too short: %d < %d", len(data), ClearTextHBFISize)
	}
	h, offset := parseBFIsAndOffset(data)
	var respKey [identity.KeySize]byte
	var respCC [identity.ChainCodeSize]byte
	copy(respKey[:], data[offset:offset+identity.KeySize])
	offset += identity.KeySize
	copy(respCC[:], data[offset:offset+identity.ChainCodeSize])
	respPID, err := identity.Reconstitute(respKey, respCC)
	if err != nil {
		return hbfi.HBFI{}, fmt.Errorf("wire: reconstitute response identity: %w", err)
	}
	h.ResponsePID = respPID
	return h, nil
}

// DeserializeCypherTextHBFI parses an HBFI carrying both a response and a
// request identity.
func DeserializeCypherTextHBFI(data []byte) (hbfi.HBFI, error) {
	if len(data) < CypherTextHBFISize {
		return hbfi.HBFI{}, fmt.Errorf("wire: cypher-text HBFI too short: %d < %d", len(data), CypherTextHBFISize)
	}
	h, offset := parseBFIsAndOffset(data)
	var respKey [identity.KeySize]byte
	var respCC [identity.ChainCodeSize]byte
	copy(respKey[:], data[offset:offset+identity.KeySize])
	offset += identity.KeySize
	copy(respCC[:], data[offset:offset+identity.ChainCodeSize])
	offset += identity.ChainCodeSize
	respPID, err := identity.Reconstitute(respKey, respCC)
	if err != nil {
		return hbfi.HBFI{}, fmt.Errorf("wire: reconstitute response identity: %w", err)
	}
	var reqKey [identity.KeySize]byte
	var reqCC [identity.ChainCodeSize]byte
	copy(reqKey[:], data[offset:offset+identity.KeySize])
	offset += identity.KeySize
	copy(reqCC[:], data[offset:offset+identity.ChainCodeSize])
	reqPID, err := identity.Reconstitute(reqKey, reqCC)
	if err != nil {
		return hbfi.HBFI{}, fmt.Errorf("wire: reconstitute request identity: %w", err)
	}
	h.ResponsePID = respPID
	h.RequestPID = &reqPID
	return h, nil
}

// deserializeHBFIBySize dispatches to the clear-text or cypher-text parser
// depending on which wire variant the caller already determined it is
// looking at (by narrow-waist size or by reply-to context).
func deserializeHBFIBySize(data []byte, cypher bool) (hbfi.HBFI, error) {
	if cypher {
		return DeserializeCypherTextHBFI(data)
	}
	return DeserializeClearTextHBFI(data)
}

func parseBFIsAndOffset(data []byte) (hbfi.HBFI, int) {
	var h hbfi.HBFI
	h.Res = getBFI(data[0:8])
	h.Req = getBFI(data[8:16])
	h.App = getBFI(data[16:24])
	h.M0d = getBFI(data[24:32])
	h.Fun = getBFI(data[32:40])
	h.Arg = getBFI(data[40:48])
	h.Offset = getU64(data[48:56])
	return h, 56
}
