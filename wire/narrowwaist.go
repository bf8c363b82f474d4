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

	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/narrowwaist"
	"github.com/fractalide/copernica/responsedata"
)

// The narrow waist, once serialized, is one of exactly four fixed sizes:
// a clear-text or cypher-text Request, or a clear-text or cypher-text
// Response. The wire codec dispatches deserialization on the declared
// size among these four compile-time constants.
const (
	ClearTextRequestSize  = identity.NonceSize + ClearTextHBFISize
	CypherTextRequestSize = identity.NonceSize + CypherTextHBFISize

	responseFixedFields = identity.SignatureSize + 8 + 8 + identity.NonceSize

	ClearTextResponseSize  = responseFixedFields + ClearTextHBFISize + responsedata.DataSize
	CypherTextResponseSize = responseFixedFields + CypherTextHBFISize + responsedata.TagSize + responsedata.DataSize
)

// SerializeNarrowWaistPacket renders a Packet to its wire form.
func SerializeNarrowWaistPacket(p narrowwaist.Packet) ([]byte, error) {
	h := p.HBFI()
	nonce := p.Nonce()
	hbfiBytes := SerializeHBFI(h)

	if p.IsRequest() {
		buf := make([]byte, 0, identity.NonceSize+len(hbfiBytes))
		buf = append(buf, nonce[:]...)
		buf = append(buf, hbfiBytes...)
		return buf, nil
	}

	sig := p.Signature()
	rd := p.ResponseData()
	raw := rd.RawData()

	buf := make([]byte, 0, responseFixedFields+len(hbfiBytes)+responsedata.TagSize+responsedata.DataSize)
	buf = append(buf, sig[:]...)
	var offsetBytes, totalBytes [8]byte
	putU64(offsetBytes[:], p.Offset())
	putU64(totalBytes[:], p.Total())
	buf = append(buf, offsetBytes[:]...)
	buf = append(buf, totalBytes[:]...)
	buf = append(buf, nonce[:]...)
	buf = append(buf, hbfiBytes...)
	if rd.IsCypherText() {
		tag := rd.Tag()
		buf = append(buf, tag[:]...)
	}
	buf = append(buf, raw[:]...)
	return buf, nil
}

// DeserializeNarrowWaistPacket parses a Packet, dispatching on data's
// length among the four fixed narrow-waist sizes.
func DeserializeNarrowWaistPacket(data []byte) (narrowwaist.Packet, error) {
	switch len(data) {
	case ClearTextRequestSize:
		return deserializeRequest(data, ClearTextHBFISize, false)
	case CypherTextRequestSize:
		return deserializeRequest(data, CypherTextHBFISize, true)
	case ClearTextResponseSize:
		return deserializeResponse(data, false)
	case CypherTextResponseSize:
		return deserializeResponse(data, true)
	default:
		return narrowwaist.Packet{}, fmt.Errorf(
			"wire: narrow waist arrived with an unrecognised size of %d, supported sizes are %d, %d, %d, %d",
			len(data), ClearTextRequestSize, CypherTextRequestSize, ClearTextResponseSize, CypherTextResponseSize)
	}
}

func deserializeRequest(data []byte, hbfiSize int, cypher bool) (narrowwaist.Packet, error) {
	var nonce [identity.NonceSize]byte
	copy(nonce[:], data[0:identity.NonceSize])
	h, err := deserializeHBFIBySize(data[identity.NonceSize:identity.NonceSize+hbfiSize], cypher)
	if err != nil {
		return narrowwaist.Packet{}, err
	}
	return narrowwaist.ReconstituteRequest(h, nonce), nil
}

func deserializeResponse(data []byte, cypher bool) (narrowwaist.Packet, error) {
	var nonce [identity.NonceSize]byte
	var sig [identity.SignatureSize]byte
	copy(sig[:], data[0:identity.SignatureSize])
	o := identity.SignatureSize
	offset := getU64(data[o : o+8])
	o += 8
	total := getU64(data[o : o+8])
	o += 8
	copy(nonce[:], data[o:o+identity.NonceSize])
	o += identity.NonceSize

	hbfiSize := ClearTextHBFISize
	if cypher {
		hbfiSize = CypherTextHBFISize
	}
	h, err := deserializeHBFIBySize(data[o:o+hbfiSize], cypher)
	if err != nil {
		return narrowwaist.Packet{}, err
	}
	o += hbfiSize

	var rd responsedata.ResponseData
	if cypher {
		var tag [responsedata.TagSize]byte
		copy(tag[:], data[o:o+responsedata.TagSize])
		o += responsedata.TagSize
		var raw [responsedata.DataSize]byte
		copy(raw[:], data[o:o+responsedata.DataSize])
		rd = responsedata.ReconstituteCypherText(tag, raw)
	} else {
		var raw [responsedata.DataSize]byte
		copy(raw[:], data[o:o+responsedata.DataSize])
		rd = responsedata.ReconstituteClearText(raw)
	}
	return narrowwaist.ReconstituteResponse(h, nonce, sig, rd, offset, total), nil
}
