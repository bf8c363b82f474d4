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

// Package responsedata implements the ResponseData tagged variant carried
// by every Response NarrowWaistPacket: either a clear-text payload or an
// AEAD-sealed cypher-text payload bound to a request identity.
package responsedata

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/fractalide/copernica/identity"
)

// DataSize is the fixed wire size of a ResponseData payload block. The
// first 8 bytes are a big-endian length prefix; the remainder is the
// payload padded with zeros. A payload longer than DataSize-8 bytes is
// rejected with ErrPayloadTooLarge rather than truncated.
const DataSize = 1024

// payloadCapacity is the largest logical payload a single DataSize block
// can carry once the length prefix is subtracted.
const payloadCapacity = DataSize - 8

// TagSize is the wire size of the ChaCha20-Poly1305 authentication tag.
const TagSize = chacha20poly1305.Overhead

// ErrPayloadTooLarge is returned when a payload does not fit in DataSize
// bytes once the length prefix is accounted for.
var ErrPayloadTooLarge = errors.New("responsedata: payload exceeds data size")

// ErrDecryptionFailed is returned when AEAD authentication fails.
var ErrDecryptionFailed = errors.New("responsedata: decryption failed")

// ResponseData is a closed tagged variant: exactly one of clear-text or
// cypher-text is populated, discriminated by cypher.
type ResponseData struct {
	cypher bool
	raw    [DataSize]byte
	tag    [TagSize]byte
}

func packPayload(data []byte) ([DataSize]byte, error) {
	var raw [DataSize]byte
	if len(data) > payloadCapacity {
		return raw, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(data), payloadCapacity)
	}
	binary.BigEndian.PutUint64(raw[:8], uint64(len(data)))
	copy(raw[8:8+len(data)], data)
	return raw, nil
}

func unpackPayload(raw [DataSize]byte) []byte {
	n := binary.BigEndian.Uint64(raw[:8])
	if n > payloadCapacity {
		n = payloadCapacity
	}
	out := make([]byte, n)
	copy(out, raw[8:8+n])
	return out
}

// NewClearText builds a ClearText ResponseData from a logical payload.
func NewClearText(data []byte) (ResponseData, error) {
	raw, err := packPayload(data)
	if err != nil {
		return ResponseData{}, err
	}
	return ResponseData{cypher: false, raw: raw}, nil
}

// ReconstituteClearText rebuilds a ClearText ResponseData from its full
// fixed-size wire block, used by the codec when deserializing.
func ReconstituteClearText(raw [DataSize]byte) ResponseData {
	return ResponseData{cypher: false, raw: raw}
}

// NewCypherText seals data under the shared secret derived between
// responseSid and requestPID at the given nonce, producing a CypherText
// ResponseData.
func NewCypherText(responseSid identity.PrivateIdentity, requestPID identity.PublicIdentity, data []byte, nonce [identity.NonceSize]byte) (ResponseData, error) {
	raw, err := packPayload(data)
	if err != nil {
		return ResponseData{}, err
	}
	aead, err := newAEAD(responseSid, requestPID, nonce, true)
	if err != nil {
		return ResponseData{}, err
	}
	sealed := aead.Seal(nil, nonce[:], raw[:], nil)
	var out ResponseData
	out.cypher = true
	copy(out.raw[:], sealed[:DataSize])
	copy(out.tag[:], sealed[DataSize:])
	return out, nil
}

// ReconstituteCypherText rebuilds a CypherText ResponseData from its wire
// fields, used by the codec when deserializing.
func ReconstituteCypherText(tag [TagSize]byte, raw [DataSize]byte) ResponseData {
	return ResponseData{cypher: true, raw: raw, tag: tag}
}

// IsCypherText reports which variant this ResponseData holds.
func (r ResponseData) IsCypherText() bool { return r.cypher }

// RawData returns the fixed-size wire block, used by the codec.
func (r ResponseData) RawData() [DataSize]byte { return r.raw }

// Tag returns the AEAD tag; only meaningful when IsCypherText is true.
func (r ResponseData) Tag() [TagSize]byte { return r.tag }

// ManifestData returns the bytes fed into the packet signature: the raw
// wire block verbatim, clear or cypher.
func (r ResponseData) ManifestData() []byte {
	out := make([]byte, DataSize)
	copy(out, r.raw[:])
	return out
}

// Data returns the logical payload bytes as carried by this variant: the
// unpadded plaintext for ClearText, or the still-sealed ciphertext bytes
// for CypherText (callers must go through DecryptData to recover
// plaintext).
func (r ResponseData) Data() []byte {
	if r.cypher {
		out := make([]byte, DataSize)
		copy(out, r.raw[:])
		return out
	}
	return unpackPayload(r.raw)
}

// DecryptData recovers the plaintext of a CypherText ResponseData using
// the shared secret derived between requestSid and responsePID at nonce.
func (r ResponseData) DecryptData(requestSid identity.PrivateIdentity, responsePID identity.PublicIdentity, nonce [identity.NonceSize]byte) ([]byte, error) {
	if !r.cypher {
		return nil, errors.New("responsedata: DecryptData called on ClearText")
	}
	aead, err := newAEAD(requestSid, responsePID, nonce, false)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, DataSize+TagSize)
	sealed = append(sealed, r.raw[:]...)
	sealed = append(sealed, r.tag[:]...)
	plain, err := aead.Open(nil, nonce[:], sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	var raw [DataSize]byte
	copy(raw[:], plain)
	return unpackPayload(raw), nil
}

// newAEAD derives the per-nonce shared secret between a local private
// identity and a remote public identity and constructs the ChaCha20-
// Poly1305 AEAD over it. The fromResponder flag is ignored: both sides
// make the same calls, and the exchange is symmetric either way.
func newAEAD(local identity.PrivateIdentity, remote identity.PublicIdentity, nonce [identity.NonceSize]byte, fromResponder bool) (cipher.AEAD, error) {
	_ = fromResponder
	derivedPriv, err := local.Derive(nonce)
	if err != nil {
		return nil, fmt.Errorf("responsedata: derive local: %w", err)
	}
	derivedPub, err := remote.Derive(nonce)
	if err != nil {
		return nil, fmt.Errorf("responsedata: derive remote: %w", err)
	}
	shared := derivedPriv.Exchange(derivedPub)
	aead, err := chacha20poly1305.New(shared[:])
	if err != nil {
		return nil, fmt.Errorf("responsedata: build AEAD: %w", err)
	}
	return aead, nil
}
