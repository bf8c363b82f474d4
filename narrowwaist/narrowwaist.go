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

// Package narrowwaist implements the NarrowWaistPacket algebra: the single
// packet format every Copernica participant understands, and its legal
// transitions between Request and Response, clear-text and cypher-text.
package narrowwaist

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/internal/metrics"
	"github.com/fractalide/copernica/responsedata"
)

// Algebra errors, propagated to the caller unchanged per the error
// handling design: these are the four "algebra errors" the Router never
// catches.
var (
	ErrIdentityMismatch = errors.New("narrowwaist: response public identity does not match signing identity")
	ErrIllegalTransition = errors.New("narrowwaist: illegal state transition")
	ErrSignatureInvalid  = errors.New("narrowwaist: signature verification failed")
	ErrDecryptionFailed  = errors.New("narrowwaist: decryption failed")
)

// kind discriminates the closed Request/Response sum type.
type kind int

const (
	kindRequest kind = iota
	kindResponse
)

// Packet is the NarrowWaistPacket tagged variant. The zero value is not a
// valid Packet; always construct via Request, Response, or Transmute.
type Packet struct {
	kind kind

	// Request fields.
	hbfi  hbfi.HBFI
	nonce [identity.NonceSize]byte

	// Response-only fields.
	signature [identity.SignatureSize]byte
	data      responsedata.ResponseData
	offset    uint64
	total     uint64
}

func freshNonce() ([identity.NonceSize]byte, error) {
	var n [identity.NonceSize]byte
	if _, err := rand.Read(n[:]); err != nil {
		return n, fmt.Errorf("narrowwaist: generate nonce: %w", err)
	}
	return n, nil
}

// Request draws a fresh nonce and returns an unsigned Request packet.
func Request(h hbfi.HBFI) (Packet, error) {
	nonce, err := freshNonce()
	if err != nil {
		return Packet{}, err
	}
	return Packet{kind: kindRequest, hbfi: h, nonce: nonce}, nil
}

// Response builds an initial, clear-text Response. It fails if the HBFI's
// response identity does not match responseSid, or if the HBFI already
// carries a request identity (§9 design note (b): initial construction
// must be clear-text; callers bind a requester via Encrypt afterwards).
func Response(responseSid identity.PrivateIdentity, h hbfi.HBFI, data []byte, offset, total uint64) (Packet, error) {
	start := time.Now()
	defer observe("response", start)

	if !h.ResponsePID.Equal(responseSid.PublicID()) {
		metrics.CryptoErrors.WithLabelValues("sign").Inc()
		return Packet{}, ErrIdentityMismatch
	}
	if h.RequestPID != nil {
		return Packet{}, fmt.Errorf("%w: initial Response construction must be clear-text; call Encrypt afterwards", ErrIllegalTransition)
	}
	nonce, err := freshNonce()
	if err != nil {
		return Packet{}, err
	}
	rd, err := responsedata.NewClearText(data)
	if err != nil {
		return Packet{}, fmt.Errorf("narrowwaist: %w", err)
	}
	sig := sign(responseSid, rd, h, offset, total, nonce)
	metrics.CryptoOperations.WithLabelValues("sign", "ed25519").Inc()
	return Packet{kind: kindResponse, hbfi: h, nonce: nonce, signature: sig, data: rd, offset: offset, total: total}, nil
}

// Transmute converts a Request into a signed Response, in a single step
// producing cypher-text if the Request's HBFI carries a request identity,
// clear-text otherwise. It fails when called on a Response.
func (p Packet) Transmute(responseSid identity.PrivateIdentity, data []byte, offset, total uint64) (Packet, error) {
	start := time.Now()
	defer observe("transmute", start)

	if p.kind != kindRequest {
		return Packet{}, fmt.Errorf("%w: a Response cannot be transmuted; it already is one", ErrIllegalTransition)
	}
	if !p.hbfi.ResponsePID.Equal(responseSid.PublicID()) {
		metrics.CryptoErrors.WithLabelValues("sign").Inc()
		return Packet{}, ErrIdentityMismatch
	}
	nonce, err := freshNonce()
	if err != nil {
		return Packet{}, err
	}
	var rd responsedata.ResponseData
	if p.hbfi.RequestPID != nil {
		rd, err = responsedata.NewCypherText(responseSid, *p.hbfi.RequestPID, data, nonce)
		if err != nil {
			return Packet{}, fmt.Errorf("narrowwaist: %w", err)
		}
		metrics.CryptoOperations.WithLabelValues("encrypt", "chacha20poly1305").Inc()
	} else {
		rd, err = responsedata.NewClearText(data)
		if err != nil {
			return Packet{}, fmt.Errorf("narrowwaist: %w", err)
		}
	}
	sig := sign(responseSid, rd, p.hbfi, offset, total, nonce)
	metrics.CryptoOperations.WithLabelValues("sign", "ed25519").Inc()
	return Packet{kind: kindResponse, hbfi: p.hbfi, nonce: nonce, signature: sig, data: rd, offset: offset, total: total}, nil
}

// Encrypt rebinds a ClearText Response to a specific requester named by
// h.RequestPID, producing a CypherText Response with a fresh nonce and
// signature. It fails on a Request, on an already-CypherText Response, on
// an HBFI without a request identity, or if the existing ClearText
// signature does not verify.
func (p Packet) Encrypt(responseSid identity.PrivateIdentity, h hbfi.HBFI) (Packet, error) {
	start := time.Now()
	defer observe("encrypt", start)

	if p.kind != kindResponse {
		return Packet{}, fmt.Errorf("%w: a Request cannot be encrypted", ErrIllegalTransition)
	}
	if h.RequestPID == nil {
		return Packet{}, fmt.Errorf("%w: the HBFI carries no request identity to encrypt for", ErrIllegalTransition)
	}
	if p.data.IsCypherText() {
		return Packet{}, fmt.Errorf("%w: no point in encrypting an already cypher-text Response", ErrIllegalTransition)
	}
	ok, err := p.Verify()
	if err != nil {
		return Packet{}, err
	}
	if !ok {
		metrics.CryptoErrors.WithLabelValues("verify").Inc()
		return Packet{}, ErrSignatureInvalid
	}
	nonce, err := freshNonce()
	if err != nil {
		return Packet{}, err
	}
	rd, err := responsedata.NewCypherText(responseSid, *h.RequestPID, p.data.Data(), nonce)
	if err != nil {
		return Packet{}, fmt.Errorf("narrowwaist: %w", err)
	}
	metrics.CryptoOperations.WithLabelValues("encrypt", "chacha20poly1305").Inc()
	sig := sign(responseSid, rd, h, p.offset, p.total, nonce)
	metrics.CryptoOperations.WithLabelValues("sign", "ed25519").Inc()
	return Packet{kind: kindResponse, hbfi: h, nonce: nonce, signature: sig, data: rd, offset: p.offset, total: p.total}, nil
}

// Decrypt recovers the plaintext of a CypherText Response. It fails on a
// Request, on a Response whose HBFI carries no request identity, when the
// caller's identity does not match that request identity, or when the
// signature does not verify.
func (p Packet) Decrypt(requestSid identity.PrivateIdentity) ([]byte, error) {
	start := time.Now()
	defer observe("decrypt", start)

	if p.kind != kindResponse {
		return nil, fmt.Errorf("%w: Requests should not be decrypted", ErrIllegalTransition)
	}
	if p.hbfi.RequestPID == nil {
		return nil, fmt.Errorf("%w: the HBFI carries no request identity to decrypt with", ErrIllegalTransition)
	}
	if !p.hbfi.RequestPID.Equal(requestSid.PublicID()) {
		metrics.CryptoErrors.WithLabelValues("decrypt").Inc()
		return nil, ErrIdentityMismatch
	}
	ok, err := p.Verify()
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.CryptoErrors.WithLabelValues("verify").Inc()
		return nil, ErrSignatureInvalid
	}
	plain, err := p.data.DecryptData(requestSid, p.hbfi.ResponsePID, p.nonce)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("decrypt").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	metrics.CryptoOperations.WithLabelValues("decrypt", "chacha20poly1305").Inc()
	return plain, nil
}

// Verify recomputes the manifest and checks the signature against the
// HBFI's response identity. It fails when invoked on a Request.
func (p Packet) Verify() (bool, error) {
	if p.kind != kindResponse {
		return false, fmt.Errorf("%w: no point in verifying a Request", ErrIllegalTransition)
	}
	manifest := Manifest(p.data.ManifestData(), p.hbfi, p.offset, p.total, p.nonce)
	return p.hbfi.ResponsePID.VerifyKey().Verify(p.signature, manifest), nil
}

// Data verifies the signature then returns the raw (clear or cypher)
// payload bytes, matching the "data()" accessor in the packet algebra.
func (p Packet) Data() ([]byte, error) {
	ok, err := p.Verify()
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.CryptoErrors.WithLabelValues("verify").Inc()
		return nil, ErrSignatureInvalid
	}
	return p.data.Data(), nil
}

// IsRequest reports whether this packet is a Request.
func (p Packet) IsRequest() bool { return p.kind == kindRequest }

// IsResponse reports whether this packet is a Response.
func (p Packet) IsResponse() bool { return p.kind == kindResponse }

// HBFI returns the packet's name.
func (p Packet) HBFI() hbfi.HBFI { return p.hbfi }

// Nonce returns the packet's nonce.
func (p Packet) Nonce() [identity.NonceSize]byte { return p.nonce }

// Signature returns the Response signature; zero on a Request.
func (p Packet) Signature() [identity.SignatureSize]byte { return p.signature }

// ResponseData returns the Response's tagged payload; zero-value on a
// Request.
func (p Packet) ResponseData() responsedata.ResponseData { return p.data }

// Offset returns the Response's byte offset.
func (p Packet) Offset() uint64 { return p.offset }

// Total returns the Response's total byte count.
func (p Packet) Total() uint64 { return p.total }

// ReconstituteRequest rebuilds a Request packet from deserialized fields,
// used by the wire codec.
func ReconstituteRequest(h hbfi.HBFI, nonce [identity.NonceSize]byte) Packet {
	return Packet{kind: kindRequest, hbfi: h, nonce: nonce}
}

// ReconstituteResponse rebuilds a Response packet from deserialized
// fields, used by the wire codec. No signature verification is performed
// here; callers call Verify explicitly.
func ReconstituteResponse(h hbfi.HBFI, nonce [identity.NonceSize]byte, signature [identity.SignatureSize]byte, data responsedata.ResponseData, offset, total uint64) Packet {
	return Packet{kind: kindResponse, hbfi: h, nonce: nonce, signature: signature, data: data, offset: offset, total: total}
}

// Manifest deterministically concatenates the bytes a Response signature
// covers: the raw response data block, the HBFI's Bloom-label fields and
// offset, the HBFI's response identity key and chain code (plus the request
// identity's key and chain code when one is bound), the Response's own
// offset, the declared total, and the nonce. Both signer and verifier
// recompute it independently; it is never carried on the wire itself.
func Manifest(responseData []byte, h hbfi.HBFI, offset, total uint64, nonce [identity.NonceSize]byte) []byte {
	out := make([]byte, 0, len(responseData)+6*8+8+8+identity.NonceSize)
	out = append(out, responseData...)
	for _, b := range [6]hbfi.BFI{h.Res, h.Req, h.App, h.M0d, h.Fun, h.Arg} {
		for _, v := range b {
			out = append(out, byte(v>>8), byte(v))
		}
	}
	out = appendUint64(out, h.Offset)
	respKey := h.ResponsePID.Key()
	respCC := h.ResponsePID.ChainCode()
	out = append(out, respKey[:]...)
	out = append(out, respCC[:]...)
	if h.RequestPID != nil {
		reqKey := h.RequestPID.Key()
		reqCC := h.RequestPID.ChainCode()
		out = append(out, reqKey[:]...)
		out = append(out, reqCC[:]...)
	}
	out = appendUint64(out, offset)
	out = appendUint64(out, total)
	out = append(out, nonce[:]...)
	return out
}

func appendUint64(out []byte, v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> uint(56-8*i))
	}
	return append(out, b[:]...)
}

func sign(responseSid identity.PrivateIdentity, data responsedata.ResponseData, h hbfi.HBFI, offset, total uint64, nonce [identity.NonceSize]byte) [identity.SignatureSize]byte {
	manifest := Manifest(data.ManifestData(), h, offset, total, nonce)
	return responseSid.SigningKey().Sign(manifest)
}

func observe(operation string, start time.Time) {
	metrics.CryptoOperationDuration.WithLabelValues(operation, "narrowwaist").Observe(time.Since(start).Seconds())
}
