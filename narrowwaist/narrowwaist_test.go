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

package narrowwaist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
)

func TestRequestTransmuteAndDecrypt(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()

	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")

	req, err := Request(h)
	require.NoError(t, err)
	require.True(t, req.IsRequest())

	payload := make([]byte, 600)
	resp, err := req.Transmute(responder, payload, 0, uint64(len(payload)))
	require.NoError(t, err)
	require.True(t, resp.IsResponse())
	require.True(t, resp.ResponseData().IsCypherText())

	ok, err := resp.Verify()
	require.NoError(t, err)
	require.True(t, ok)

	plain, err := resp.Decrypt(requester)
	require.NoError(t, err)
	require.Equal(t, payload, plain)
}

func TestTamperedSignatureFailsVerify(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")

	resp, err := Response(responder, h, []byte("hello"), 0, 5)
	require.NoError(t, err)

	sig := resp.Signature()
	sig[0] ^= 0xFF
	tampered := ReconstituteResponse(resp.HBFI(), resp.Nonce(), sig, resp.ResponseData(), resp.Offset(), resp.Total())

	ok, err := tampered.Verify()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClearTextPathNeedsNoDecrypt(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")

	resp, err := Response(responder, h, []byte("clear payload"), 0, 13)
	require.NoError(t, err)
	require.False(t, resp.ResponseData().IsCypherText())

	data, err := resp.Data()
	require.NoError(t, err)
	require.Equal(t, []byte("clear payload"), data)
}

func TestResponseRejectsCypherHBFI(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()
	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")

	_, err = Response(responder, h, []byte("x"), 0, 1)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestEncryptThenDecryptRoundTrip(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()

	clearHBFI := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")
	resp, err := Response(responder, clearHBFI, []byte("bind me later"), 0, 13)
	require.NoError(t, err)

	cypherHBFI := clearHBFI
	cypherHBFI.RequestPID = &requesterPub

	encrypted, err := resp.Encrypt(responder, cypherHBFI)
	require.NoError(t, err)
	require.True(t, encrypted.ResponseData().IsCypherText())

	plain, err := encrypted.Decrypt(requester)
	require.NoError(t, err)
	require.Equal(t, []byte("bind me later"), plain)
}

func TestTransmuteOnResponseFails(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")

	resp, err := Response(responder, h, []byte("already a response"), 0, 18)
	require.NoError(t, err)

	_, err = resp.Transmute(responder, []byte("x"), 0, 1)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestEncryptOnCypherTextFails(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()

	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")
	req, err := Request(h)
	require.NoError(t, err)
	resp, err := req.Transmute(responder, []byte("secret"), 0, 6)
	require.NoError(t, err)
	require.True(t, resp.ResponseData().IsCypherText())

	_, err = resp.Encrypt(responder, h)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestEncryptOnRequestFails(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()

	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")
	req, err := Request(h)
	require.NoError(t, err)

	_, err = req.Encrypt(responder, h)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestDecryptOnRequestFails(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")
	req, err := Request(h)
	require.NoError(t, err)

	_, err = req.Decrypt(responder)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestDecryptClearTextResponseFails(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")

	resp, err := Response(responder, h, []byte("clear"), 0, 5)
	require.NoError(t, err)

	_, err = resp.Decrypt(responder)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestVerifyOnRequestFails(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")
	req, err := Request(h)
	require.NoError(t, err)

	_, err = req.Verify()
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFlippedTotalByteInvalidatesSignature(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")

	resp, err := Response(responder, h, []byte("hello"), 0, 5)
	require.NoError(t, err)

	tampered := ReconstituteResponse(resp.HBFI(), resp.Nonce(), resp.Signature(), resp.ResponseData(), resp.Offset(), resp.Total()+1)

	ok, err := tampered.Verify()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDataOnCypherTextResponseReturnsSealedBytes(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()

	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")
	req, err := Request(h)
	require.NoError(t, err)
	resp, err := req.Transmute(responder, []byte("secret"), 0, 6)
	require.NoError(t, err)
	require.True(t, resp.ResponseData().IsCypherText())

	sealed, err := resp.Data()
	require.NoError(t, err)
	require.NotEqual(t, []byte("secret"), sealed)
	require.Equal(t, resp.ResponseData().RawData()[:], sealed)

	plain, err := resp.Decrypt(requester)
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), plain)
}

func TestDecryptWrongIdentityFails(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	stranger, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()

	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")
	req, err := Request(h)
	require.NoError(t, err)
	resp, err := req.Transmute(responder, []byte("secret"), 0, 6)
	require.NoError(t, err)

	_, err = resp.Decrypt(stranger)
	require.ErrorIs(t, err, ErrIdentityMismatch)
}
