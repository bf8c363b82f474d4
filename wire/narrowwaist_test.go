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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/narrowwaist"
)

func TestClearTextRequestRoundTrip(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")

	req, err := narrowwaist.Request(h)
	require.NoError(t, err)

	buf, err := SerializeNarrowWaistPacket(req)
	require.NoError(t, err)
	require.Len(t, buf, ClearTextRequestSize)

	got, err := DeserializeNarrowWaistPacket(buf)
	require.NoError(t, err)
	require.True(t, got.IsRequest())
	require.Equal(t, req.Nonce(), got.Nonce())
	require.True(t, req.HBFI().Equal(got.HBFI()))
}

func TestCypherTextRequestRoundTrip(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()
	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")

	req, err := narrowwaist.Request(h)
	require.NoError(t, err)

	buf, err := SerializeNarrowWaistPacket(req)
	require.NoError(t, err)
	require.Len(t, buf, CypherTextRequestSize)

	got, err := DeserializeNarrowWaistPacket(buf)
	require.NoError(t, err)
	require.True(t, got.IsRequest())
}

func TestClearTextResponseRoundTripIsByteIdentical(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")

	resp, err := narrowwaist.Response(responder, h, []byte("clear payload"), 0, 13)
	require.NoError(t, err)

	buf, err := SerializeNarrowWaistPacket(resp)
	require.NoError(t, err)
	require.Len(t, buf, ClearTextResponseSize)

	got, err := DeserializeNarrowWaistPacket(buf)
	require.NoError(t, err)

	reBuf, err := SerializeNarrowWaistPacket(got)
	require.NoError(t, err)
	require.Equal(t, buf, reBuf)

	ok, err := got.Verify()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCypherTextResponseRoundTripIsByteIdentical(t *testing.T) {
	responder, err := identity.Generate()
	require.NoError(t, err)
	requester, err := identity.Generate()
	require.NoError(t, err)
	requesterPub := requester.PublicID()
	h := hbfi.New(responder.PublicID(), &requesterPub, "app", "m0d", "fun", "arg")

	req, err := narrowwaist.Request(h)
	require.NoError(t, err)
	payload := make([]byte, 600)
	resp, err := req.Transmute(responder, payload, 0, uint64(len(payload)))
	require.NoError(t, err)

	buf, err := SerializeNarrowWaistPacket(resp)
	require.NoError(t, err)
	require.Len(t, buf, CypherTextResponseSize)

	got, err := DeserializeNarrowWaistPacket(buf)
	require.NoError(t, err)

	reBuf, err := SerializeNarrowWaistPacket(got)
	require.NoError(t, err)
	require.Equal(t, buf, reBuf)

	plain, err := got.Decrypt(requester)
	require.NoError(t, err)
	require.Equal(t, payload, plain)
}

func TestDeserializeUnknownSizeRejected(t *testing.T) {
	_, err := DeserializeNarrowWaistPacket(make([]byte, 7))
	require.Error(t, err)
}
