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
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/narrowwaist"
)

func testLinkPacket(t *testing.T) linkpacket.LinkPacket {
	t.Helper()
	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")
	req, err := narrowwaist.Request(h)
	require.NoError(t, err)
	return linkpacket.New(linkpacket.UdpIP(netip.MustParseAddrPort("127.0.0.1:7760")), req)
}

func TestClearTextLinkPacketRoundTrip(t *testing.T) {
	linkTx, err := identity.Generate()
	require.NoError(t, err)
	lp := testLinkPacket(t)

	buf, err := SerializeLinkPacket(lp, linkTx, nil)
	require.NoError(t, err)

	sender, got, err := DeserializeLinkPacket(buf, nil)
	require.NoError(t, err)
	require.True(t, sender.Equal(linkTx.PublicID()))
	require.True(t, got.ReplyTo().Equal(lp.ReplyTo()))
	require.True(t, got.NarrowWaistPacket().HBFI().Equal(lp.NarrowWaistPacket().HBFI()))
}

func TestLinkEncryptRoundTrip(t *testing.T) {
	linkTx, err := identity.Generate()
	require.NoError(t, err)
	linkRx, err := identity.Generate()
	require.NoError(t, err)
	lp := testLinkPacket(t)

	linkRxPub := linkRx.PublicID()
	buf, err := SerializeLinkPacket(lp, linkTx, &linkRxPub)
	require.NoError(t, err)

	sender, got, err := DeserializeLinkPacket(buf, &linkRx)
	require.NoError(t, err)
	require.True(t, sender.Equal(linkTx.PublicID()))
	require.True(t, got.NarrowWaistPacket().HBFI().Equal(lp.NarrowWaistPacket().HBFI()))
}

func TestLinkEncryptWrongRecipientFails(t *testing.T) {
	linkTx, err := identity.Generate()
	require.NoError(t, err)
	linkRx, err := identity.Generate()
	require.NoError(t, err)
	stranger, err := identity.Generate()
	require.NoError(t, err)
	lp := testLinkPacket(t)

	linkRxPub := linkRx.PublicID()
	buf, err := SerializeLinkPacket(lp, linkTx, &linkRxPub)
	require.NoError(t, err)

	_, _, err = DeserializeLinkPacket(buf, &stranger)
	require.Error(t, err)
}

func TestEncodeDecodeLinkPacketThroughReedSolomon(t *testing.T) {
	linkTx, err := identity.Generate()
	require.NoError(t, err)
	lp := testLinkPacket(t)

	framed, err := EncodeLinkPacket(lp, linkTx, nil)
	require.NoError(t, err)

	sender, got, err := DecodeLinkPacket(framed, nil)
	require.NoError(t, err)
	require.True(t, sender.Equal(linkTx.PublicID()))
	require.True(t, got.NarrowWaistPacket().HBFI().Equal(lp.NarrowWaistPacket().HBFI()))
}
