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

package udp

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/narrowwaist"
)

func TestUDPLinksExchangeByteIdenticalNarrowWaist(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	senderConn, err := Listen(netip.MustParseAddrPort("127.0.0.1:0"))
	require.NoError(t, err)
	defer senderConn.Close()
	receiverConn, err := Listen(netip.MustParseAddrPort("127.0.0.1:0"))
	require.NoError(t, err)
	defer receiverConn.Close()

	senderID := linkpacket.NewLinkID("udp-sender")
	receiverID := linkpacket.NewLinkID("udp-receiver")

	senderTx, err := identity.Generate()
	require.NoError(t, err)
	receiverTx, err := identity.Generate()
	require.NoError(t, err)

	senderT2C := make(chan linkpacket.InterLinkPacket, 1)
	senderC2T := make(chan linkpacket.InterLinkPacket, 1)
	receiverT2C := make(chan linkpacket.InterLinkPacket, 1)
	receiverC2T := make(chan linkpacket.InterLinkPacket, 1)

	senderLink := New(senderID, senderConn, senderT2C, senderC2T, senderTx, nil)
	receiverLink := New(receiverID, receiverConn, receiverT2C, receiverC2T, receiverTx, nil)

	done := make(chan error, 2)
	go func() { done <- senderLink.Run(ctx) }()
	go func() { done <- receiverLink.Run(ctx) }()

	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "m0d", "fun", "arg")
	req, err := narrowwaist.Request(h)
	require.NoError(t, err)

	receiverAddr := receiverConn.conn.LocalAddr().(*net.UDPAddr).AddrPort()
	lp := linkpacket.New(linkpacket.UdpIP(receiverAddr), req)

	senderC2T <- linkpacket.NewInterLinkPacket(senderID, lp)

	select {
	case ilp := <-receiverT2C:
		require.True(t, ilp.LinkID().Equal(receiverID))
		require.True(t, ilp.LinkPacket().NarrowWaistPacket().HBFI().Equal(h))
		require.Equal(t, req.Nonce(), ilp.LinkPacket().NarrowWaistPacket().Nonce())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for udp round trip")
	}

	cancel()
	<-done
	<-done
}
