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

package copernica

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/link"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/narrowwaist"
	memstore "github.com/fractalide/copernica/pkg/store/memory"
	"github.com/fractalide/copernica/router"
)

// fakeLink hands its channel pair straight back to the test, standing in
// for a real transport so the test can inject inbound packets and observe
// outbound ones without a socket or a peer process.
type fakeLink struct {
	id  linkpacket.LinkID
	t2c chan<- linkpacket.InterLinkPacket
	c2t <-chan linkpacket.InterLinkPacket
}

func (f *fakeLink) ID() linkpacket.LinkID { return f.id }

func (f *fakeLink) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunRoutesRequestAcrossRegisteredLinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := router.New(0, 50)
	core := New(r)

	l1 := linkpacket.NewLinkID("l1")
	l2 := linkpacket.NewLinkID("l2")
	var l1In chan<- linkpacket.InterLinkPacket
	var l2Out <-chan linkpacket.InterLinkPacket

	core.Peer(l1, func(t2c chan<- linkpacket.InterLinkPacket, c2t <-chan linkpacket.InterLinkPacket) link.Link {
		l1In = t2c
		return &fakeLink{id: l1, t2c: t2c, c2t: c2t}
	})
	core.Peer(l2, func(t2c chan<- linkpacket.InterLinkPacket, c2t <-chan linkpacket.InterLinkPacket) link.Link {
		l2Out = c2t
		return &fakeLink{id: l2, t2c: t2c, c2t: c2t}
	})

	st := memstore.NewStore()
	errs := make(chan error, 1)
	go func() { errs <- core.Run(ctx, st) }()

	responder, err := identity.Generate()
	require.NoError(t, err)
	h := hbfi.New(responder.PublicID(), nil, "app", "mod", "fun", "arg")
	req, err := narrowwaist.Request(h)
	require.NoError(t, err)
	reqLP := linkpacket.New(linkpacket.Mpsc(), req)

	l1In <- linkpacket.NewInterLinkPacket(l1, reqLP)

	select {
	case forwarded := <-l2Out:
		require.True(t, forwarded.LinkID().Equal(l2))
		require.True(t, forwarded.LinkPacket().NarrowWaistPacket().IsRequest())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the request to be routed to l2")
	}

	cancel()
	require.ErrorIs(t, <-errs, context.Canceled)
}
