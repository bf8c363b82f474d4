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

package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/narrowwaist"
	memstore "github.com/fractalide/copernica/pkg/store/memory"
)

const matchThreshold = 50

func TestRouterCacheHit(t *testing.T) {
	ctx := context.Background()
	responder, err := identity.Generate()
	require.NoError(t, err)

	h := hbfi.New(responder.PublicID(), nil, "app", "mod", "fun", "arg")

	l1 := linkpacket.NewLinkID("l1")
	l2 := linkpacket.NewLinkID("l2")

	r := New(0, matchThreshold)
	r.EnsureLink(l1)
	r.EnsureLink(l2)
	st := memstore.NewStore()
	out := make(chan linkpacket.InterLinkPacket, 8)

	req, err := narrowwaist.Request(h)
	require.NoError(t, err)
	reqLP := linkpacket.New(linkpacket.Mpsc(), req)
	r.HandlePacket(ctx, linkpacket.NewInterLinkPacket(l1, reqLP), st, out)

	// No content cached yet and no FIB entries: broadcast to every other
	// registered link, here just l2.
	require.Len(t, out, 1)
	fwd := <-out
	require.True(t, fwd.LinkID().Equal(l2))
	require.True(t, fwd.LinkPacket().NarrowWaistPacket().IsRequest())

	resp, err := req.Transmute(responder, []byte("hello"), 0, 5)
	require.NoError(t, err)
	respLP := linkpacket.New(linkpacket.Mpsc(), resp)
	r.HandlePacket(ctx, linkpacket.NewInterLinkPacket(l2, respLP), st, out)

	// The Request's PIT entry on l1 should cause the Response to be
	// forwarded back there.
	require.Len(t, out, 1)
	back := <-out
	require.True(t, back.LinkID().Equal(l1))
	require.True(t, back.LinkPacket().NarrowWaistPacket().IsResponse())

	stored, hit, err := st.Get(ctx, h.Fingerprint())
	require.NoError(t, err)
	require.True(t, hit)
	require.NotEmpty(t, stored)

	// A second Request for the same name, arriving on l1 again, is now
	// answered straight out of the content store without crossing to l2.
	req2, err := narrowwaist.Request(h)
	require.NoError(t, err)
	req2LP := linkpacket.New(linkpacket.Mpsc(), req2)
	r.HandlePacket(ctx, linkpacket.NewInterLinkPacket(l1, req2LP), st, out)

	require.Len(t, out, 1)
	cacheResp := <-out
	require.True(t, cacheResp.LinkID().Equal(l1))
	require.True(t, cacheResp.LinkPacket().NarrowWaistPacket().IsResponse())
}

func TestRouterDropsResponseWithInvalidSignature(t *testing.T) {
	ctx := context.Background()
	responder, err := identity.Generate()
	require.NoError(t, err)
	impostor, err := identity.Generate()
	require.NoError(t, err)

	h := hbfi.New(responder.PublicID(), nil, "app", "mod", "fun", "arg")
	req, err := narrowwaist.Request(h)
	require.NoError(t, err)
	resp, err := req.Transmute(responder, []byte("hello"), 0, 5)
	require.NoError(t, err)

	// Reattach the legitimately signed response to an HBFI naming a
	// different response identity: the signature no longer verifies
	// against the identity the packet now claims to be from.
	forgedHBFI := hbfi.New(impostor.PublicID(), nil, "app", "mod", "fun", "arg")
	forged := narrowwaist.ReconstituteResponse(forgedHBFI, resp.Nonce(), resp.Signature(), resp.ResponseData(), resp.Offset(), resp.Total())
	ok, err := forged.Verify()
	require.NoError(t, err)
	require.False(t, ok)

	l1 := linkpacket.NewLinkID("l1")
	r := New(0, matchThreshold)
	st := memstore.NewStore()
	out := make(chan linkpacket.InterLinkPacket, 8)

	forgedLP := linkpacket.New(linkpacket.Mpsc(), forged)
	r.HandlePacket(ctx, linkpacket.NewInterLinkPacket(l1, forgedLP), st, out)

	require.Len(t, out, 0)
	_, hit, err := st.Get(ctx, h.Fingerprint())
	require.NoError(t, err)
	require.False(t, hit)
}
