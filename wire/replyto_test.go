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

	"github.com/fractalide/copernica/linkpacket"
)

func TestReplyToMpscRoundTrip(t *testing.T) {
	size, buf := SerializeReplyTo(linkpacket.Mpsc())
	require.Equal(t, byte(0), size)
	require.Empty(t, buf)

	got, err := DeserializeReplyTo(buf)
	require.NoError(t, err)
	require.True(t, got.Equal(linkpacket.Mpsc()))
}

func TestReplyToUDP4RoundTrip(t *testing.T) {
	addr := netip.MustParseAddrPort("192.0.2.1:7760")
	_, buf := SerializeReplyTo(linkpacket.UdpIP(addr))

	got, err := DeserializeReplyTo(buf)
	require.NoError(t, err)
	require.True(t, got.Equal(linkpacket.UdpIP(addr)))
}

func TestReplyToUDP6RoundTrip(t *testing.T) {
	addr := netip.MustParseAddrPort("[2001:db8::1]:7760")
	_, buf := SerializeReplyTo(linkpacket.UdpIP(addr))

	got, err := DeserializeReplyTo(buf)
	require.NoError(t, err)
	require.True(t, got.Equal(linkpacket.UdpIP(addr)))
}

func TestReplyToRfRoundTrip(t *testing.T) {
	_, buf := SerializeReplyTo(linkpacket.Rf(2400000000))

	got, err := DeserializeReplyTo(buf)
	require.NoError(t, err)
	require.True(t, got.Equal(linkpacket.Rf(2400000000)))
}

func TestReplyToUnknownLengthIsHardError(t *testing.T) {
	_, err := DeserializeReplyTo(make([]byte, 3))
	require.Error(t, err)
}
