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
)

func TestUint16RoundTrip(t *testing.T) {
	for _, v := range []uint16{0, 1, 42, 65535} {
		buf := make([]byte, 2)
		putU16(buf, v)
		require.Equal(t, v, getU16(buf))
	}
}

func TestUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 42, 1<<63 - 1, 1<<64 - 1} {
		buf := make([]byte, 8)
		putU64(buf, v)
		require.Equal(t, v, getU64(buf))
	}
}

func TestBFIRoundTrip(t *testing.T) {
	for _, b := range []hbfi.BFI{
		{0, 0, 0, 0},
		{1, 2, 3, 4},
		{65535, 65535, 65535, 65535},
	} {
		buf := make([]byte, 8)
		putBFI(buf, b)
		require.Equal(t, b, getBFI(buf))
	}
}

func TestUint16IsBigEndian(t *testing.T) {
	buf := make([]byte, 2)
	putU16(buf, 0x0102)
	require.Equal(t, []byte{0x01, 0x02}, buf)
}

func TestUint64IsBigEndian(t *testing.T) {
	buf := make([]byte, 8)
	putU64(buf, 0x0102030405060708)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, buf)
}
