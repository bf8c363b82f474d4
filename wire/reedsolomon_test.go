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
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomBlockData(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

func TestEncodeDecodeRoundTripNoCorruption(t *testing.T) {
	data := randomBlockData(t, rsDataPerBlk*3+17)
	framed := Encode(data)
	require.Zero(t, len(framed)%rsBlockSize)

	decoded, err := Decode(framed)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(decoded, data))
}

func TestDecodeCorrectsUpToThreeErrorsPerBlock(t *testing.T) {
	data := randomBlockData(t, rsDataPerBlk)
	framed := Encode(data)

	corrupted := make([]byte, len(framed))
	copy(corrupted, framed)
	corrupted[0] ^= 0xFF
	corrupted[10] ^= 0xFF
	corrupted[20] ^= 0xFF

	decoded, err := Decode(corrupted)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(decoded, data))
}

func TestDecodeFailsWithFourErrorsPerBlock(t *testing.T) {
	data := randomBlockData(t, rsDataPerBlk)
	framed := Encode(data)

	corrupted := make([]byte, len(framed))
	copy(corrupted, framed)
	corrupted[0] ^= 0xFF
	corrupted[10] ^= 0xFF
	corrupted[20] ^= 0xFF
	corrupted[30] ^= 0xFF

	_, err := Decode(corrupted)
	require.Error(t, err)
}

func TestDecodeRejectsNonBlockMultiple(t *testing.T) {
	_, err := Decode(make([]byte, rsBlockSize-1))
	require.Error(t, err)
}

func TestDecodeWithNoErrorsReturnsOriginalDataUnchanged(t *testing.T) {
	data := randomBlockData(t, rsDataPerBlk*2)
	framed := Encode(data)
	decoded, err := Decode(framed)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}
