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

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := Generate()
	require.NoError(t, err)

	msg := []byte("manifest bytes")
	sig := priv.SigningKey().Sign(msg)

	ok := priv.PublicID().VerifyKey().Verify(sig, msg)
	require.True(t, ok)

	sig[0] ^= 0xFF
	require.False(t, priv.PublicID().VerifyKey().Verify(sig, msg))
}

func TestReconstituteEquality(t *testing.T) {
	priv, err := Generate()
	require.NoError(t, err)
	pub := priv.PublicID()

	reconstituted, err := Reconstitute(pub.Key(), pub.ChainCode())
	require.NoError(t, err)
	require.True(t, pub.Equal(reconstituted))
}

func TestDeriveExchangeSymmetric(t *testing.T) {
	alice, err := Generate()
	require.NoError(t, err)
	bob, err := Generate()
	require.NoError(t, err)

	var nonce [NonceSize]byte
	copy(nonce[:], []byte("routerouterout"))

	aliceDerived, err := alice.Derive(nonce)
	require.NoError(t, err)
	bobDerivedPub, err := bob.PublicID().Derive(nonce)
	require.NoError(t, err)

	bobDerived, err := bob.Derive(nonce)
	require.NoError(t, err)
	aliceDerivedPub, err := alice.PublicID().Derive(nonce)
	require.NoError(t, err)

	secretFromAlice := aliceDerived.Exchange(bobDerivedPub)
	secretFromBob := bobDerived.Exchange(aliceDerivedPub)

	require.Equal(t, secretFromAlice, secretFromBob)
}
