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

package bloomfilter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fractalide/copernica/hbfi"
	"github.com/fractalide/copernica/identity"
)

func testHBFI(t *testing.T, label string) hbfi.HBFI {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return hbfi.New(id.PublicID(), nil, label, "m0d", "fun", "arg")
}

func TestInsertContainsDelete(t *testing.T) {
	f := New(DefaultBits)
	h := testHBFI(t, "app")

	require.Equal(t, 0, f.Contains(h))

	f.Insert(h)
	require.Equal(t, 100, f.Contains(h))

	f.Delete(h)
	require.Equal(t, 0, f.Contains(h))
}

func TestContainsIsFullForEveryInsertedName(t *testing.T) {
	f := New(DefaultBits)
	a := testHBFI(t, "app-a")
	b := testHBFI(t, "app-b")

	f.Insert(a)
	// Inserting a second, unrelated name must not disturb the first: once
	// both are inserted, every position of each is set, so both report a
	// full match.
	f.Insert(b)
	require.Equal(t, 100, f.Contains(a))
	require.Equal(t, 100, f.Contains(b))
}

func TestCloneIsIndependent(t *testing.T) {
	f := New(DefaultBits)
	h := testHBFI(t, "app")
	f.Insert(h)

	clone := f.Clone()
	clone.Delete(h)

	require.Equal(t, 100, f.Contains(h))
	require.Equal(t, 0, clone.Contains(h))
}

func TestPartiallyForgetReducesOccupancy(t *testing.T) {
	f := New(DefaultBits)
	for i := 0; i < 50; i++ {
		f.Insert(testHBFI(t, string(rune('a'+i%26))+string(rune(i))))
	}
	before := f.Decoherence()
	require.Greater(t, before, 0)

	f.PartiallyForget(1.0)
	require.Equal(t, 0, f.Decoherence())
}

func TestDecoherenceGrowsWithInserts(t *testing.T) {
	f := New(DefaultBits)
	require.Equal(t, 0, f.Decoherence())

	for i := 0; i < 20; i++ {
		f.Insert(testHBFI(t, string(rune(i))+"x"))
	}
	require.Greater(t, f.Decoherence(), 0)
}
