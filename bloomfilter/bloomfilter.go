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

// Package bloomfilter implements the fixed-width, sparse, distributed
// Bloom filter Copernica uses as a combined PIT/FIB per link: insertion,
// percentage-based membership ("contains"), deletion, partial forgetting
// to bound staleness, and a decoherence heuristic used to judge fullness.
package bloomfilter

import (
	"math/rand"

	"github.com/bits-and-blooms/bitset"

	"github.com/fractalide/copernica/hbfi"
)

// DefaultBits is the default bit-vector width of a Filter, per the wire
// contract's sizing guidance.
const DefaultBits = 2048

// Filter is a fixed-length bit vector indexed directly by an HBFI's BFI
// entries. Two Filters never need to agree bit-for-bit across nodes: each
// link owns its own, so the only contract that matters is internal
// consistency between Insert/Contains/Delete on the same instance.
type Filter struct {
	bits *bitset.BitSet
	size uint
}

// New builds an empty Filter with the given bit-vector width.
func New(size uint) *Filter {
	if size == 0 {
		size = DefaultBits
	}
	return &Filter{bits: bitset.New(size), size: size}
}

// position reduces a raw 16-bit BFI entry into a bit index within this
// filter's width.
func (f *Filter) position(v uint16) uint {
	return uint(v) % f.size
}

func (f *Filter) positions(h hbfi.HBFI) []uint {
	raw := h.BloomPositions()
	out := make([]uint, len(raw))
	for i, v := range raw {
		out[i] = f.position(v)
	}
	return out
}

// Insert sets every bit position named by h's six BFI labels.
func (f *Filter) Insert(h hbfi.HBFI) {
	for _, p := range f.positions(h) {
		f.bits.Set(p)
	}
}

// Contains returns the percentage (0-100) of h's bit positions that are
// currently set, not a boolean: callers compare this against a configured
// match threshold to decide whether the filter "recognises" the name.
func (f *Filter) Contains(h hbfi.HBFI) int {
	positions := f.positions(h)
	if len(positions) == 0 {
		return 0
	}
	set := 0
	for _, p := range positions {
		if f.bits.Test(p) {
			set++
		}
	}
	return set * 100 / len(positions)
}

// Delete clears every bit position named by h's six BFI labels.
func (f *Filter) Delete(h hbfi.HBFI) {
	for _, p := range f.positions(h) {
		f.bits.Clear(p)
	}
}

// PartiallyForget randomly clears a fraction (0.0-1.0) of the currently
// set bits, bounding how stale a filter's membership claims can become
// without ever being rebuilt from scratch.
func (f *Filter) PartiallyForget(fraction float64) {
	if fraction <= 0 {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	for i, ok := f.bits.NextSet(0); ok; i, ok = f.bits.NextSet(i + 1) {
		if rand.Float64() < fraction {
			f.bits.Clear(i)
		}
	}
}

// Decoherence returns the percentage (0-100) of bits currently set across
// the whole vector, a fullness heuristic independent of any particular
// HBFI query.
func (f *Filter) Decoherence() int {
	if f.size == 0 {
		return 0
	}
	return int(f.bits.Count()) * 100 / int(f.size)
}

// Clone returns an independent copy of f, cheap enough that each link can
// own one without the Router sharing mutable state across links.
func (f *Filter) Clone() *Filter {
	return &Filter{bits: f.bits.Clone(), size: f.size}
}

// Size reports the bit-vector width this filter was constructed with.
func (f *Filter) Size() uint { return f.size }
