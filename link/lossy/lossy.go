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

// Package lossy implements a test double wrapping another link.Transport,
// flipping a bounded number of random bytes in each frame to exercise the
// Reed-Solomon(255,249) correction and failure boundary described by the
// wire codec.
package lossy

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/netip"

	"github.com/fractalide/copernica/link"
)

// Transport wraps an inner link.Transport, corrupting up to maxFlips
// random bytes of every frame it sends.
type Transport struct {
	inner    link.Transport
	maxFlips int
}

// New wraps inner, corrupting at most maxFlips bytes per sent frame. A
// maxFlips of 3 or less stays within the Reed-Solomon(255,249) code's
// per-block correction capacity; higher values exercise the uncorrectable
// failure path.
func New(inner link.Transport, maxFlips int) *Transport {
	return &Transport{inner: inner, maxFlips: maxFlips}
}

// Send corrupts a random subset of frame's bytes before delegating to the
// wrapped transport.
func (t *Transport) Send(ctx context.Context, frame []byte, to netip.AddrPort) error {
	corrupted := make([]byte, len(frame))
	copy(corrupted, frame)
	if err := corrupt(corrupted, t.maxFlips); err != nil {
		return err
	}
	return t.inner.Send(ctx, corrupted, to)
}

// Recv delegates directly; corruption is only injected on the send side so
// a single lossy hop is enough to exercise the boundary in either
// direction depending on which peer wraps its transport.
func (t *Transport) Recv(ctx context.Context) ([]byte, netip.AddrPort, error) {
	return t.inner.Recv(ctx)
}

// Close delegates to the wrapped transport.
func (t *Transport) Close() error {
	return t.inner.Close()
}

func corrupt(frame []byte, maxFlips int) error {
	if len(frame) == 0 || maxFlips <= 0 {
		return nil
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(maxFlips+1)))
	if err != nil {
		return err
	}
	n := int(nBig.Int64())
	for i := 0; i < n; i++ {
		idxBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(frame))))
		if err != nil {
			return err
		}
		flipBig, err := rand.Int(rand.Reader, big.NewInt(256))
		if err != nil {
			return err
		}
		frame[idxBig.Int64()] ^= byte(flipBig.Int64())
	}
	return nil
}

var _ link.Transport = (*Transport)(nil)
