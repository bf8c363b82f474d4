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

// Package memory implements store.ContentStore as a mutex-guarded map, the
// default backend and the one the router's tests run against.
package memory

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/fractalide/copernica/internal/metrics"
)

// Store is an in-memory store.ContentStore. The zero value is not usable;
// construct with NewStore.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty in-memory content store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns the bytes stored under fingerprint, if any.
func (s *Store) Get(_ context.Context, fingerprint [16]byte) ([]byte, bool, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[hex.EncodeToString(fingerprint[:])]
	outcome := "miss"
	if ok {
		outcome = "hit"
	}
	metrics.StoreOperations.WithLabelValues("get", outcome, "memory").Inc()
	metrics.StoreOperationDuration.WithLabelValues("get", "memory").Observe(time.Since(start).Seconds())
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Put stores response under fingerprint, overwriting any prior value.
func (s *Store) Put(_ context.Context, fingerprint [16]byte, response []byte) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(response))
	copy(out, response)
	s.data[hex.EncodeToString(fingerprint[:])] = out
	metrics.StoreOperations.WithLabelValues("put", "ok", "memory").Inc()
	metrics.StoreOperationDuration.WithLabelValues("put", "memory").Observe(time.Since(start).Seconds())
	return nil
}
