// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache stores serialized search pages keyed by request signature.
//
// Three implementations are provided: Nop for production deployments that
// want no caching, SingleSlot for development (one entry for the process
// lifetime), and Redis for shared caching across instances.
package cache

import (
	"context"
	"sync/atomic"
)

// Cache is a read-if-present, else compute-and-store result cache.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Nop never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte) error { return nil }

type slot struct {
	key   string
	value []byte
}

// SingleSlot remembers exactly one entry. Concurrent writers race and the
// last one wins; the atomic pointer only keeps each read consistent.
type SingleSlot struct {
	entry atomic.Pointer[slot]
}

// NewSingleSlot returns an empty single-entry cache.
func NewSingleSlot() *SingleSlot {
	return &SingleSlot{}
}

// Get returns the slot's value if it was stored under key.
func (s *SingleSlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	e := s.entry.Load()
	if e == nil || e.key != key {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set replaces the slot.
func (s *SingleSlot) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.entry.Store(&slot{key: key, value: stored})
	return nil
}

// Clear empties the slot.
func (s *SingleSlot) Clear() {
	s.entry.Store(nil)
}
