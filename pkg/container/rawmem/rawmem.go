// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rawmem owns fixed-capacity blocks of element slots.  A
// Memory hands out slot addresses and nothing else: it never decides
// which slots hold live values.  That bookkeeping belongs to the owner
// (see pkg/container/vector), and the owner must finalize live
// elements before Free.
package rawmem

import (
	"github.com/matrixorigin/rawvec/pkg/common/mpool"
	"github.com/matrixorigin/rawvec/pkg/common/verr"
)

// Memory is a block of capacity slots of T, charged to the mpool that
// allocated it.  The zero Memory holds no block.  A Memory must not be
// copied; transfer ownership with TakeFrom or Swap.
type Memory[T any] struct {
	buf []T
	mp  *mpool.MPool
}

// New allocates a block for capacity elements.  Capacity 0 allocates
// nothing.  On OOM no partial state is left behind.
func New[T any](mp *mpool.MPool, capacity int) (Memory[T], error) {
	if capacity < 0 {
		return Memory[T]{}, verr.NewInvalidArg("capacity", capacity)
	}
	if capacity == 0 {
		return Memory[T]{mp: mp}, nil
	}
	buf, err := mpool.AllocSlice[T](mp, capacity)
	if err != nil {
		return Memory[T]{}, err
	}
	return Memory[T]{buf: buf, mp: mp}, nil
}

func (m *Memory[T]) Capacity() int {
	return len(m.buf)
}

// Slot returns the address of slot offset.  Valid for offset in
// [0, capacity); the runtime bounds check is the only guard.
func (m *Memory[T]) Slot(offset int) *T {
	return &m.buf[offset]
}

// Slice returns the slots [i, j).  j == capacity is the one-past-last
// marker.
func (m *Memory[T]) Slice(i, j int) []T {
	return m.buf[i:j]
}

// Swap exchanges blocks in constant time.  Never fails.
func (m *Memory[T]) Swap(other *Memory[T]) {
	m.buf, other.buf = other.buf, m.buf
	m.mp, other.mp = other.mp, m.mp
}

// TakeFrom frees m's own block and steals other's, leaving other
// empty.  Never fails.
func (m *Memory[T]) TakeFrom(other *Memory[T]) {
	if m == other {
		return
	}
	m.Free()
	m.buf, m.mp = other.buf, other.mp
	other.buf = nil
}

// Free returns the block to its pool.  Idempotent, never fails.
func (m *Memory[T]) Free() {
	if m.buf != nil {
		mpool.FreeSlice(m.mp, m.buf)
		m.buf = nil
	}
}
