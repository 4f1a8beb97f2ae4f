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

package mpool

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/matrixorigin/rawvec/pkg/common/verr"
	"github.com/matrixorigin/rawvec/pkg/logutil"
	"go.uber.org/zap"
)

const (
	KB = 1 << 10
	MB = 1 << 20
	GB = 1 << 30
)

// Stats records allocation stats of a pool.  All counters are atomics;
// a pool may be shared by goroutines even though the containers built
// on top of it are single-owner.
type Stats struct {
	NumAlloc      atomic.Int64
	NumFree       atomic.Int64
	CurrNB        atomic.Int64
	HighWaterMark atomic.Int64
}

func (s *Stats) RecordAlloc(nb int64) int64 {
	s.NumAlloc.Add(1)
	curr := s.CurrNB.Add(nb)
	s.updateHighWaterMark(curr)
	return curr
}

func (s *Stats) updateHighWaterMark(curr int64) {
	for {
		hwm := s.HighWaterMark.Load()
		if curr <= hwm || s.HighWaterMark.CompareAndSwap(hwm, curr) {
			return
		}
	}
}

func (s *Stats) RecordFree(nb int64) int64 {
	s.NumFree.Add(1)
	return s.CurrNB.Add(-nb)
}

func (s *Stats) Report() string {
	ret, err := json.Marshal(map[string]int64{
		"curr_nb":         s.CurrNB.Load(),
		"high_water_mark": s.HighWaterMark.Load(),
		"num_alloc":       s.NumAlloc.Load(),
		"num_free":        s.NumFree.Load(),
	})
	if err != nil {
		logutil.Error("mpool stats report", zap.Error(err))
		return ""
	}
	return string(ret)
}

// MPool is a named, size-capped accounting allocator.  It hands out
// zeroed blocks and keeps byte-level accounting so a run-away consumer
// fails with OOM instead of taking the process down.  Cap 0 means
// unbounded.
type MPool struct {
	name string
	cap  int64

	stats Stats
}

var globalPools sync.Map

// New creates and registers a pool.  cap is the byte budget, 0 for
// unbounded.
func New(name string, cap int64) (*MPool, error) {
	if cap < 0 {
		return nil, verr.NewInvalidArg("mpool cap", cap)
	}
	m := &MPool{name: name, cap: cap}
	globalPools.Store(m, true)
	return m, nil
}

// MustNew creates an unbounded pool, panicking on bad input.
func MustNew(name string) *MPool {
	m, err := New(name, 0)
	if err != nil {
		panic(err)
	}
	return m
}

// MustNewWithCap creates a capped pool, panicking on bad input.
func MustNewWithCap(name string, cap int64) *MPool {
	m, err := New(name, cap)
	if err != nil {
		panic(err)
	}
	return m
}

// DeleteMPool unregisters a pool.  A pool with outstanding bytes is a
// leak; it is logged, not fatal.
func DeleteMPool(m *MPool) {
	if m == nil {
		return
	}
	globalPools.Delete(m)
	if curr := m.stats.CurrNB.Load(); curr != 0 {
		logutil.Warn("mpool deleted with outstanding allocations",
			zap.String("pool", m.name),
			zap.Int64("curr_nb", curr))
	}
}

func (m *MPool) Name() string {
	return m.name
}

func (m *MPool) Cap() int64 {
	return m.cap
}

func (m *MPool) CurrNB() int64 {
	return m.stats.CurrNB.Load()
}

func (m *MPool) Stats() *Stats {
	return &m.stats
}

// reserve charges nb bytes against the pool cap.  The entire charge is
// atomic from the caller's view: on OOM nothing is charged.
func (m *MPool) reserve(nb int64) error {
	if m.cap > 0 {
		for {
			curr := m.stats.CurrNB.Load()
			if curr+nb > m.cap {
				return verr.NewOOM(m.name, nb, m.cap)
			}
			if m.stats.CurrNB.CompareAndSwap(curr, curr+nb) {
				m.stats.NumAlloc.Add(1)
				m.stats.updateHighWaterMark(curr + nb)
				return nil
			}
		}
	}
	m.stats.RecordAlloc(nb)
	return nil
}

func (m *MPool) unreserve(nb int64) {
	m.stats.RecordFree(nb)
}

// Alloc returns a zeroed block of sz bytes charged to the pool.
func (m *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, verr.NewInvalidArg("alloc size", sz)
	}
	if sz == 0 {
		return nil, nil
	}
	if err := m.reserve(int64(sz)); err != nil {
		return nil, err
	}
	return make([]byte, sz), nil
}

// Free returns a block's bytes to the pool.  Free of nil is a no-op.
func (m *MPool) Free(bs []byte) {
	if cap(bs) == 0 {
		return
	}
	m.unreserve(int64(cap(bs)))
}

// GrowSize returns the capacity a block of curr bytes grows to when
// need bytes are requested: double while small, then a quarter at a
// time, the way append grows a slice.
func GrowSize(curr, need int) int {
	if curr <= 0 {
		return need
	}
	newCap := curr
	doubleCap := curr + curr
	if need > doubleCap {
		return need
	}
	if curr < KB {
		return doubleCap
	}
	for 0 < newCap && newCap < need {
		newCap += newCap / 4
	}
	if newCap <= 0 {
		return need
	}
	return newCap
}

// Realloc grows old to hold sz bytes, copying its contents and freeing
// the old block.  The new capacity follows GrowSize so that a caller
// growing a block incrementally reallocates O(log n) times.  The tail
// beyond len(old) is zeroed.
func (m *MPool) Realloc(old []byte, sz int) ([]byte, error) {
	if sz <= cap(old) {
		return old[:sz], nil
	}
	bs, err := m.Alloc(GrowSize(cap(old), sz))
	if err != nil {
		return nil, err
	}
	copy(bs, old)
	m.Free(old)
	return bs[:sz], nil
}

// AllocSlice returns a zeroed []T of length n, charging the pool for
// the equivalent bytes.  The slice is an ordinary GC-managed slice; the
// pool only does accounting, so element types may hold pointers.
func AllocSlice[T any](m *MPool, n int) ([]T, error) {
	if n < 0 {
		return nil, verr.NewInvalidArg("alloc count", n)
	}
	if n == 0 {
		return nil, nil
	}
	if err := m.reserve(SliceBytes[T](n)); err != nil {
		return nil, err
	}
	return make([]T, n), nil
}

// FreeSlice returns a slice's accounted bytes to the pool.
func FreeSlice[T any](m *MPool, s []T) {
	if cap(s) == 0 {
		return
	}
	m.unreserve(SliceBytes[T](cap(s)))
}

// SliceBytes is the accounted size of a []T of length n.
func SliceBytes[T any](n int) int64 {
	var zt T
	return int64(unsafe.Sizeof(zt)) * int64(n)
}

type poolReport struct {
	Name          string `json:"name"`
	Cap           int64  `json:"cap"`
	CurrNB        int64  `json:"curr_nb"`
	HighWaterMark int64  `json:"high_water_mark"`
	NumAlloc      int64  `json:"num_alloc"`
	NumFree       int64  `json:"num_free"`
}

// ReportMemUsage returns a JSON snapshot of registered pools.  Empty
// name reports all pools.
func ReportMemUsage(name string) string {
	var reports []poolReport
	globalPools.Range(func(k, _ any) bool {
		m := k.(*MPool)
		if name != "" && m.name != name {
			return true
		}
		reports = append(reports, poolReport{
			Name:          m.name,
			Cap:           m.cap,
			CurrNB:        m.stats.CurrNB.Load(),
			HighWaterMark: m.stats.HighWaterMark.Load(),
			NumAlloc:      m.stats.NumAlloc.Load(),
			NumFree:       m.stats.NumFree.Load(),
		})
		return true
	})
	ret, err := json.Marshal(reports)
	if err != nil {
		logutil.Error("mpool mem usage report", zap.Error(err))
		return ""
	}
	return string(ret)
}
