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

package vector

import (
	"testing"

	"github.com/matrixorigin/rawvec/pkg/common/mpool"
	"github.com/matrixorigin/rawvec/pkg/common/verr"
	"github.com/stretchr/testify/require"
)

func values[T any](t *testing.T, v *Vector[T]) []T {
	t.Helper()
	var out []T
	for _, val := range v.All() {
		out = append(out, val)
	}
	require.Equal(t, v.Length(), len(out))
	return out
}

func TestAppendOrder(t *testing.T) {
	mp := mpool.MustNew("test-vec-append")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()

	const n = 100
	for i := int64(0); i < n; i++ {
		require.NoError(t, v.Append(i, mp))
	}
	require.Equal(t, n, v.Length())
	for i := 0; i < n; i++ {
		got, err := v.Get(i)
		require.NoError(t, err)
		require.Equal(t, int64(i), got)
	}

	for i := 0; i < 40; i++ {
		require.NoError(t, v.PopBack())
	}
	require.Equal(t, n-40, v.Length())
	require.Equal(t, []int64{0, 1, 2, 3, 4}, values(t, v)[:5])
}

func TestAmortizedGrowth(t *testing.T) {
	mp := mpool.MustNew("test-vec-growth")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	const n = 1024
	for i := int64(0); i < n; i++ {
		require.NoError(t, v.Append(i, mp))
	}
	require.Equal(t, n, v.Length())
	require.Equal(t, n, v.Capacity())

	// capacity doubles: 1, 2, 4, ..., 1024 -- 11 block allocations
	require.LessOrEqual(t, mp.Stats().NumAlloc.Load(), int64(11))
	// peak holds one block plus the block it replaced
	require.LessOrEqual(t, mp.Stats().HighWaterMark.Load(),
		mpool.SliceBytes[int64](n+n/2))

	v.Free()
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestReserveAddressStability(t *testing.T) {
	mp := mpool.MustNew("test-vec-reserve")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()

	require.NoError(t, v.Reserve(16, mp))
	require.Equal(t, 16, v.Capacity())
	nalloc := mp.Stats().NumAlloc.Load()

	require.NoError(t, v.Append(7, mp))
	p0 := v.MustAt(0)
	for i := int64(1); i < 16; i++ {
		require.NoError(t, v.Append(i, mp))
	}
	// no reallocation happened, the first element kept its address
	require.Equal(t, nalloc, mp.Stats().NumAlloc.Load())
	require.Same(t, p0, v.MustAt(0))
	require.Equal(t, 16, v.Capacity())

	// reserve below current capacity is a no-op
	require.NoError(t, v.Reserve(4, mp))
	require.Equal(t, 16, v.Capacity())
}

func TestInsertMid(t *testing.T) {
	mp := mpool.MustNew("test-vec-insert")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()

	for i := int64(0); i < 4; i++ {
		require.NoError(t, v.Append(i*10, mp))
	}
	// in place: capacity 4 is full, grow first so the shift path runs
	require.NoError(t, v.Reserve(8, mp))
	pos, err := v.Insert(2, 15, mp)
	require.NoError(t, err)
	require.Equal(t, 2, pos)
	require.Equal(t, []int64{0, 10, 15, 20, 30}, values(t, v))

	// through growth: fill up, then insert at front
	for i := int64(0); v.Length() < v.Capacity(); i++ {
		require.NoError(t, v.Append(i, mp))
	}
	pos, err = v.Insert(0, -1, mp)
	require.NoError(t, err)
	require.Equal(t, 0, pos)
	require.Equal(t, int64(-1), *v.MustAt(0))
	require.Equal(t, int64(0), *v.MustAt(1))
}

func TestInsertBounds(t *testing.T) {
	mp := mpool.MustNew("test-vec-insert-bounds")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()

	_, err := v.Insert(1, 1, mp)
	require.True(t, verr.IsErrCode(err, verr.ErrIndexOutOfRange))
	_, err = v.Insert(-1, 1, mp)
	require.True(t, verr.IsErrCode(err, verr.ErrIndexOutOfRange))
	// pos == length is the append position
	pos, err := v.Insert(0, 1, mp)
	require.NoError(t, err)
	require.Equal(t, 0, pos)
}

func TestErase(t *testing.T) {
	mp := mpool.MustNew("test-vec-erase")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()

	for i := int64(0); i < 5; i++ {
		require.NoError(t, v.Append(i, mp))
	}

	pos, err := v.Erase(1)
	require.NoError(t, err)
	require.Equal(t, 1, pos)
	require.Equal(t, []int64{0, 2, 3, 4}, values(t, v))
	require.Equal(t, int64(2), *v.MustAt(pos))

	// erasing the last element shifts nothing
	pos, err = v.Erase(v.Length() - 1)
	require.NoError(t, err)
	require.Equal(t, v.Length(), pos)
	require.Equal(t, []int64{0, 2, 3}, values(t, v))

	_, err = v.Erase(3)
	require.True(t, verr.IsErrCode(err, verr.ErrIndexOutOfRange))
}

func TestDupIsolation(t *testing.T) {
	mp := mpool.MustNew("test-vec-dup")
	defer mpool.DeleteMPool(mp)

	a := New[int64]()
	defer a.Free()
	for _, x := range []int64{1, 2, 3} {
		require.NoError(t, a.Append(x, mp))
	}

	b, err := a.Dup(mp)
	require.NoError(t, err)
	defer b.Free()

	require.NoError(t, b.Append(4, mp))
	require.NoError(t, b.Set(0, 100))

	require.Equal(t, []int64{1, 2, 3}, values(t, a))
	require.Equal(t, []int64{100, 2, 3, 4}, values(t, b))
}

func TestTakeFrom(t *testing.T) {
	mp := mpool.MustNew("test-vec-take")
	defer mpool.DeleteMPool(mp)

	a := New[int64]()
	defer a.Free()
	b := New[int64]()
	defer b.Free()

	for _, x := range []int64{1, 2, 3} {
		require.NoError(t, a.Append(x, mp))
	}
	require.NoError(t, b.Append(9, mp))

	b.TakeFrom(a)
	require.Equal(t, []int64{1, 2, 3}, values(t, b))
	require.Equal(t, 0, a.Length())
	require.Equal(t, 0, a.Capacity())

	// self transfer is a no-op
	b.TakeFrom(b)
	require.Equal(t, []int64{1, 2, 3}, values(t, b))

	b.Free()
	a.Free()
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestSwap(t *testing.T) {
	mp := mpool.MustNew("test-vec-swap")
	defer mpool.DeleteMPool(mp)

	a := New[int64]()
	defer a.Free()
	b := New[int64]()
	defer b.Free()

	require.NoError(t, a.Append(1, mp))
	require.NoError(t, b.Append(2, mp))
	require.NoError(t, b.Append(3, mp))

	a.Swap(b)
	require.Equal(t, []int64{2, 3}, values(t, a))
	require.Equal(t, []int64{1}, values(t, b))
}

func TestResize(t *testing.T) {
	mp := mpool.MustNew("test-vec-resize")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()

	require.NoError(t, v.Append(5, mp))
	require.NoError(t, v.Resize(4, mp))
	require.Equal(t, []int64{5, 0, 0, 0}, values(t, v))

	require.NoError(t, v.Resize(1, mp))
	require.Equal(t, []int64{5}, values(t, v))

	require.NoError(t, v.Resize(0, mp))
	require.Equal(t, 0, v.Length())

	err := v.Resize(-1, mp)
	require.True(t, verr.IsErrCode(err, verr.ErrInvalidArg))

	n := int64(0)
	require.NoError(t, v.ResizeWith(3, func() (int64, error) {
		n++
		return n * 11, nil
	}, mp))
	require.Equal(t, []int64{11, 22, 33}, values(t, v))
}

func TestNewWithLength(t *testing.T) {
	mp := mpool.MustNew("test-vec-newlen")
	defer mpool.DeleteMPool(mp)

	v, err := NewWithLength[int64](5, mp)
	require.NoError(t, err)
	defer v.Free()
	require.Equal(t, 5, v.Length())
	require.Equal(t, []int64{0, 0, 0, 0, 0}, values(t, v))
}

func TestCopyFrom(t *testing.T) {
	mp := mpool.MustNew("test-vec-copyfrom")
	defer mpool.DeleteMPool(mp)

	src := New[int64]()
	defer src.Free()
	for _, x := range []int64{1, 2, 3, 4} {
		require.NoError(t, src.Append(x, mp))
	}

	// source exceeds capacity: build-aside path
	dst := New[int64]()
	defer dst.Free()
	require.NoError(t, dst.Append(9, mp))
	require.NoError(t, dst.CopyFrom(src, mp))
	require.Equal(t, []int64{1, 2, 3, 4}, values(t, dst))

	// source fits: in-place path, shrinking the target
	small := New[int64]()
	defer small.Free()
	require.NoError(t, small.Append(7, mp))
	require.NoError(t, small.Append(8, mp))
	require.NoError(t, src.CopyFrom(small, mp))
	require.Equal(t, []int64{7, 8}, values(t, src))
	require.GreaterOrEqual(t, src.Capacity(), 4)

	// self copy is a no-op
	require.NoError(t, src.CopyFrom(src, mp))
	require.Equal(t, []int64{7, 8}, values(t, src))
}

func TestAccessChecked(t *testing.T) {
	mp := mpool.MustNew("test-vec-access")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()
	require.NoError(t, v.Append(42, mp))

	_, err := v.At(1)
	require.True(t, verr.IsErrCode(err, verr.ErrIndexOutOfRange))
	_, err = v.Get(-1)
	require.True(t, verr.IsErrCode(err, verr.ErrIndexOutOfRange))
	require.True(t, verr.IsErrCode(v.Set(1, 0), verr.ErrIndexOutOfRange))
	require.Panics(t, func() { v.MustAt(1) })

	require.NoError(t, v.Set(0, 43))
	require.Equal(t, int64(43), *v.MustAt(0))

	require.True(t, verr.IsErrCode(New[int64]().PopBack(), verr.ErrEmptyVector))
}

func TestAllEarlyStop(t *testing.T) {
	mp := mpool.MustNew("test-vec-all")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()
	for i := int64(0); i < 10; i++ {
		require.NoError(t, v.Append(i, mp))
	}

	seen := 0
	for i, val := range v.All() {
		require.Equal(t, int64(i), val)
		seen++
		if i == 4 {
			break
		}
	}
	require.Equal(t, 5, seen)

	// restartable
	seen = 0
	for range v.All() {
		seen++
	}
	require.Equal(t, 10, seen)
}

func TestScenario(t *testing.T) {
	mp := mpool.MustNew("test-vec-scenario")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()

	_, err := v.EmplaceBack(func() (int64, error) { return 1, nil }, mp)
	require.NoError(t, err)
	_, err = v.EmplaceBack(func() (int64, error) { return 2, nil }, mp)
	require.NoError(t, err)
	_, err = v.Insert(0, 0, mp)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2}, values(t, v))
	require.Equal(t, 3, v.Length())

	_, err = v.Erase(1)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 2}, values(t, v))
	require.Equal(t, 2, v.Length())

	require.NoError(t, v.Resize(4, mp))
	require.Equal(t, []int64{0, 2, 0, 0}, values(t, v))
	require.Equal(t, 4, v.Length())
}

func TestString(t *testing.T) {
	mp := mpool.MustNew("test-vec-string")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()
	require.Equal(t, "[]", v.String())
	require.NoError(t, v.Append(1, mp))
	require.NoError(t, v.Append(2, mp))
	require.Equal(t, "[1 2]", v.String())
}

func BenchmarkAppend(b *testing.B) {
	mp := mpool.MustNew("bench-vec-append")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := v.Append(int64(i), mp); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInsertFront(b *testing.B) {
	mp := mpool.MustNew("bench-vec-insert")
	defer mpool.DeleteMPool(mp)

	v := New[int64]()
	defer v.Free()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Insert(0, int64(i), mp); err != nil {
			b.Fatal(err)
		}
	}
}
