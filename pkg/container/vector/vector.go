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

// Package vector is a resizable contiguous container over rawmem
// blocks.  A Vector owns one rawmem.Memory and tracks how many of its
// slots hold live values: slots [0, length) are live, slots
// [length, capacity) are dead, zeroed memory.  That invariant holds on
// entry and exit of every exported operation.
//
// Access is checked: At, Get, Set, Emplace and Erase return
// verr.ErrIndexOutOfRange for positions outside the live range, and
// MustAt panics on the same condition.
//
// Pointer validity: any operation that reallocates (Reserve, or
// Emplace / Insert / Append / Resize when capacity is exhausted)
// invalidates every element pointer previously returned by At or
// MustAt.  Insert and Erase without reallocation invalidate pointers
// at or after the affected position only.
//
// A Vector is single-owner: concurrent use from multiple goroutines
// without external synchronization is not supported.
package vector

import (
	"fmt"
	"iter"
	"strings"

	"github.com/matrixorigin/rawvec/pkg/common/mpool"
	"github.com/matrixorigin/rawvec/pkg/common/verr"
	"github.com/matrixorigin/rawvec/pkg/container/rawmem"
)

// Vector is the container.  The zero value is not usable; create one
// with New or NewWithLength.
type Vector[T any] struct {
	data   rawmem.Memory[T]
	length int

	// capability flags of T, resolved once in New
	canClone   bool
	canRelease bool
}

// New creates an empty vector with zero capacity.  No allocation
// happens until the first growing operation.
func New[T any]() *Vector[T] {
	var zt T
	_, canClone := any(zt).(Cloner[T])
	_, canRelease := any(zt).(Releaser)
	return &Vector[T]{canClone: canClone, canRelease: canRelease}
}

// NewWithLength creates a vector holding length zero-valued elements.
func NewWithLength[T any](length int, mp *mpool.MPool) (*Vector[T], error) {
	v := New[T]()
	if err := v.Resize(length, mp); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vector[T]) Length() int {
	return v.length
}

func (v *Vector[T]) Capacity() int {
	return v.data.Capacity()
}

// At returns the address of element i.  The pointer stays valid until
// the next invalidating operation, see the package comment.
func (v *Vector[T]) At(i int) (*T, error) {
	if i < 0 || i >= v.length {
		return nil, verr.NewIndexOutOfRange(i, v.length)
	}
	return v.data.Slot(i), nil
}

// Get returns element i by value.
func (v *Vector[T]) Get(i int) (T, error) {
	p, err := v.At(i)
	if err != nil {
		var zt T
		return zt, err
	}
	return *p, nil
}

// MustAt is At for indexes known to be in range.
func (v *Vector[T]) MustAt(i int) *T {
	p, err := v.At(i)
	if err != nil {
		panic(err)
	}
	return p
}

// Set overwrites element i with val, destroying the previous value.
// The vector takes ownership of val.
func (v *Vector[T]) Set(i int, val T) error {
	p, err := v.At(i)
	if err != nil {
		return err
	}
	v.releaseValue(*p)
	*p = val
	return nil
}

// All iterates elements in index order.  The sequence is restartable;
// it reads through the live range, so mutating the vector mid-walk
// follows the same invalidation contract as element pointers.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.length; i++ {
			if !yield(i, *v.data.Slot(i)) {
				return
			}
		}
	}
}

// Reserve grows capacity to at least newCap, relocating live elements
// into a fresh block.  No-op when newCap fits already.  Strong
// guarantee: on OOM the vector is untouched.
func (v *Vector[T]) Reserve(newCap int, mp *mpool.MPool) error {
	if newCap <= v.data.Capacity() {
		return nil
	}
	nd, err := rawmem.New[T](mp, newCap)
	if err != nil {
		return err
	}
	moveSlots(nd.Slice(0, v.length), v.data.Slice(0, v.length))
	v.data.Swap(&nd)
	nd.Free()
	return nil
}

// Emplace constructs a new element at position pos, shifting the
// suffix right.  pos == Length() appends.  The constructor runs before
// any live element is touched, so a constructor error leaves the
// vector unchanged; when growth is involved the whole operation has
// the strong guarantee.  Returns the index of the new element.
func (v *Vector[T]) Emplace(pos int, ctor func() (T, error), mp *mpool.MPool) (int, error) {
	if pos < 0 || pos > v.length {
		return 0, verr.NewIndexOutOfRange(pos, v.length+1)
	}
	if v.length == v.data.Capacity() {
		if err := v.emplaceGrow(pos, ctor, mp); err != nil {
			return 0, err
		}
	} else {
		if err := v.emplaceInPlace(pos, ctor); err != nil {
			return 0, err
		}
	}
	v.length++
	return pos, nil
}

func (v *Vector[T]) emplaceGrow(pos int, ctor func() (T, error), mp *mpool.MPool) error {
	newCap := v.length * 2
	if newCap == 0 {
		newCap = 1
	}
	nd, err := rawmem.New[T](mp, newCap)
	if err != nil {
		return err
	}
	// construct into the final slot first; a failed constructor
	// discards only the fresh block
	val, err := ctor()
	if err != nil {
		nd.Free()
		return err
	}
	*nd.Slot(pos) = val
	moveSlots(nd.Slice(0, pos), v.data.Slice(0, pos))
	moveSlots(nd.Slice(pos+1, v.length+1), v.data.Slice(pos, v.length))
	v.data.Swap(&nd)
	nd.Free()
	return nil
}

func (v *Vector[T]) emplaceInPlace(pos int, ctor func() (T, error)) error {
	// evaluate the constructor before touching live elements
	val, err := ctor()
	if err != nil {
		return err
	}
	if pos < v.length {
		buf := v.data.Slice(0, v.length+1)
		// relocate the last element into the dead slot, shift the
		// tail right, then drop the new value into the opened slot
		buf[v.length] = buf[v.length-1]
		for i := v.length - 1; i > pos; i-- {
			buf[i] = buf[i-1]
		}
		buf[pos] = val
	} else {
		*v.data.Slot(pos) = val
	}
	return nil
}

// Insert places val at position pos.  The vector takes ownership of
// val; for Cloner elements pass an owned value, Insert does not clone.
func (v *Vector[T]) Insert(pos int, val T, mp *mpool.MPool) (int, error) {
	return v.Emplace(pos, func() (T, error) { return val, nil }, mp)
}

// Append places val after the last element.
func (v *Vector[T]) Append(val T, mp *mpool.MPool) error {
	_, err := v.Emplace(v.length, func() (T, error) { return val, nil }, mp)
	return err
}

// EmplaceBack constructs a new last element and returns its address.
func (v *Vector[T]) EmplaceBack(ctor func() (T, error), mp *mpool.MPool) (*T, error) {
	pos, err := v.Emplace(v.length, ctor, mp)
	if err != nil {
		return nil, err
	}
	return v.data.Slot(pos), nil
}

// Erase destroys element pos and shifts the suffix left.  Returns pos,
// which now holds the next element, or == Length() when the last
// element was erased.
func (v *Vector[T]) Erase(pos int) (int, error) {
	if pos < 0 || pos >= v.length {
		return 0, verr.NewIndexOutOfRange(pos, v.length)
	}
	buf := v.data.Slice(0, v.length)
	v.releaseValue(buf[pos])
	copy(buf[pos:], buf[pos+1:])
	// the vacated slot holds a stale duplicate, not a live value
	var zt T
	buf[v.length-1] = zt
	v.length--
	return pos, nil
}

// PopBack destroys the last element.
func (v *Vector[T]) PopBack() error {
	if v.length == 0 {
		return verr.NewEmptyVector()
	}
	v.destroySlots(v.data.Slice(v.length-1, v.length))
	v.length--
	return nil
}

// Resize grows with zero-valued elements or shrinks by destroying the
// tail.  Ends with Length() == newLen.
func (v *Vector[T]) Resize(newLen int, mp *mpool.MPool) error {
	return v.ResizeWith(newLen, nil, mp)
}

// ResizeWith is Resize with a constructor for the newly exposed slots.
// If the constructor fails partway, the elements it already built are
// destroyed and length and content stay unchanged (capacity may have
// grown).
func (v *Vector[T]) ResizeWith(newLen int, ctor func() (T, error), mp *mpool.MPool) error {
	if newLen < 0 {
		return verr.NewInvalidArg("length", newLen)
	}
	switch {
	case newLen > v.length:
		if err := v.Reserve(newLen, mp); err != nil {
			return err
		}
		buf := v.data.Slice(0, newLen)
		for i := v.length; i < newLen; i++ {
			if ctor == nil {
				var zt T
				buf[i] = zt
				continue
			}
			val, err := ctor()
			if err != nil {
				v.destroySlots(buf[v.length:i])
				return err
			}
			buf[i] = val
		}
	case newLen < v.length:
		v.destroySlots(v.data.Slice(newLen, v.length))
	}
	v.length = newLen
	return nil
}

// Dup use to copy an identical vector.  Strong guarantee: a failed
// element clone releases the clones already made and leaves the
// receiver untouched.
func (v *Vector[T]) Dup(mp *mpool.MPool) (*Vector[T], error) {
	nd, err := rawmem.New[T](mp, v.length)
	if err != nil {
		return nil, err
	}
	for i := 0; i < v.length; i++ {
		val, err := v.cloneValue(*v.data.Slot(i))
		if err != nil {
			v.destroySlots(nd.Slice(0, i))
			nd.Free()
			return nil, err
		}
		*nd.Slot(i) = val
	}
	w := &Vector[T]{
		data:       nd,
		length:     v.length,
		canClone:   v.canClone,
		canRelease: v.canRelease,
	}
	return w, nil
}

// CopyFrom makes the receiver an element-wise copy of rhs.  When rhs
// does not fit the current capacity the copy is built aside and
// swapped in (strong guarantee).  When it fits, the copy happens in
// place over the existing elements and a failed clone may leave a mix
// of old and new values; the vector stays valid (basic guarantee).
func (v *Vector[T]) CopyFrom(rhs *Vector[T], mp *mpool.MPool) error {
	if v == rhs {
		return nil
	}
	if rhs.length > v.data.Capacity() {
		tmp, err := rhs.Dup(mp)
		if err != nil {
			return err
		}
		v.Swap(tmp)
		tmp.Free()
		return nil
	}
	if v.length > rhs.length {
		v.destroySlots(v.data.Slice(rhs.length, v.length))
		v.length = rhs.length
	}
	// copy-assign over the overlapping prefix
	for i := 0; i < v.length; i++ {
		val, err := v.cloneValue(*rhs.data.Slot(i))
		if err != nil {
			return err
		}
		v.releaseValue(*v.data.Slot(i))
		*v.data.Slot(i) = val
	}
	// copy-construct the tail into dead slots
	for i := v.length; i < rhs.length; i++ {
		val, err := v.cloneValue(*rhs.data.Slot(i))
		if err != nil {
			return err
		}
		*v.data.Slot(i) = val
		v.length = i + 1
	}
	return nil
}

// TakeFrom destroys the receiver's elements and steals rhs's storage
// and length wholesale.  rhs is left empty with zero capacity.  Never
// fails.
func (v *Vector[T]) TakeFrom(rhs *Vector[T]) {
	if v == rhs {
		return
	}
	v.destroySlots(v.data.Slice(0, v.length))
	v.data.TakeFrom(&rhs.data)
	v.length = rhs.length
	rhs.length = 0
}

// Swap exchanges contents in constant time.  Never fails.
func (v *Vector[T]) Swap(rhs *Vector[T]) {
	v.data.Swap(&rhs.data)
	v.length, rhs.length = rhs.length, v.length
}

// Free destroys all live elements and returns the block to its pool.
// Idempotent.
func (v *Vector[T]) Free() {
	v.destroySlots(v.data.Slice(0, v.length))
	v.length = 0
	v.data.Free()
}

func (v *Vector[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < v.length; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v", *v.data.Slot(i))
	}
	sb.WriteByte(']')
	return sb.String()
}
