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

// Element lifecycle capabilities.  A plain T is moved and copied by
// assignment and destroyed by zeroing; both are infallible, so the
// only fallible transfer a Vector ever performs is duplication of a
// Cloner element.  Capabilities are detected once, when a Vector is
// created, from T's zero value: implement them on the element type
// itself, not on a wrapper.

// Cloner is implemented by element types whose duplication can fail
// or must run user code (deep copies, refcount bumps).  Clone is used
// by the copying operations, Dup and CopyFrom.  A value passed to
// Insert, Append or Set is not cloned: the caller hands over ownership.
type Cloner[T any] interface {
	Clone() (T, error)
}

// Releaser is implemented by element types that hold resources beyond
// GC-managed memory.  Release is called exactly once per live element
// when it is destroyed (erase of that element, pop, shrink, overwrite,
// vector Free, or rollback of a failed operation).  Release must not
// fail and must tolerate the element's zero value.
type Releaser interface {
	Release()
}

// moveSlots relocates live values from src into dst, zeroing the
// source slots so the values live in exactly one place.  Never fails.
func moveSlots[T any](dst, src []T) {
	var zt T
	for i := range src {
		dst[i] = src[i]
		src[i] = zt
	}
}

func (v *Vector[T]) cloneValue(val T) (T, error) {
	if v.canClone {
		return any(val).(Cloner[T]).Clone()
	}
	return val, nil
}

func (v *Vector[T]) releaseValue(val T) {
	if v.canRelease {
		any(val).(Releaser).Release()
	}
}

// destroySlots finalizes live values and zeroes their slots.
func (v *Vector[T]) destroySlots(s []T) {
	var zt T
	for i := range s {
		v.releaseValue(s[i])
		s[i] = zt
	}
}
