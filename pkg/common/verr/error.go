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

package verr

import (
	"fmt"
)

const (
	// 0 - 99 is OK.  Not errors, special handled with static instances.
	Ok uint16 = 0

	OkMax uint16 = 99

	// Group 1: internal errors
	ErrInternal uint16 = 20101
	ErrOOM      uint16 = 20103

	// Group 2: invalid calls
	ErrInvalidArg      uint16 = 20201
	ErrIndexOutOfRange uint16 = 20202
	ErrEmptyVector     uint16 = 20203

	// Group End: max value of the error code space
	ErrEnd uint16 = 65535
)

var errorMsgRefer = map[uint16]string{
	ErrInternal:        "internal error: %s",
	ErrOOM:             "out of memory: pool %s needs %d bytes, cap %d",
	ErrInvalidArg:      "invalid argument %s: %v",
	ErrIndexOutOfRange: "index %d out of range [0, %d)",
	ErrEmptyVector:     "empty vector",
}

// Error is the error type of this module.  It carries a stable error
// code so that callers can test failure classes without string matching.
type Error struct {
	code    uint16
	message string
}

func newError(code uint16, args ...any) *Error {
	format, has := errorMsgRefer[code]
	if !has {
		panic(fmt.Sprintf("not exist error code: %d", code))
	}
	if len(args) == 0 {
		return &Error{code: code, message: format}
	}
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Succeeded() bool {
	return e.code < OkMax
}

// Is supports errors.Is matching on the error code, so that
// errors.Is(err, verr.NewOOM(...)) works regardless of message detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}

// IsErrCode tests err against an error code.  nil matches Ok.
func IsErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}
	me, ok := e.(*Error)
	if !ok {
		return false
	}
	return me.code == rc
}

// ConvertPanicError converts a runtime panic to an internal error.
func ConvertPanicError(v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return newError(ErrInternal, fmt.Sprintf("panic %v", v))
}

func NewInternal(msg string, args ...any) *Error {
	return newError(ErrInternal, fmt.Sprintf(msg, args...))
}

func NewOOM(pool string, need, cap int64) *Error {
	return newError(ErrOOM, pool, need, cap)
}

func NewInvalidArg(arg string, val any) *Error {
	return newError(ErrInvalidArg, arg, val)
}

func NewIndexOutOfRange(idx, length int) *Error {
	return newError(ErrIndexOutOfRange, idx, length)
}

func NewEmptyVector() *Error {
	return newError(ErrEmptyVector)
}
