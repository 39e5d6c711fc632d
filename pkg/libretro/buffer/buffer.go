// Package buffer wraps raw memory handed over by a loaded core into
// typed, read-only, non-owning views.
package buffer

import (
	"errors"
	"unsafe"
)

var (
	// ErrReleased is returned when a view is read after the native call
	// that produced it has returned.
	ErrReleased = errors.New("buffer: view is released")
	// ErrKind is returned when a typed accessor doesn't match the
	// element kind of the view.
	ErrKind = errors.New("buffer: element kind mismatch")
)

// Kind is the element type of a view.
type Kind uint8

const (
	Uint8 Kind = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
)

// Size returns the element size in bytes.
func (k Kind) Size() int {
	switch k {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32:
		return 4
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	}
	return "unknown"
}

// View is a read-only window into memory owned by foreign code.
// It holds no copy: the pointer stays valid only for the duration of
// the native call that produced the view. The producer releases the
// view when that call returns, after which every accessor fails with
// ErrReleased. Materialize is the only way to keep the data longer.
type View struct {
	ptr      unsafe.Pointer
	n        int
	kind     Kind
	released bool
}

// NewView wraps ptr as a view of n elements of the given kind.
// A nil ptr or non-positive n yields an empty view.
func NewView(ptr unsafe.Pointer, kind Kind, n int) *View {
	if ptr == nil || n <= 0 {
		return &View{kind: kind}
	}
	return &View{ptr: ptr, n: n, kind: kind}
}

// Kind returns the element type of the view.
func (v *View) Kind() Kind { return v.kind }

// Len returns the number of elements.
func (v *View) Len() int { return v.n }

// ByteLen returns the length of the viewed region in bytes.
func (v *View) ByteLen() int { return v.n * v.kind.Size() }

// Released reports whether the view's producing call has returned.
func (v *View) Released() bool { return v.released }

// Release invalidates the view. Producers call it when the native
// call that handed out the memory returns; afterwards the memory must
// be assumed gone.
func (v *View) Release() { v.released = true }

// Bytes reinterprets the whole viewed region as raw bytes without
// copying. The returned slice aliases core memory and must not be kept
// past the producing call.
func (v *View) Bytes() ([]byte, error) {
	if v.released {
		return nil, ErrReleased
	}
	if v.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*byte)(v.ptr), v.ByteLen()), nil
}

// Uint8s returns the elements as a zero-copy []uint8.
func (v *View) Uint8s() ([]uint8, error) {
	if err := v.check(Uint8); err != nil {
		return nil, err
	}
	if v.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*uint8)(v.ptr), v.n), nil
}

// Int8s returns the elements as a zero-copy []int8.
func (v *View) Int8s() ([]int8, error) {
	if err := v.check(Int8); err != nil {
		return nil, err
	}
	if v.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*int8)(v.ptr), v.n), nil
}

// Uint16s returns the elements as a zero-copy []uint16.
func (v *View) Uint16s() ([]uint16, error) {
	if err := v.check(Uint16); err != nil {
		return nil, err
	}
	if v.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*uint16)(v.ptr), v.n), nil
}

// Int16s returns the elements as a zero-copy []int16.
func (v *View) Int16s() ([]int16, error) {
	if err := v.check(Int16); err != nil {
		return nil, err
	}
	if v.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*int16)(v.ptr), v.n), nil
}

// Uint32s returns the elements as a zero-copy []uint32.
func (v *View) Uint32s() ([]uint32, error) {
	if err := v.check(Uint32); err != nil {
		return nil, err
	}
	if v.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*uint32)(v.ptr), v.n), nil
}

// Int32s returns the elements as a zero-copy []int32.
func (v *View) Int32s() ([]int32, error) {
	if err := v.check(Int32); err != nil {
		return nil, err
	}
	if v.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*int32)(v.ptr), v.n), nil
}

// Materialize copies the viewed region into an owned byte slice which
// the caller may keep past the producing call.
func (v *View) Materialize() ([]byte, error) {
	src, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	if src == nil {
		return []byte{}, nil
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

func (v *View) check(k Kind) error {
	if v.released {
		return ErrReleased
	}
	if v.kind != k {
		return ErrKind
	}
	return nil
}
