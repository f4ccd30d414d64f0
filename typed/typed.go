// Package typed adds generic, typed convenience wrappers on top of the
// untyped balloc.Allocator. It introduces no new allocation policy: every
// function here is a thin unsafe.Pointer/unsafe.Slice cast over a single
// Malloc/Free call.
package typed

import (
	"unsafe"

	"golang.org/x/exp/constraints"

	balloc "github.com/SuperiorPython/operating-systems-spring-2026-project-2-memory-allocation-checkpoint-memory-allocator-template"
)

// sizeofT returns the size, in bytes, of one T.
func sizeofT[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// New allocates space for one T from a and returns a pointer to it. The
// memory is not zeroed, matching balloc.Allocator.Malloc's contract.
//
// New returns nil under exactly the conditions Malloc would: arena
// exhaustion, or a zero-size request, which is what a zero-sized T such
// as struct{} produces.
func New[T any](a *balloc.Allocator) *T {
	p := a.Malloc(sizeofT[T]())
	if p == nil {
		return nil
	}
	return (*T)(p)
}

// Free releases a value previously obtained from New.
func Free[T any](a *balloc.Allocator, p *T) {
	if p == nil {
		return
	}
	a.Free(unsafe.Pointer(p))
}

// NewSlice returns a new slice of the requested type and length, backed
// by memory allocated from a. length must be non-negative.
//
// Growing the returned slice past its length with append will, once Go's
// slice-growth rules kick in, silently convert it to ordinary
// heap-allocated memory; the original arena-backed storage is not freed
// automatically when that happens, so the caller must still call
// FreeSlice on the original slice value returned here, not a grown copy.
func NewSlice[T any, N constraints.Integer](a *balloc.Allocator, length N) []T {
	if length < 0 {
		panic("typed.NewSlice: negative length")
	}
	if length == 0 {
		return []T{}
	}

	p := a.Malloc(sizeofT[T]() * uintptr(length))
	if p == nil {
		return nil
	}

	return unsafe.Slice((*T)(p), int(length))
}

// FreeSlice releases a slice previously obtained from NewSlice.
func FreeSlice[T any](a *balloc.Allocator, s []T) {
	if len(s) == 0 {
		return
	}
	a.Free(unsafe.Pointer(&s[0]))
}
