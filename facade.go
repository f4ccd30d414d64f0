package balloc

import (
	"unsafe"

	"github.com/SuperiorPython/operating-systems-spring-2026-project-2-memory-allocation-checkpoint-memory-allocator-template/arena"
)

// defaultAllocator is the process-static instance the package-level
// Init/Malloc/Free/Realloc/Check functions wrap. A drop-in malloc
// replacement ultimately needs exactly one such global instance to
// forward to; this is that instance.
//
// Like the rest of this package, the façade performs no internal
// locking: it assumes a single-threaded caller, or one that serializes
// access externally.
var defaultAllocator = New(arena.NewRegion())

// Init initializes the process-static allocator. See Allocator.Init.
func Init() error {
	return defaultAllocator.Init()
}

// Malloc allocates from the process-static allocator. See
// Allocator.Malloc.
func Malloc(size uintptr) unsafe.Pointer {
	return defaultAllocator.Malloc(size)
}

// Free releases a block from the process-static allocator. See
// Allocator.Free.
func Free(p unsafe.Pointer) {
	defaultAllocator.Free(p)
}

// Realloc resizes a block from the process-static allocator. See
// Allocator.Realloc.
func Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	return defaultAllocator.Realloc(p, size)
}

// Check validates the process-static allocator's heap. See
// Allocator.Check.
func Check() error {
	return defaultAllocator.Check()
}

// Reset tears down and reinitializes the process-static allocator's
// backing arena, for test harnesses that need a fresh heap between
// cases without restarting the process.
func Reset() {
	defaultAllocator.arena.Reset()
	defaultAllocator.heapAnchor = nullAddr
	defaultAllocator.freeHead = nullAddr
	defaultAllocator.initialized = false
}
