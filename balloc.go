package balloc

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/SuperiorPython/operating-systems-spring-2026-project-2-memory-allocation-checkpoint-memory-allocator-template/arena"
)

// Allocator owns exactly one arena and one free-list head, encapsulating
// the global mutable state a C translation unit would otherwise keep as
// static variables (heap_listp, free_listp) behind a single struct.
type Allocator struct {
	arena arena.Arena

	// heapAnchor is the payload pointer of the permanent prologue block,
	// set once by Init and never moved.
	heapAnchor uintptr

	// freeHead is the payload pointer of the first free block, or
	// nullAddr if the free list is empty.
	freeHead uintptr

	// chunkBytes is the default heap-extension size (CHUNKSIZE),
	// overridable via WithChunkSize.
	chunkBytes int32

	logger      *zap.Logger
	initialized bool
}

// New constructs an Allocator over the given Arena. Init must be called
// once before any Malloc/Free/Realloc/Check call.
func New(a arena.Arena, opts ...Option) *Allocator {
	al := &Allocator{
		arena:      a,
		chunkBytes: chunkSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(al)
	}
	return al
}

// Init creates the initial heap: a permanently-allocated prologue block,
// a zero-size epilogue sentinel, and one real free block obtained by
// immediately extending the heap by one chunk.
//
// Init returns ErrAlreadyInitialized if called twice without the
// underlying arena being reset in between: a subsequent Init requires
// the arena to be reset first.
func (a *Allocator) Init() error {
	if a.initialized && a.arena.Size() != 0 {
		return ErrAlreadyInitialized
	}
	a.initialized = false

	base, err := a.arena.Extend(4 * wordSize)
	if err != nil {
		return markArenaExhausted(err, "initial prologue/epilogue extension")
	}

	buf := a.arena.Bytes()
	putWord(buf, base, 0)                                       // pad
	putWord(buf, base+wordSize, pack(doubleWordSize, true))     // prologue header
	putWord(buf, base+2*wordSize, pack(doubleWordSize, true))   // prologue footer
	putWord(buf, base+3*wordSize, pack(0, true))                // epilogue header

	a.heapAnchor = base + 2*wordSize
	a.freeHead = nullAddr

	if _, err := a.extendHeap(a.chunkBytes / wordSize); err != nil {
		return markArenaExhausted(err, "initial heap extension")
	}

	a.initialized = true
	return nil
}

// Malloc allocates a block with at least size bytes of usable payload.
// It returns nil for size == 0 and when the arena cannot satisfy the
// request.
func (a *Allocator) Malloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	asize := adjust(size)

	buf := a.arena.Bytes()
	if bp := a.findFit(buf, asize); bp != nullAddr {
		a.place(buf, bp, asize)
		return a.pointerAt(bp)
	}

	grow := asize
	if defaultChunk := uint32(a.chunkBytes); grow < defaultChunk {
		grow = defaultChunk
	}

	bp, err := a.extendHeap(int32(grow / wordSize))
	if err != nil {
		a.logger.Debug("malloc: extend_heap failed", zap.Uint32("requested", asize), zap.Error(err))
		return nil
	}

	buf = a.arena.Bytes()
	a.place(buf, bp, asize)
	return a.pointerAt(bp)
}

// Free releases the block at p. A nil p is a silent no-op.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	bp := a.offsetOf(p)
	buf := a.arena.Bytes()
	size := sizeOf(buf, bp)
	setHeaderFooter(buf, bp, size, false)
	a.coalesce(buf, bp)
}

// Realloc resizes the block at p to hold at least size bytes, preserving
// the leading min(size, original payload size) bytes of content.
//
// p == nil dispatches to Malloc; size == 0 dispatches to Free and
// returns nil. Otherwise this always copies into a freshly malloc'd
// block. In-place growth (reusing a following free block instead of
// copying) is a permitted optimization this implementation does not
// attempt.
func (a *Allocator) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	if p == nil {
		return a.Malloc(size)
	}
	if size == 0 {
		a.Free(p)
		return nil
	}

	newP := a.Malloc(size)
	if newP == nil {
		return nil
	}

	buf := a.arena.Bytes()
	oldBp := a.offsetOf(p)
	oldPayload := uintptr(sizeOf(buf, oldBp)) - doubleWordSize

	copySize := size
	if oldPayload < copySize {
		copySize = oldPayload
	}

	oldBytes := unsafe.Slice((*byte)(p), copySize)
	newBytes := unsafe.Slice((*byte)(newP), copySize)
	copy(newBytes, oldBytes)

	a.Free(p)
	return newP
}

// pointerAt converts an arena offset into the unsafe.Pointer handed back
// to callers. This, plus offsetOf, are the only two places this package
// crosses from offset-addressed bookkeeping into a real Go pointer.
func (a *Allocator) pointerAt(bp uintptr) unsafe.Pointer {
	buf := a.arena.Bytes()
	return unsafe.Pointer(&buf[bp])
}

// offsetOf converts a pointer previously returned by Malloc/Realloc back
// into its arena offset.
func (a *Allocator) offsetOf(p unsafe.Pointer) uintptr {
	buf := a.arena.Bytes()
	base := uintptr(unsafe.Pointer(&buf[0]))
	return uintptr(p) - base
}
