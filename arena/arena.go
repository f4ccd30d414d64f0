// Package arena implements a brk-style, fixed-capacity byte region that
// stands in for the sbrk-backed heap region a real allocator would extend.
//
// It is an external collaborator the allocator core never reaches into
// directly: the core only ever reaches it through the Arena interface
// (Extend, Size and Bytes, plus Reset from the package-level Reset).
package arena

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultCapacity is the maximum size a Region grows to, mirroring the
// 8 MiB MAX_HEAP cap used by the original sbrk-model memlib.
const DefaultCapacity = 8 * 1024 * 1024

// DefaultPageSize is the advisory page-size hint returned by PageSize when
// no host page size can be determined.
const DefaultPageSize = 4096

// ErrNegativeExtend is returned by Extend when asked to grow by a negative
// byte count.
var ErrNegativeExtend = errors.New("arena: extend requested a negative byte count")

// ErrCapacityExceeded is returned by Extend when growth would exceed the
// region's fixed capacity.
var ErrCapacityExceeded = errors.New("arena: extend would exceed the region's capacity")

// Arena is the byte-arena provider interface consumed by the allocator
// core. It is the Go analogue of the memlib.h contract: a monotone,
// brk-style extender plus bounds queries.
type Arena interface {
	// Extend grows the region by n bytes and returns the previous high
	// water mark (the "old break"). n must be non-negative; growth past
	// the region's capacity fails.
	Extend(n int32) (uintptr, error)

	// Lo returns the address of the first byte of the region.
	Lo() uintptr

	// Hi returns the address of the last valid byte of the region.
	Hi() uintptr

	// Size returns the number of bytes currently grown into the region.
	Size() uintptr

	// PageSize returns the advisory page-size hint.
	PageSize() uintptr

	// Bytes returns the live backing slice for the grown portion of the
	// region. The allocator core addresses every header, footer, and
	// free-list link through this slice at an explicit offset; it never
	// holds on to the slice across a call that might grow the region,
	// since growth can only append, not reallocate, but a fresh Bytes()
	// call after growth always reflects the new length.
	Bytes() []byte

	// Reset deinitializes and reinitializes the backing buffer, so a test
	// harness can cycle through fresh Init calls without allocating a new
	// Region.
	Reset()
}

// Region is the default Arena implementation: a single fixed-capacity byte
// slice, grown monotonically from offset 0 up to Capacity.
type Region struct {
	mu       sync.Mutex
	buf      []byte
	brk      int
	capacity int
	pageSize uintptr
	logger   *zap.Logger
}

// Option configures a Region at construction.
type Option func(*Region)

// WithCapacity overrides the region's maximum size. The default is
// DefaultCapacity (8 MiB); tests commonly shrink this so growth failures
// are reachable without allocating the full 8 MiB.
func WithCapacity(bytes int) Option {
	return func(r *Region) {
		if bytes > 0 {
			r.capacity = bytes
		}
	}
}

// WithPageSize overrides the advisory page-size hint.
func WithPageSize(bytes uintptr) Option {
	return func(r *Region) {
		if bytes > 0 {
			r.pageSize = bytes
		}
	}
}

// WithLogger attaches a zap logger used for growth diagnostics. The
// default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Region) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegion allocates a new fixed-capacity backing buffer and returns it
// ready to be grown via Extend.
func NewRegion(opts ...Option) *Region {
	r := &Region{
		capacity: DefaultCapacity,
		pageSize: hostPageSize(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.buf = make([]byte, r.capacity)
	return r
}

// Extend implements Arena.
func (r *Region) Extend(n int32) (uintptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n < 0 {
		return 0, errors.Wrapf(ErrNegativeExtend, "requested %d bytes", n)
	}

	old := r.brk
	next := r.brk + int(n)
	if next > r.capacity {
		return 0, errors.Wrapf(ErrCapacityExceeded, "brk=%d + %d > capacity=%d", r.brk, n, r.capacity)
	}

	r.brk = next
	r.logger.Debug("arena extended",
		zap.Int("old_brk", old),
		zap.Int32("requested", n),
		zap.Int("new_brk", r.brk),
		zap.Int("capacity", r.capacity),
	)
	return r.addrOf(old), nil
}

// Lo implements Arena.
func (r *Region) Lo() uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addrOf(0)
}

// Hi implements Arena.
func (r *Region) Hi() uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.brk == 0 {
		return r.addrOf(0)
	}
	return r.addrOf(r.brk - 1)
}

// Size implements Arena.
func (r *Region) Size() uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uintptr(r.brk)
}

// PageSize implements Arena.
func (r *Region) PageSize() uintptr {
	return r.pageSize
}

// Bytes implements Arena.
func (r *Region) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf[:r.brk]
}

// Reset implements Arena.
func (r *Region) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brk = 0
	for i := range r.buf {
		r.buf[i] = 0
	}
}

// Capacity returns the region's fixed maximum size.
func (r *Region) Capacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

// addrOf returns the base-relative "address" for a given offset. The
// region does not deal in real process addresses (its backing array is
// ordinary Go-managed memory); addresses are base address zero plus
// offset, so Lo()/Hi()/Extend's returned value are consistent with each
// other and can be turned back into slice offsets by subtracting Lo().
func (r *Region) addrOf(offset int) uintptr {
	return uintptr(offset)
}

func hostPageSize() uintptr {
	if sz := os.Getpagesize(); sz > 0 {
		return uintptr(sz)
	}
	return DefaultPageSize
}
