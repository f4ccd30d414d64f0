package balloc

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Check walks the full heap and free list, validating header/footer
// agreement, the prologue and epilogue shape, block-size and bounds
// sanity, the no-two-adjacent-free-blocks rule, free-list link
// consistency, and that the free list and a plain heap walk agree on
// exactly which blocks are free. It returns nil when the heap is
// consistent, and the first violation it finds (wrapped with ErrCorrupt
// so callers can match it with errors.Is) otherwise.
//
// This stops at the first violation rather than aggregating every one,
// since a single corrupt block usually makes every subsequent check
// meaningless: a bad size field, for instance, sends the next walk step
// off into unrelated bytes.
func (a *Allocator) Check() error {
	if !a.initialized {
		return ErrNotInitialized
	}

	buf := a.arena.Bytes()
	freeByWalk := make(map[uintptr]bool)

	for bp := a.heapAnchor; ; bp = nextBlockPointer(buf, bp) {
		size := sizeOf(buf, bp)

		if bp != a.heapAnchor && size == 0 {
			// Reached the epilogue: a header-only sentinel block, with no
			// footer. footerOffset(bp) on a zero-size block would read
			// bp-8, the PREVIOUS block's footer, so the header==footer
			// check below must not run against it; check and stop here
			// instead.
			if !isAllocated(buf, bp) {
				return a.corrupt("epilogue at %d is not marked allocated", bp)
			}
			if headerOffset(bp)+wordSize != a.arena.Size() {
				return a.corrupt("epilogue at %d is not at the arena high-water mark (size=%d)", bp, a.arena.Size())
			}
			break
		}

		hdr := getWord(buf, headerOffset(bp))
		ftr := getWord(buf, footerOffset(buf, bp))
		if hdr != ftr {
			return a.corrupt("header != footer at block %d (header=%#x footer=%#x)", bp, hdr, ftr)
		}

		if bp == a.heapAnchor {
			if size != doubleWordSize || !isAllocated(buf, bp) {
				return a.corrupt("prologue at %d is not an 8-byte allocated block", bp)
			}
		} else if size%doubleWordSize != 0 {
			return a.corrupt("block at %d has size %d, not a positive multiple of %d", bp, size, doubleWordSize)
		}

		if bp+uintptr(size) > a.arena.Size()+wordSize {
			return a.corrupt("block at %d extends outside the arena bounds", bp)
		}

		if !isAllocated(buf, bp) {
			freeByWalk[bp] = true

			next := nextBlockPointer(buf, bp)
			if !isAllocated(buf, next) && sizeOf(buf, next) != 0 {
				return a.corrupt("adjacent free blocks at %d and %d (coalescing invariant violated)", bp, next)
			}
		}
	}

	freeByList := make(map[uintptr]bool)
	for bp := a.freeHead; bp != nullAddr; bp = getNext(buf, bp) {
		if isAllocated(buf, bp) {
			return a.corrupt("block %d is in the free list but marked allocated", bp)
		}

		prev := getPrev(buf, bp)
		if bp == a.freeHead && prev != nullAddr {
			return a.corrupt("free-list head %d has a non-null prev", bp)
		}
		if prev != nullAddr && getNext(buf, prev) != bp {
			return a.corrupt("free-list link broken: next(prev(%d)) != %d", bp, bp)
		}
		next := getNext(buf, bp)
		if next != nullAddr && getPrev(buf, next) != bp {
			return a.corrupt("free-list link broken: prev(next(%d)) != %d", bp, bp)
		}

		freeByList[bp] = true
	}

	if len(freeByList) != len(freeByWalk) {
		a.logger.Warn("check: free-list/heap-walk set sizes differ",
			zap.Int("free_list", len(freeByList)),
			zap.Int("heap_walk", len(freeByWalk)),
		)
		return a.corrupt("free list and heap walk disagree on the set of free blocks")
	}
	for bp := range freeByWalk {
		if !freeByList[bp] {
			return a.corrupt("block %d is free on the heap walk but absent from the free list", bp)
		}
	}

	return nil
}

// corrupt logs and wraps a single Check violation.
func (a *Allocator) corrupt(format string, args ...interface{}) error {
	err := errors.Mark(errors.Newf(format, args...), ErrCorrupt)
	a.logger.Warn("check: heap consistency violation", zap.Error(err))
	return err
}
