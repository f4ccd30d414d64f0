package balloc

import "encoding/binary"

// Word and alignment constants, named after their roles in the
// boundary-tag layout.
const (
	wordSize       = 4  // WSIZE: one boundary-tag word
	doubleWordSize = 8  // DSIZE: header + footer, and the alignment granule
	chunkSize      = 4096 // CHUNKSIZE: default heap-extension size in bytes

	// linkSize is the width used to encode a free-list next/prev link.
	// Offsets are always encoded as 8 bytes regardless of host pointer
	// width, so the on-arena format does not depend on GOARCH.
	linkSize = 8

	// minBlockSize is the smallest block that can hold a header, footer,
	// and both free-list links: 4 + 4 + 8 + 8 = 24 bytes. This is the
	// split threshold place() uses, never the allocation-size floor
	// (adjust() may still produce a 16-byte allocated block; see
	// adjust's doc comment).
	minBlockSize = doubleWordSize + 2*linkSize

	allocBit = uint32(0x1)
	sizeMask = ^uint32(0x7)
)

// pack combines a block size and an allocated flag into a single
// boundary-tag word, the Go equivalent of the PACK(size, alloc) macro.
func pack(size uint32, allocated bool) uint32 {
	if allocated {
		return size | allocBit
	}
	return size
}

// blockSize extracts the size field from a boundary-tag word.
func blockSize(word uint32) uint32 {
	return word & sizeMask
}

// blockAllocated extracts the allocated flag from a boundary-tag word.
func blockAllocated(word uint32) bool {
	return word&allocBit != 0
}

// getWord and putWord are the sole points where this package touches the
// arena's byte slice directly; every other helper is built on top of
// them. They replace the original *(unsigned int *)(p) casts with a
// bounds-checked, offset-addressed read/write: a block is identified by
// an arena-relative offset, never by a live Go pointer.
func getWord(buf []byte, offset uintptr) uint32 {
	return binary.LittleEndian.Uint32(buf[offset : offset+wordSize])
}

func putWord(buf []byte, offset uintptr, value uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+wordSize], value)
}

// headerOffset returns the address of bp's header word: HDRP(bp).
func headerOffset(bp uintptr) uintptr {
	return bp - wordSize
}

// footerOffset returns the address of bp's footer word: FTRP(bp). It
// reads bp's own header to learn the block's size.
func footerOffset(buf []byte, bp uintptr) uintptr {
	size := blockSize(getWord(buf, headerOffset(bp)))
	return bp + uintptr(size) - doubleWordSize
}

// sizeOf returns the size recorded in bp's header.
func sizeOf(buf []byte, bp uintptr) uint32 {
	return blockSize(getWord(buf, headerOffset(bp)))
}

// isAllocated reports whether bp's header marks it allocated.
func isAllocated(buf []byte, bp uintptr) bool {
	return blockAllocated(getWord(buf, headerOffset(bp)))
}

// setHeaderFooter writes identical (size|alloc) words to both bp's
// header and footer, keeping the two boundary tags in sync.
func setHeaderFooter(buf []byte, bp uintptr, size uint32, allocated bool) {
	word := pack(size, allocated)
	putWord(buf, headerOffset(bp), word)
	putWord(buf, bp+uintptr(size)-doubleWordSize, word)
}

// nextBlockPointer returns the payload pointer of bp's physical
// successor: NEXT_BLKP(bp).
func nextBlockPointer(buf []byte, bp uintptr) uintptr {
	return bp + uintptr(sizeOf(buf, bp))
}

// prevBlockPointer returns the payload pointer of bp's physical
// predecessor: PREV_BLKP(bp). It reads the predecessor's footer, which
// is the wordSize bytes immediately before bp's header (at bp-doubleWordSize).
//
// Callers that also intend to write to bp's own footer (e.g. during
// coalescing) must call this before performing that write: the read
// here depends on bytes that a footer rewrite of bp would not disturb,
// but the size computed from THIS read must be captured before any
// write that could change neighbor sizes out from under a second call.
func prevBlockPointer(buf []byte, bp uintptr) uintptr {
	prevFooter := bp - doubleWordSize
	prevSize := blockSize(getWord(buf, prevFooter))
	return bp - uintptr(prevSize)
}
