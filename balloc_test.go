package balloc

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// --- concrete scenarios -------------------------------------------------

func TestScenario1_SingleAllocation(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	p := a.Malloc(8)
	require.NotNil(t, p)
	require.True(t, isAligned8(p))

	writeBytes(p, []byte{0x2A, 0, 0, 0})
	require.Equal(t, byte(0x2A), readBytes(p, 4)[0])
}

func TestScenario2_TenSmallAllocationsNoOverwrite(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	const n = 10
	ptrs := make([]unsafe.Pointer, n)
	for i := 0; i < n; i++ {
		ptrs[i] = a.Malloc(8)
		require.NotNil(t, ptrs[i])
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(i*100))
		writeBytes(ptrs[i], buf[:])
	}

	for i := 0; i < n; i++ {
		got := binary.LittleEndian.Uint32(readBytes(ptrs[i], 4))
		require.EqualValues(t, i*100, got)
	}
}

func TestScenario3_RangeOfSizesNoOverwrite(t *testing.T) {
	a := newTestAllocator(t, 4<<20)

	sizes := []uintptr{1, 8, 16, 32, 64, 128, 256, 512, 1024}
	ptrs := make([]unsafe.Pointer, len(sizes))

	for idx, sz := range sizes {
		p := a.Malloc(sz)
		require.NotNil(t, p)
		ptrs[idx] = p
		writeBytes(p, bytesOf(byte(idx), int(sz)))
	}

	for idx, sz := range sizes {
		got := readBytes(ptrs[idx], int(sz))
		require.Equal(t, bytesOf(byte(idx), int(sz)), got)
	}
}

func TestScenario4_LargeAllocationSentinels(t *testing.T) {
	a := newTestAllocator(t, 8<<20)

	const size = 1048576
	p := a.Malloc(size)
	require.NotNil(t, p)

	writeAt(p, 0, 0x11)
	writeAt(p, 4000, 0x22)
	writeAt(p, size-4, 0x33)

	require.Equal(t, byte(0x11), readAt(p, 0))
	require.Equal(t, byte(0x22), readAt(p, 4000))
	require.Equal(t, byte(0x33), readAt(p, size-4))
}

func TestScenario5_MallocZeroReturnsNil(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	require.Nil(t, a.Malloc(0))
}

func TestScenario6_HundredAllocationsPairedWrites(t *testing.T) {
	a := newTestAllocator(t, 4<<20)

	const n = 100
	ptrs := make([]unsafe.Pointer, n)
	for i := 0; i < n; i++ {
		ptrs[i] = a.Malloc(32)
		require.NotNil(t, ptrs[i])
		var buf [8]byte
		binary.LittleEndian.PutUint32(buf[0:4], uint32(i))
		binary.LittleEndian.PutUint32(buf[4:8], uint32(2*i))
		writeBytes(ptrs[i], buf[:])
	}

	for i := 0; i < n; i++ {
		got := readBytes(ptrs[i], 8)
		require.EqualValues(t, i, binary.LittleEndian.Uint32(got[0:4]))
		require.EqualValues(t, 2*i, binary.LittleEndian.Uint32(got[4:8]))
	}
}

func TestScenario7_MultiMegabyteAllocationSentinels(t *testing.T) {
	a := newTestAllocator(t, 8<<20)

	const size = 4194304
	p := a.Malloc(size)
	require.NotNil(t, p)

	writeAt(p, 0, 0xAA)
	writeAt(p, size/2, 0xBB)
	writeAt(p, size-8, 0xCC)

	require.Equal(t, byte(0xAA), readAt(p, 0))
	require.Equal(t, byte(0xBB), readAt(p, size/2))
	require.Equal(t, byte(0xCC), readAt(p, size-8))
}

func TestScenario8_LIFOFirstFitReusesFreedBlock(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	ptrA := a.Malloc(64)
	ptrB := a.Malloc(64)
	ptrC := a.Malloc(64)
	require.NotNil(t, ptrA)
	require.NotNil(t, ptrB)
	require.NotNil(t, ptrC)

	a.Free(ptrB)
	ptrD := a.Malloc(64)

	require.Equal(t, ptrB, ptrD, "LIFO first-fit must reuse the just-freed block")
}

func TestScenario9_FreeingTwoAdjacentBlocksMergesToOne(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	ptrA := a.Malloc(64)
	ptrB := a.Malloc(64)
	require.NotNil(t, ptrA)
	require.NotNil(t, ptrB)

	a.Free(ptrA)
	a.Free(ptrB)

	buf := a.arena.Bytes()
	count := 0
	for bp := a.heapAnchor; ; bp = nextBlockPointer(buf, bp) {
		if bp == a.heapAnchor {
			continue
		}
		sz := sizeOf(buf, bp)
		if sz == 0 {
			break
		}
		if !isAllocated(buf, bp) {
			count++
		}
	}
	require.Equal(t, 1, count, "exactly one free block must exist after merging two adjacent frees")
	require.NotEqual(t, uintptr(0), a.freeHead)

	headSize := sizeOf(buf, a.freeHead)
	aSize := adjust(64)
	require.Equal(t, 2*aSize+tailSize, headSize, "merged block must equal the sum of the two freed blocks and the free block after them")
}

// --- universal property tests --------------------------------------------

func TestProperty_AllocationsAreAlwaysAligned(t *testing.T) {
	a := newTestAllocator(t, 4<<20)

	for _, sz := range []uintptr{1, 2, 3, 7, 8, 9, 15, 16, 17, 100, 4095, 4096, 4097} {
		p := a.Malloc(sz)
		require.NotNil(t, p)
		require.True(t, isAligned8(p), "size %d produced a misaligned pointer", sz)
	}
}

func TestProperty_DataIntegrityAcrossUnrelatedActivity(t *testing.T) {
	a := newTestAllocator(t, 4<<20)

	p := a.Malloc(128)
	require.NotNil(t, p)
	pattern := bytesOf(0x5A, 128)
	writeBytes(p, pattern)

	// Unrelated allocation/free churn that must not disturb p.
	for i := 0; i < 50; i++ {
		q := a.Malloc(uintptr(16 + i%64))
		require.NotNil(t, q)
		if i%3 == 0 {
			a.Free(q)
		}
	}

	require.Equal(t, pattern, readBytes(p, 128))
}

func TestProperty_HeaderEqualsFooterAfterEveryOperation(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	ptrs := make([]unsafe.Pointer, 0, 20)
	for i := 0; i < 20; i++ {
		ptrs = append(ptrs, a.Malloc(uintptr(16+8*i)))
	}
	for i := 0; i < len(ptrs); i += 2 {
		a.Free(ptrs[i])
	}

	buf := a.arena.Bytes()
	for bp := a.heapAnchor; ; bp = nextBlockPointer(buf, bp) {
		hdr := getWord(buf, headerOffset(bp))
		size := blockSize(hdr)
		if bp != a.heapAnchor && size == 0 {
			break
		}
		ftr := getWord(buf, footerOffset(buf, bp))
		require.Equal(t, hdr, ftr, "header/footer mismatch at block %d", bp)
	}
}

func TestProperty_NoTwoAdjacentFreeBlocksAfterFree(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	p1 := a.Malloc(48)
	p2 := a.Malloc(48)
	p3 := a.Malloc(48)
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	require.NotNil(t, p3)

	a.Free(p1)
	a.Free(p2)
	a.Free(p3)

	buf := a.arena.Bytes()
	prevFree := false
	for bp := a.heapAnchor; ; bp = nextBlockPointer(buf, bp) {
		size := sizeOf(buf, bp)
		if bp != a.heapAnchor && size == 0 {
			break
		}
		free := !isAllocated(buf, bp)
		require.False(t, free && prevFree, "two adjacent free blocks found at/after %d", bp)
		prevFree = free
	}
}

func TestProperty_FreeListMatchesHeapWalk(t *testing.T) {
	a := newTestAllocator(t, 2<<20)

	var held []unsafe.Pointer
	for i := 0; i < 30; i++ {
		held = append(held, a.Malloc(uintptr(24+16*(i%7))))
	}
	for i := 0; i < len(held); i += 2 {
		a.Free(held[i])
	}

	require.NoError(t, a.Check())
}

func TestProperty_ReallocPreservesLeadingBytes(t *testing.T) {
	a := newTestAllocator(t, 1<<20)

	p := a.Malloc(16)
	require.NotNil(t, p)
	writeBytes(p, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	q := a.Realloc(p, 64)
	require.NotNil(t, q)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, readBytes(q, 8))
}

func TestProperty_NonOverlappingLiveAllocations(t *testing.T) {
	a := newTestAllocator(t, 4<<20)

	type span struct {
		start, end uintptr
	}
	var spans []span
	for i := 0; i < 40; i++ {
		sz := uintptr(8 + 8*(i%11))
		p := a.Malloc(sz)
		require.NotNil(t, p)
		start := uintptr(p)
		spans = append(spans, span{start, start + sz})
	}

	for i := range spans {
		for j := range spans {
			if i == j {
				continue
			}
			overlap := spans[i].start < spans[j].end && spans[j].start < spans[i].end
			require.False(t, overlap, "live allocations %d and %d overlap", i, j)
		}
	}
}

// --- edge cases ---------------------------------------------------------

func TestFreeNilIsNoop(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	a.Free(nil) // must not panic
	require.NoError(t, a.Check())
}

func TestReallocNilDispatchesToMalloc(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	p := a.Realloc(nil, 32)
	require.NotNil(t, p)
}

func TestReallocZeroDispatchesToFree(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	p := a.Malloc(32)
	require.NotNil(t, p)

	q := a.Realloc(p, 0)
	require.Nil(t, q)
	require.NoError(t, a.Check())
}

func TestInitTwiceWithoutResetFails(t *testing.T) {
	a := newTestAllocator(t, 1<<20)
	require.ErrorIs(t, a.Init(), ErrAlreadyInitialized)
}

func TestArenaExhaustionReturnsNilNotPanic(t *testing.T) {
	a := newTestAllocator(t, 8192)

	var last unsafe.Pointer
	for i := 0; i < 1000; i++ {
		p := a.Malloc(64)
		if p == nil {
			break
		}
		last = p
	}
	require.NotNil(t, last, "at least one allocation should have succeeded before exhaustion")
}

// --- helpers -------------------------------------------------------------

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func writeAt(p unsafe.Pointer, offset int, b byte) {
	(*(*[1]byte)(unsafe.Add(p, offset)))[0] = b
}

func readAt(p unsafe.Pointer, offset int) byte {
	return (*(*[1]byte)(unsafe.Add(p, offset)))[0]
}
