package balloc

import "encoding/binary"

// nullAddr represents the free list's nil terminator and the "no head"
// state. Offset 0 is the arena's padding word (see Allocator.Init),
// which is never a valid block payload pointer, so it doubles safely as
// the null sentinel, the same trick C gets for free from a real NULL.
const nullAddr uintptr = 0

// getNext and getPrev read the free-list link fields stored in a free
// block's payload: the first linkSize bytes hold next, the following
// linkSize bytes hold prev. Both are undefined for allocated blocks.
func getNext(buf []byte, bp uintptr) uintptr {
	return uintptr(binary.LittleEndian.Uint64(buf[bp : bp+linkSize]))
}

func setNext(buf []byte, bp uintptr, val uintptr) {
	binary.LittleEndian.PutUint64(buf[bp:bp+linkSize], uint64(val))
}

func getPrev(buf []byte, bp uintptr) uintptr {
	return uintptr(binary.LittleEndian.Uint64(buf[bp+linkSize : bp+2*linkSize]))
}

func setPrev(buf []byte, bp uintptr, val uintptr) {
	binary.LittleEndian.PutUint64(buf[bp+linkSize:bp+2*linkSize], uint64(val))
}

// addToFreeList inserts bp at the head of the free list (LIFO).
func (a *Allocator) addToFreeList(buf []byte, bp uintptr) {
	setNext(buf, bp, a.freeHead)
	setPrev(buf, bp, nullAddr)
	if a.freeHead != nullAddr {
		setPrev(buf, a.freeHead, bp)
	}
	a.freeHead = bp
}

// removeFromFreeList unlinks bp from the free list. After this call bp's
// link fields are undefined; callers must not read them again until bp
// is reinserted.
func (a *Allocator) removeFromFreeList(buf []byte, bp uintptr) {
	prev := getPrev(buf, bp)
	next := getNext(buf, bp)

	if prev == nullAddr {
		a.freeHead = next
	} else {
		setNext(buf, prev, next)
	}
	if next != nullAddr {
		setPrev(buf, next, prev)
	}
}
