package balloc

import "go.uber.org/zap"

// roundWordsUpToEven rounds a word count up to the next even number, so
// the resulting byte count stays a multiple of doubleWordSize.
func roundWordsUpToEven(words int32) int32 {
	if words%2 != 0 {
		words++
	}
	return words
}

// roundToEvenWords rounds a byte count up to the nearest multiple of
// doubleWordSize, by converting to whole words, rounding those up to
// even, and converting back. Used to normalize a caller-supplied chunk
// size (see WithChunkSize).
func roundToEvenWords(bytes int32) int32 {
	words := bytes / wordSize
	if bytes%wordSize != 0 {
		words++
	}
	return roundWordsUpToEven(words) * wordSize
}

// extendHeap grows the arena by words (rounded up to an even count),
// formats the new region as one free block, rewrites the epilogue, and
// coalesces backward in case the block that used to sit at the old
// epilogue's position was free.
//
// extendHeap is the only producer of new blocks apart from splits in
// place().
func (a *Allocator) extendHeap(words int32) (uintptr, error) {
	evenWords := roundWordsUpToEven(words)
	size := uint32(evenWords) * wordSize

	addr, err := a.arena.Extend(int32(size))
	if err != nil {
		return nullAddr, err
	}

	bp := addr
	buf := a.arena.Bytes()

	setHeaderFooter(buf, bp, size, false)

	nextPayload := bp + uintptr(size)
	putWord(buf, headerOffset(nextPayload), pack(0, true))

	a.logger.Debug("heap extended",
		zap.Uint32("bytes", size),
		zap.Uintptr("block", bp),
	)

	return a.coalesce(buf, bp), nil
}
