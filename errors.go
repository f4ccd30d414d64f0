package balloc

import "github.com/cockroachdb/errors"

// ErrArenaExhausted is the sentinel matched via errors.Is when the arena
// extender refuses to grow the heap any further. It surfaces as the error
// returned by Init and as a nil pointer from Malloc/Realloc.
var ErrArenaExhausted = errors.New("balloc: arena exhausted")

// ErrNotInitialized is returned by Check when it is called before Init
// succeeds. Malloc, Free and Realloc do not check for it.
var ErrNotInitialized = errors.New("balloc: allocator not initialized")

// ErrAlreadyInitialized is returned by a second call to Init without an
// intervening arena Reset.
var ErrAlreadyInitialized = errors.New("balloc: allocator already initialized")

// ErrCorrupt is the sentinel wrapped around the first heap-consistency
// violation Check finds.
var ErrCorrupt = errors.New("balloc: heap consistency check failed")

// markArenaExhausted wraps err with context while preserving errors.Is
// matching against ErrArenaExhausted.
func markArenaExhausted(err error, context string) error {
	return errors.Mark(errors.Wrap(err, context), ErrArenaExhausted)
}
