/* This program is free software. It comes without any warranty, to
 * the extent permitted by applicable law. You can redistribute it
 * and/or modify it under the terms of the Do What The Fuck You Want
 * To Public License, Version 2, as published by Sam Hocevar. See
 * http://sam.zoy.org/wtfpl/COPYING for more details. */

// Package balloc implements a boundary-tag memory allocator over a
// fixed-size, contiguous, process-private byte arena.
//
// It provides the classic allocate/free/resize triad (Malloc, Free,
// Realloc) on top of a brk-style arena extender (see package arena), using
// an explicit doubly-linked free list with LIFO insertion, first-fit
// search, split-on-allocation, and immediate bidirectional coalescing,
// the same design as the K&R-style boundary-tag allocators this package
// is modeled on.
//
// The package is not goroutine-safe. A single Allocator owns exactly one
// arena and one free-list head; callers that need concurrent access must
// serialize calls to Init, Malloc, Free, Realloc, and Check externally.
package balloc
