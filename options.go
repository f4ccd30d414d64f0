package balloc

import "go.uber.org/zap"

// Option configures an Allocator at construction, following the usual
// functional-options shape.
type Option func(*Allocator)

// WithLogger attaches a zap logger used for heap-growth and
// consistency-check diagnostics. The default is a no-op logger, so
// logging costs nothing unless a caller opts in.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithChunkSize overrides the default heap-extension chunk size
// (CHUNKSIZE, 4096 bytes). The value is rounded up to an even multiple
// of the word size, same as any other extend_heap request.
func WithChunkSize(bytes int32) Option {
	return func(a *Allocator) {
		if bytes > 0 {
			a.chunkBytes = roundToEvenWords(bytes)
		}
	}
}
