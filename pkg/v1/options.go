package coastline

import (
	"io"
	"runtime"
)

// FetchOptions controls parallel chunk fetching and error handling.
type FetchOptions struct {
	// Parallel enables concurrent chunk fetching.
	Parallel bool

	// Workers specifies the number of parallel fetch goroutines.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// SkipErrors causes fetching to continue even when individual chunks
	// fail after retries. Failed chunks are dropped and their errors
	// collected. When false, the first chunk failure aborts the fetch.
	SkipErrors bool

	// Progress is an optional callback invoked after each chunk completes.
	// Parameters: (done, total) chunk counts.
	Progress func(done, total int)

	// ErrorLog is an optional writer for per-chunk error details.
	ErrorLog io.Writer
}

// DefaultFetchOptions returns fetch options with sensible defaults.
//
// SkipErrors defaults to false: a dropped chunk silently loses shoreline,
// so partial results must be opted into.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Parallel:   true,
		Workers:    runtime.NumCPU(),
		SkipErrors: false,
	}
}
