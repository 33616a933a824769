package dedupe

const defaultMaxSize = 50_000

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets how many submission IDs are remembered.
// If maxSize > 0 the oldest ID is forgotten once the limit is reached.
// If maxSize <= 0 the deduper is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
