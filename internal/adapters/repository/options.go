package repository

const defaultMaxSize = 50_000

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxSize bounds how many assessments are kept before the oldest is evicted.
func WithMaxSize(size int) Option {
	return func(s *MemoryStore) {
		if size > 0 {
			s.maxSize = size
		}
	}
}
