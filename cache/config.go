package cache

// Config holds tuning knobs for the day cache and its gap resolution.
type Config struct {
	// MergeTolerance is the largest run of already-cached days allowed
	// inside a single fetch range. Holes closer together than this are
	// fetched as one block instead of several small ones.
	MergeTolerance int
	// ChunkTolerance is the largest number of days a single fetch range may
	// span; longer ranges are split.
	ChunkTolerance int
	// MaxEntriesPerKind is the retention budget consulted by OverBudget.
	// The cache never evicts on its own; the caller prunes via
	// EvictOutsideWindow when the budget is exceeded.
	MaxEntriesPerKind int
}

// DefaultConfig provides sensible defaults for production use
var DefaultConfig = Config{
	MergeTolerance:    2,
	ChunkTolerance:    45,
	MaxEntriesPerKind: 5000,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = Config{
	MergeTolerance:    1,
	ChunkTolerance:    14,
	MaxEntriesPerKind: 500,
}

// HighCapacityConfig favors few large fetches and a large retained window
var HighCapacityConfig = Config{
	MergeTolerance:    4,
	ChunkTolerance:    92,
	MaxEntriesPerKind: 20000,
}
