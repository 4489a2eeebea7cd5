package metrics

// Shared histogram buckets.
var (
	// LatencyBuckets covers RPC calls and uploads (5ms .. ~40s).
	LatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40}

	// ConfirmationBuckets covers broadcast-to-receipt time (1s .. ~10m).
	ConfirmationBuckets = []float64{1, 2, 4, 8, 15, 30, 60, 120, 300, 600}

	// SizeBuckets covers payload sizes in bytes (1KiB .. 16MiB).
	SizeBuckets = []float64{1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20}
)
