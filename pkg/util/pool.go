package util

import "runtime"

// GetOptimalPoolSize returns the optimal pool size for CPU-bound tasks.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Reasoning:
//   - Minimum 4: Ensure some parallelism even on weak machines
//   - 2× CPU cores: file extraction alternates between parsing (I/O) and
//     AST walking (CPU), so a little oversubscription helps
//   - Maximum 32: scales for high-core machines while bounding memory
func GetOptimalPoolSize() int {
	cores := runtime.NumCPU()
	poolSize := cores * 2

	if poolSize < 4 {
		poolSize = 4
	}

	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (for testing/tuning).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
