// Package rocblas tuning constants
package rocblas

// Kernel tile dimensions
const (
	// gbmvDimX is the X tile dimension of the banded matvec kernel.
	// One output element is produced per X lane.
	gbmvDimX = 64

	// gbmvDimY is the Y tile dimension of the banded matvec kernel.
	// Partial sums along the band are strided by this many lanes.
	gbmvDimY = 16

	// asumNB is the block size of the absolute-sum reduction kernels.
	asumNB = 512

	// MaxThreadsPerBlock bounds the flattened block size accepted by Launch.
	MaxThreadsPerBlock = 1024
)

// Memory pool parameters
const (
	// MinAllocationSize prevents fragmentation from tiny requests.
	MinAllocationSize = 64

	// MemoryAlignment for pool allocations, matches a cache line.
	MemoryAlignment = 64

	// FreeListThreshold caps how many freed blocks are kept for reuse.
	FreeListThreshold = 100

	// DefaultDeviceMemorySize is the handle workspace budget when
	// ROCBLAS_DEVICE_MEMORY_SIZE is unset. Zero means unlimited.
	DefaultDeviceMemorySize = 0

	// defaultSystemMemory is reported when the platform offers no way
	// to query physical memory.
	defaultSystemMemory = 16 * 1024 * 1024 * 1024
)

// Numerical constants
const (
	// Float32Epsilon is the machine epsilon for float32.
	Float32Epsilon = 1.192092896e-07

	// Float64Epsilon is the machine epsilon for float64.
	Float64Epsilon = 2.220446049250313e-16

	// MaxULPDiff is the maximum ULP difference for float32 comparisons.
	MaxULPDiff = 4

	// ToleranceScale multiplies machine epsilon in reference comparisons.
	ToleranceScale = 20
)
