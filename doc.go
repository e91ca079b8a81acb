// Package rocblas provides a GPU-style BLAS runtime for CPU execution:
// handles with private streams, explicit device memory, host/device
// scalar pointer modes, and grid/block kernel launches scheduled over a
// worker pool.
//
// The two routine families are the banded matrix-vector product (gbmv)
// and the strided-batched absolute-value reduction (asum), each in
// single, batched, and strided-batched variants over float32, float64,
// complex64 and complex128.
//
// Banded matrices are stored compactly: an m x n matrix with kl
// subdiagonals and ku superdiagonals occupies lda x n with lda >=
// kl+ku+1, and logical element (i, j) lives at column-major position
// j*lda + ku + i - j. For m = n = 5, kl = 2, ku = 1:
//
//	Banded matrix A                Banded storage
//	a11 a12 0   0   0              *   a12 a23 a34 a45
//	a21 a22 a23 0   0      --->    a11 a22 a33 a44 a55
//	a31 a32 a33 a34 0              a21 a32 a43 a54 *
//	0   a42 a43 a44 a45            a31 a42 a53 *   *
//	0   0   a53 a54 a55
//
// The starred corner slots are padding and are never read or written.
//
// Routines report rocBLAS-style status codes instead of panicking.
// Tracing, bench-replay logging and profiling are switched through
// ROCBLAS_LAYER, numerical screening of inputs and outputs through
// ROCBLAS_CHECK_NUMERICS, and the per-handle workspace limit through
// ROCBLAS_DEVICE_MEMORY_SIZE.
package rocblas
