package rocblas

import (
	"math"
)

// lcg is the deterministic generator behind the test-data helpers.
// Parameters from Numerical Recipes; the low 32 bits normalize to [0, 1).
type lcg struct {
	state uint64
}

func (l *lcg) next() float64 {
	l.state = l.state*1103515245 + 12345
	return float64(uint32(l.state)) / float64(1<<32)
}

func (l *lcg) scalar() (re, im float64) {
	return l.next(), l.next()
}

// GenerateScalars generates deterministic test data with components in
// [0, 1). The same seed always produces the same sequence, so failures
// reproduce across runs.
//
// Example:
//
//	data := GenerateScalars[float32](1024, 12345)
func GenerateScalars[T Scalar](size int, seed uint64) []T {
	data := make([]T, size)
	rng := lcg{state: seed}
	for i := range data {
		data[i] = MakeScalar[T](rng.scalar())
	}
	return data
}

// GenerateScalarsRange generates deterministic data with components in
// [min, max).
//
// Example:
//
//	data := GenerateScalarsRange[float64](1024, 42, -1.0, 1.0)
func GenerateScalarsRange[T Scalar](size int, seed uint64, min, max float64) []T {
	data := make([]T, size)
	rng := lcg{state: seed}
	scale := max - min
	for i := range data {
		re, im := rng.scalar()
		data[i] = MakeScalar[T](re*scale+min, im*scale+min)
	}
	return data
}

// GenerateBandedMatrix fills an lda x n banded storage buffer. Slots
// inside the band get deterministic values in [0, 1); the padding slots
// in the corners, which map to logical rows outside [0, m), are
// poisoned with NaN so that any out-of-band read shows up in results.
func GenerateBandedMatrix[T Scalar](m, n, kl, ku, lda int, seed uint64) []T {
	data := make([]T, lda*n)
	poison := nanValue[T]()
	for i := range data {
		data[i] = poison
	}
	rng := lcg{state: seed}
	for j := 0; j < n; j++ {
		lo := max(0, ku-j)
		hi := min(kl+ku, ku+m-1-j)
		for sr := lo; sr <= hi; sr++ {
			data[j*lda+sr] = MakeScalar[T](rng.scalar())
		}
	}
	return data
}

// GenerateBandedBatch lays out batchCount banded matrices back to back
// with stride lda*n, each filled from its own seed.
func GenerateBandedBatch[T Scalar](m, n, kl, ku, lda, batchCount int, seed uint64) []T {
	stride := lda * n
	data := make([]T, stride*batchCount)
	for b := 0; b < batchCount; b++ {
		copy(data[b*stride:], GenerateBandedMatrix[T](m, n, kl, ku, lda, seed+uint64(b)))
	}
	return data
}

// GenerateSequence generates an arithmetic sequence for predictable
// patterns when debugging.
//
// Example:
//
//	data := GenerateSequence[float32](10, 0, 2) // [0, 2, 4, ..., 18]
func GenerateSequence[R Float](size int, start, step R) []R {
	data := make([]R, size)
	for i := range data {
		data[i] = start + R(i)*step
	}
	return data
}

// InjectNaN overwrites data[idx] with a quiet NaN.
func InjectNaN[T Scalar](data []T, idx int) {
	data[idx] = nanValue[T]()
}

// InjectInf overwrites data[idx] with +Inf (both components for
// complex types).
func InjectInf[T Scalar](data []T, idx int) {
	data[idx] = MakeScalar[T](math.Inf(1), math.Inf(1))
}

func nanValue[T Scalar]() T {
	return MakeScalar[T](math.NaN(), math.NaN())
}

// BandShape is one banded-matrix geometry for table-driven tests.
type BandShape struct {
	M, N, KL, KU int
}

// TestBandShapes returns band geometries covering the interesting
// regimes: diagonal-only, thin and fat bands, bands clamped at the
// matrix edge, tall and wide matrices, and single-element corners.
func TestBandShapes() []BandShape {
	return []BandShape{
		{5, 5, 2, 1},     // the storage example from the package docs
		{1, 1, 0, 0},     // single element
		{16, 16, 0, 0},   // diagonal only
		{16, 16, 15, 15}, // band covers the full matrix
		{64, 64, 3, 5},
		{100, 60, 7, 2},  // tall
		{60, 100, 2, 7},  // wide
		{65, 128, 10, 0}, // no superdiagonals
		{128, 65, 0, 10}, // no subdiagonals
		{200, 200, 20, 20},
	}
}

// TestVectorLengths returns reduction lengths around the block-size
// boundaries plus a multi-block size.
func TestVectorLengths() []int {
	return []int{
		1,
		2,
		asumNB - 1,
		asumNB,
		asumNB + 1,
		3*asumNB + 17,
		64 * 1024,
	}
}
