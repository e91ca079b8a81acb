package rocblas

import (
	"testing"
	"unsafe"
)

// BenchmarkGbmv times the band kernel across the regimes that matter:
// square bands, wide and tall matrices, and both real precisions.
func BenchmarkGbmv(b *testing.B) {
	sizes := []struct {
		name         string
		m, n, kl, ku int
	}{
		{"Small_64x64_k8", 64, 64, 8, 8},
		{"Medium_256x256_k32", 256, 256, 32, 32},
		{"Large_1024x1024_k64", 1024, 1024, 64, 64},
		{"Wide_128x2048_k16", 128, 2048, 16, 16},
		{"Tall_2048x128_k16", 2048, 128, 16, 16},
	}

	for _, sz := range sizes {
		b.Run("F32_"+sz.name, func(b *testing.B) {
			benchmarkGbmv[float32](b, sz.m, sz.n, sz.kl, sz.ku)
		})
		b.Run("F64_"+sz.name, func(b *testing.B) {
			benchmarkGbmv[float64](b, sz.m, sz.n, sz.kl, sz.ku)
		})
	}
}

func benchmarkGbmv[T Scalar](b *testing.B, m, n, kl, ku int) {
	h := HandleOrFail(b)
	lda := kl + ku + 1

	dA := UploadOrFail(b, GenerateBandedMatrix[T](m, n, kl, ku, lda, 42))
	dX := UploadOrFail(b, GenerateScalarsRange[T](n, 43, -1, 1))
	dY := UploadOrFail(b, GenerateScalarsRange[T](m, 44, -1, 1))

	alpha := MakeScalar[T](1.5, 0)
	beta := MakeScalar[T](0.5, 0)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if st := Gbmv(h, OperationNone, m, n, kl, ku, &alpha, dA, lda, dX, 1, &beta, dY, 1); st != StatusSuccess {
			b.Fatalf("gbmv status %v", st)
		}
	}
	if err := h.Synchronize(); err != nil {
		b.Fatal(err)
	}

	// Multiply-add per stored band element.
	ops := int64(2) * int64(m) * int64(kl+ku+1)
	if elapsed := b.Elapsed(); elapsed > 0 {
		gflops := float64(ops*int64(b.N)) / elapsed.Seconds() / 1e9
		b.ReportMetric(gflops, "GFLOPS")
	}
}

func BenchmarkGbmvStridedBatched(b *testing.B) {
	const m, n, kl, ku, batch = 256, 256, 32, 32, 8
	lda := kl + ku + 1
	strideA, strideX, strideY := lda*n, n, m

	h := HandleOrFail(b)
	dA := UploadOrFail(b, GenerateBandedBatch[float32](m, n, kl, ku, lda, batch, 42))
	dX := UploadOrFail(b, GenerateScalarsRange[float32](strideX*batch, 43, -1, 1))
	dY := UploadOrFail(b, GenerateScalarsRange[float32](strideY*batch, 44, -1, 1))

	alpha, beta := float32(1), float32(0)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		st := GbmvStridedBatched(h, OperationNone, m, n, kl, ku,
			&alpha, dA, lda, strideA, dX, 1, strideX, &beta, dY, 1, strideY, batch)
		if st != StatusSuccess {
			b.Fatalf("gbmv_strided_batched status %v", st)
		}
	}
	if err := h.Synchronize(); err != nil {
		b.Fatal(err)
	}

	ops := int64(2) * int64(m) * int64(kl+ku+1) * int64(batch)
	if elapsed := b.Elapsed(); elapsed > 0 {
		gflops := float64(ops*int64(b.N)) / elapsed.Seconds() / 1e9
		b.ReportMetric(gflops, "GFLOPS")
	}
}

// BenchmarkAsum reports reduction throughput in processed bytes. The
// host-pointer path synchronizes internally, so each iteration is a
// complete round trip.
func BenchmarkAsum(b *testing.B) {
	lengths := []struct {
		name string
		n    int
	}{
		{"1K", 1 << 10},
		{"64K", 64 << 10},
		{"1M", 1 << 20},
	}

	for _, ln := range lengths {
		b.Run("F32_"+ln.name, func(b *testing.B) {
			benchmarkAsum[float32, float32](b, ln.n)
		})
		b.Run("F64_"+ln.name, func(b *testing.B) {
			benchmarkAsum[float64, float64](b, ln.n)
		})
		b.Run("C64_"+ln.name, func(b *testing.B) {
			benchmarkAsum[complex64, float32](b, ln.n)
		})
	}
}

func benchmarkAsum[T Scalar, R Float](b *testing.B, n int) {
	h := HandleOrFail(b)
	dX := UploadOrFail(b, GenerateScalarsRange[T](n, 7, -1, 1))

	var elem T
	b.SetBytes(int64(n) * int64(unsafe.Sizeof(elem)))

	b.ResetTimer()
	b.ReportAllocs()

	var result R
	for i := 0; i < b.N; i++ {
		if st := Asum[T, R](h, n, dX, 1, &result); st != StatusSuccess {
			b.Fatalf("asum status %v", st)
		}
	}
	if result == 0 {
		b.Fatal("reduction produced zero")
	}
}

func BenchmarkAsumStridedBatched(b *testing.B) {
	const n, batch = 64 << 10, 16

	h := HandleOrFail(b)
	dX := UploadOrFail(b, GenerateScalarsRange[float32](n*batch, 7, -1, 1))
	results := make([]float32, batch)

	b.SetBytes(int64(n) * int64(batch) * 4)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if st := AsumStridedBatched[float32, float32](h, n, dX, 1, n, batch, results); st != StatusSuccess {
			b.Fatalf("asum_strided_batched status %v", st)
		}
	}
}
