package rocblas

import (
	"testing"
)

func TestReferenceBandAt(t *testing.T) {
	// 5x5 band with kl=2, ku=1; element A(i, j) stored as 10*i + j so a
	// lookup mistake is visible in the value itself.
	const m, n, kl, ku, lda = 5, 5, 2, 1, 4
	a := make([]float64, lda*n)
	for j := 0; j < n; j++ {
		for i := max(0, j-ku); i <= min(m-1, j+kl); i++ {
			a[j*lda+ku+i-j] = float64(10*i + j)
		}
	}

	var ref Reference[float64]
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			got := ref.BandAt(a, lda, kl, ku, i, j)
			want := 0.0
			if i >= j-ku && i <= j+kl {
				want = float64(10*i + j)
			}
			if got != want {
				t.Errorf("BandAt(%d, %d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestReferenceGbmvHand(t *testing.T) {
	// Tridiagonal 3x3: dense form [[1,4,0],[2,5,7],[0,6,8]].
	a := []float32{0, 1, 2, 4, 5, 6, 7, 8, 0}
	x := []float32{1, 2, 3}
	var ref Reference[float32]

	y := make([]float32, 3)
	ref.Gbmv(OperationNone, 3, 3, 1, 1, 1, a, 3, x, 1, 0, y, 1)
	if y[0] != 9 || y[1] != 33 || y[2] != 36 {
		t.Errorf("no-transpose: got %v, want [9 33 36]", y)
	}

	y = make([]float32, 3)
	ref.Gbmv(OperationTranspose, 3, 3, 1, 1, 1, a, 3, x, 1, 0, y, 1)
	if y[0] != 5 || y[1] != 32 || y[2] != 38 {
		t.Errorf("transpose: got %v, want [5 32 38]", y)
	}

	// beta scales the incoming y before accumulation.
	y = []float32{100, 200, 300}
	ref.Gbmv(OperationNone, 3, 3, 1, 1, 1, a, 3, x, 1, 0.5, y, 1)
	if y[0] != 59 || y[1] != 133 || y[2] != 186 {
		t.Errorf("beta blend: got %v, want [59 133 186]", y)
	}
}

func TestReferenceGbmvNegativeInc(t *testing.T) {
	// Diagonal [3, 5] against x walked backwards.
	a := []float64{3, 5}
	x := []float64{1, 2}
	y := make([]float64, 2)

	var ref Reference[float64]
	ref.Gbmv(OperationNone, 2, 2, 0, 0, 1, a, 1, x, -1, 0, y, 1)
	if y[0] != 6 || y[1] != 5 {
		t.Errorf("incx=-1: got %v, want [6 5]", y)
	}

	// Negative incy mirrors the output order.
	y = make([]float64, 2)
	ref.Gbmv(OperationNone, 2, 2, 0, 0, 1, a, 1, x, 1, 0, y, -1)
	if y[1] != 3 || y[0] != 10 {
		t.Errorf("incy=-1: got %v, want [10 3]", y)
	}
}

func TestReferenceGbmvConjTranspose(t *testing.T) {
	a := []complex64{complex(1, 1), complex(2, -1)}
	x := []complex64{1, 1}
	y := make([]complex64, 2)

	var ref Reference[complex64]
	ref.Gbmv(OperationConjTranspose, 2, 2, 0, 0, 1, a, 1, x, 1, 0, y, 1)
	if y[0] != complex(1, -1) || y[1] != complex(2, 1) {
		t.Errorf("conjugate transpose: got %v", y)
	}
}

func TestReferenceAsum(t *testing.T) {
	var ref Reference[float32]
	if got := ref.Asum(4, []float32{1, -2, 3, -4}, 1); got != 10 {
		t.Errorf("forward: got %v, want 10", got)
	}
	if got := ref.Asum(4, []float32{1, -2, 3, -4}, -1); got != 10 {
		t.Errorf("reverse: got %v, want 10", got)
	}
	if got := ref.Asum(2, []float32{1, -2, 3, -4}, 2); got != 4 {
		t.Errorf("strided: got %v, want 4", got)
	}
	if got := ref.Asum(0, nil, 1); got != 0 {
		t.Errorf("n=0: got %v", got)
	}
	if got := ref.Asum(4, []float32{1, 2, 3, 4}, 0); got != 0 {
		t.Errorf("incx=0: got %v", got)
	}

	var cref Reference[complex64]
	cx := []complex64{complex(1, 2), complex(-3, -4)}
	if got := cref.Asum(2, cx, 1); got != 10 {
		t.Errorf("complex one-norm: got %v, want 10", got)
	}
}

func TestReferenceAsumWideAccumulation(t *testing.T) {
	// 2^24 + 1 is not representable in float32; only a float64
	// accumulator keeps the trailing 1.
	x := []float32{1 << 24, 1}
	var ref Reference[float32]
	if got := ref.Asum(2, x, 1); got != float64(1<<24)+1 {
		t.Errorf("accumulation lost precision: got %v", got)
	}
}
