package rocblas

// Reference holds simple, obviously-correct implementations of the
// library's routines. Tests validate the parallel launchers against
// these loops.
type Reference[T Scalar] struct{}

// BandAt reads logical element A(i, j) out of banded storage. Elements
// outside the band are zero by definition and are never stored.
func (Reference[T]) BandAt(a []T, lda, kl, ku, i, j int) T {
	var zero T
	if i < j-ku || i > j+kl {
		return zero
	}
	return a[j*lda+ku+i-j]
}

// Gbmv computes y = alpha*op(A)*x + beta*y over banded storage, one
// dot product at a time. Negative increments walk the vector from its
// far end, matching the BLAS convention.
func (r Reference[T]) Gbmv(trans Operation, m, n, kl, ku int, alpha T, a []T, lda int, x []T, incx int, beta T, y []T, incy int) {
	if m <= 0 || n <= 0 {
		return
	}
	xlen, ylen := n, m
	if trans != OperationNone {
		xlen, ylen = m, n
	}
	kx, ky := 0, 0
	if incx < 0 {
		kx = -incx * (xlen - 1)
	}
	if incy < 0 {
		ky = -incy * (ylen - 1)
	}
	var zero, one T
	one = zero + 1
	if alpha == zero && beta == one {
		return
	}

	for out := 0; out < ylen; out++ {
		var sum T
		if alpha != zero {
			switch trans {
			case OperationNone:
				i := out
				lo := max(0, i-kl)
				hi := min(n-1, i+ku)
				for j := lo; j <= hi; j++ {
					sum += r.BandAt(a, lda, kl, ku, i, j) * x[kx+j*incx]
				}
			case OperationTranspose:
				j := out
				lo := max(0, j-ku)
				hi := min(m-1, j+kl)
				for i := lo; i <= hi; i++ {
					sum += r.BandAt(a, lda, kl, ku, i, j) * x[kx+i*incx]
				}
			case OperationConjTranspose:
				j := out
				lo := max(0, j-ku)
				hi := min(m-1, j+kl)
				for i := lo; i <= hi; i++ {
					sum += conjugate(r.BandAt(a, lda, kl, ku, i, j)) * x[kx+i*incx]
				}
			}
		}
		yi := ky + out*incy
		switch {
		case alpha != zero && beta != zero:
			y[yi] = alpha*sum + beta*y[yi]
		case alpha != zero:
			y[yi] = alpha * sum
		case beta != zero:
			y[yi] = beta * y[yi]
		default:
			y[yi] = zero
		}
	}
}

// Asum accumulates sum(|Re(x_i)| + |Im(x_i)|) in float64 regardless of
// the input precision, so the result can serve as a gold value.
func (Reference[T]) Asum(n int, x []T, incx int) float64 {
	if n <= 0 || incx == 0 {
		return 0
	}
	kx := 0
	if incx < 0 {
		kx = -incx * (n - 1)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += absTo64(x[kx+i*incx])
	}
	return sum
}

// absTo64 is abs1 widened to float64 for reference accumulation.
func absTo64[T Scalar](v T) float64 {
	switch s := any(v).(type) {
	case float32:
		return abs64(float64(s))
	case float64:
		return abs64(s)
	case complex64:
		return abs64(float64(real(s))) + abs64(float64(imag(s)))
	case complex128:
		return abs64(real(s)) + abs64(imag(s))
	}
	return 0
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
