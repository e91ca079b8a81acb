// Package rocblas banded matrix-vector multiply: y = alpha*op(A)*x + beta*y
// for a general band matrix A with kl subdiagonals and ku superdiagonals.
package rocblas

import (
	"fmt"
	"strconv"

	"github.com/gomlx/exceptions"
)

// gbmvnPartial accumulates one thread's share of output row ind of the
// non-transposed product. Lane ty strides the columns; a column
// contributes when its band entry for row ind exists, that is when the
// storage row ku+ind-col lands inside [0, kl+ku].
func gbmvnPartial[T Scalar](ind, ty, n, kl, ku, lda int, a, x []T, shiftx, incx int) T {
	var sum T
	for col := ty; col < n; col += gbmvDimY {
		sr := ku + ind - col
		if sr >= 0 && sr <= kl+ku {
			sum += a[col*lda+sr] * x[shiftx+col*incx]
		}
	}
	return sum
}

// gbmvtPartial accumulates one thread's share of output column ind of the
// transposed product. Lane ty strides the storage rows of column ind; a
// storage row contributes when it maps to a logical row inside [0, m).
// conj applies the conjugate to each matrix element.
func gbmvtPartial[T Scalar](conj bool, ind, ty, m, kl, ku, lda int, a, x []T, shiftx, incx int) T {
	var sum T
	for sr := ty; sr <= kl+ku; sr += gbmvDimY {
		lr := sr - ku + ind
		if lr >= 0 && lr < m {
			v := a[ind*lda+sr]
			if conj {
				v = conjugate(v)
			}
			sum += v * x[shiftx+lr*incx]
		}
	}
	return sum
}

// gbmvKernel builds the block kernel. Each block covers gbmvDimX output
// elements; the gbmvDimX x gbmvDimY threads first write partial sums into
// a tile, then the first gbmvDimX threads fold the tile along Y and apply
// the alpha/beta update. The phase boundary between the two loops is the
// block's barrier.
//
// A launch whose block size differs from gbmvDimX*gbmvDimY is a silent
// no-op, never a fault.
func gbmvKernel[T Scalar](trans Operation, m, n, kl, ku int,
	alpha scalarOperand[T], a batch[T], lda int,
	x batch[T], shiftx, incx int,
	beta scalarOperand[T], y batch[T], shifty, incy int) BlockFunc {

	outLen := m
	if trans != OperationNone {
		outLen = n
	}
	conj := trans == OperationConjTranspose
	noTrans := trans == OperationNone

	return func(blockIdx, blockDim, gridDim Dim3) {
		if blockDim.X*blockDim.Y != gbmvDimX*gbmvDimY {
			return
		}

		alphaV := alpha.load()
		betaV := beta.load()

		// alpha zero with beta one is a defined no-op; the launcher can
		// only short-circuit it for host scalars.
		if alphaV == 0 && betaV == 1 {
			return
		}

		b := blockIdx.Y
		av := a.condInstance(alphaV != 0, b)
		xv := x.condInstance(alphaV != 0, b)
		yv := y.instance(b)

		var sdata [gbmvDimX * gbmvDimY]T

		if alphaV != 0 {
			for ty := 0; ty < gbmvDimY; ty++ {
				for tx := 0; tx < gbmvDimX; tx++ {
					ind := blockIdx.X*gbmvDimX + tx
					var sum T
					if ind < outLen {
						if noTrans {
							sum = gbmvnPartial(ind, ty, n, kl, ku, lda, av, xv, shiftx, incx)
						} else {
							sum = gbmvtPartial(conj, ind, ty, m, kl, ku, lda, av, xv, shiftx, incx)
						}
					}
					sdata[tx+ty*gbmvDimX] = sum
				}
			}
		}

		for tx := 0; tx < gbmvDimX; tx++ {
			ind := blockIdx.X*gbmvDimX + tx
			if ind >= outLen {
				continue
			}
			idx := shifty + ind*incy
			if alphaV != 0 {
				sum := sdata[tx]
				for i := 1; i < gbmvDimY; i++ {
					sum += sdata[tx+i*gbmvDimX]
				}
				if betaV != 0 {
					yv[idx] = alphaV*sum + betaV*yv[idx]
				} else {
					yv[idx] = alphaV * sum
				}
			} else {
				// beta==0 writes zeros outright so stale NaN/Inf in y
				// cannot propagate.
				if betaV != 0 {
					yv[idx] = betaV * yv[idx]
				} else {
					yv[idx] = 0
				}
			}
		}
	}
}

// launchGbmv computes grid and shift parameters and issues the kernel on
// the handle's stream. Negative increments shift the base so traversal
// index zero addresses the last logical element.
func launchGbmv[T Scalar](h *Handle, trans Operation, m, n, kl, ku int,
	alpha scalarOperand[T], a batch[T], lda int,
	x batch[T], incx int,
	beta scalarOperand[T], y batch[T], incy int,
	batchCount int) Status {

	if m <= 0 || n <= 0 || batchCount <= 0 {
		return StatusSuccess
	}

	if alpha.host && alpha.val == 0 && beta.host && beta.val == 1 {
		return StatusSuccess
	}

	xlen, ylen := n, m
	if trans != OperationNone {
		xlen, ylen = m, n
	}

	shiftx := 0
	if incx < 0 {
		shiftx = -incx * (xlen - 1)
	}
	shifty := 0
	if incy < 0 {
		shifty = -incy * (ylen - 1)
	}

	grid := Dim3{X: (ylen + gbmvDimX - 1) / gbmvDimX, Y: batchCount, Z: 1}
	block := Dim3{X: gbmvDimX, Y: gbmvDimY, Z: 1}

	kernel := gbmvKernel(trans, m, n, kl, ku, alpha, a, lda, x, shiftx, incx, beta, y, shifty, incy)
	if err := h.ctx.LaunchBlocks(kernel, grid, block, h.stream); err != nil {
		return StatusOf(err)
	}
	return StatusSuccess
}

// gbmvArgCheck validates arguments in the precedence the status taxonomy
// defines. The second result reports whether the call should proceed to
// the launch; a false with StatusSuccess is a defined quick return.
func gbmvArgCheck[T Scalar](h *Handle, trans Operation, m, n, kl, ku, lda int,
	alpha scalarOperand[T], a batch[T], x batch[T], incx int,
	beta scalarOperand[T], y batch[T], incy int, batchCount int) (Status, bool) {

	if !trans.valid() {
		return StatusInvalidValue, false
	}
	if kl < 0 || ku < 0 || lda < kl+ku+1 || incx == 0 || incy == 0 {
		return StatusInvalidValue, false
	}
	// Degenerate-but-legal shapes succeed with no work, negative counts
	// included, before any pointer is inspected.
	if m <= 0 || n <= 0 || batchCount <= 0 {
		return StatusSuccess, false
	}
	if alpha.ptr == nil || beta.ptr == nil {
		return StatusInvalidPointer, false
	}
	if alpha.host {
		if alpha.val == 0 && beta.val == 1 {
			return StatusSuccess, false
		}
		if (alpha.val != 0 && (a.isNull() || x.isNull())) || y.isNull() {
			return StatusInvalidPointer, false
		}
	} else if y.isNull() {
		// Device-mode scalars cannot be read here, so A and x stay
		// unchecked; y is written under every scalar combination.
		return StatusInvalidPointer, false
	}
	return StatusSuccess, true
}

// gbmvCheckNumerics scans the band of A and both vectors before compute,
// and the output vector after.
func gbmvCheckNumerics[T Scalar](h *Handle, name string, trans Operation,
	m, n, kl, ku, lda int, a batch[T], x batch[T], incx int,
	y batch[T], incy int, batchCount int, input bool) Status {

	xlen, ylen := n, m
	if trans != OperationNone {
		xlen, ylen = m, n
	}
	shiftx := 0
	if incx < 0 {
		shiftx = -incx * (xlen - 1)
	}
	shifty := 0
	if incy < 0 {
		shifty = -incy * (ylen - 1)
	}

	if input {
		if !a.isNull() {
			if st := checkNumericsBandedMatrix(h, name, "A", m, n, kl, ku, lda, a, batchCount, input); st != StatusSuccess {
				return st
			}
		}
		if !x.isNull() {
			if st := checkNumericsVector(h, name, "x", xlen, incx, shiftx, x, batchCount, input); st != StatusSuccess {
				return st
			}
		}
	}
	return checkNumericsVector(h, name, "y", ylen, incy, shifty, y, batchCount, input)
}

// gbmvRun is the shared body behind the three public variants.
func gbmvRun[T Scalar](h *Handle, name string, trans Operation, m, n, kl, ku int,
	alpha scalarOperand[T], a batch[T], lda int,
	x batch[T], incx int,
	beta scalarOperand[T], y batch[T], incy int,
	batchCount int) Status {

	status, proceed := gbmvArgCheck(h, trans, m, n, kl, ku, lda, alpha, a, x, incx, beta, y, incy, batchCount)
	if !proceed {
		return status
	}

	if h.checkNumerics != CheckNumericsModeNoCheck {
		if st := gbmvCheckNumerics(h, name, trans, m, n, kl, ku, lda, a, x, incx, y, incy, batchCount, true); st != StatusSuccess {
			return st
		}
	}

	if st := launchGbmv(h, trans, m, n, kl, ku, alpha, a, lda, x, incx, beta, y, incy, batchCount); st != StatusSuccess {
		return st
	}

	if h.checkNumerics != CheckNumericsModeNoCheck {
		if st := gbmvCheckNumerics(h, name, trans, m, n, kl, ku, lda, a, x, incx, y, incy, batchCount, false); st != StatusSuccess {
			return st
		}
	}
	return StatusSuccess
}

func gbmvBenchTokens[T Scalar](trans Operation, m, n, kl, ku, lda, incx, incy int,
	alpha, beta scalarOperand[T]) []string {

	tokens := []string{
		"-f", "gbmv", "-r", precisionString[T](),
		"--transposeA", trans.String(),
		"-m", strconv.Itoa(m), "-n", strconv.Itoa(n),
		"--kl", strconv.Itoa(kl), "--ku", strconv.Itoa(ku),
	}
	tokens = append(tokens, benchScalar("alpha", alpha)...)
	tokens = append(tokens, "--lda", strconv.Itoa(lda), "--incx", strconv.Itoa(incx))
	tokens = append(tokens, benchScalar("beta", beta)...)
	tokens = append(tokens, "--incy", strconv.Itoa(incy))
	return tokens
}

// Gbmv computes y = alpha*op(A)*x + beta*y for an m x n band matrix A
// stored in compacted band form with leading dimension lda >= kl+ku+1.
// Scalars are read under the handle's pointer mode. The launch is
// asynchronous; results are visible after the handle synchronizes.
func Gbmv[T Scalar](h *Handle, trans Operation, m, n, kl, ku int,
	alpha *T, A DevicePtr, lda int, x DevicePtr, incx int,
	beta *T, y DevicePtr, incy int) Status {

	if !h.valid() {
		return StatusInvalidHandle
	}
	if h.IsDeviceMemorySizeQuery() {
		// No workspace is used.
		return StatusSizeUnchanged
	}

	name := "rocblas_" + precisionPrefix[T]() + "gbmv"
	alphaOp := newScalar(h.pointerMode, alpha)
	betaOp := newScalar(h.pointerMode, beta)

	if h.layerMode&LayerModeLogTrace != 0 {
		h.logTrace(name, trans, m, n, kl, ku, traceScalar(alphaOp), A, lda, x, incx, traceScalar(betaOp), y, incy)
	}
	if h.layerMode&LayerModeLogBench != 0 {
		h.logBench(gbmvBenchTokens(trans, m, n, kl, ku, lda, incx, incy, alphaOp, betaOp)...)
	}
	if h.layerMode&LayerModeLogProfile != 0 {
		h.logProfile(fmt.Sprintf("%s,transA,%s,M,%d,N,%d,kl,%d,ku,%d,lda,%d,incx,%d,incy,%d",
			name, trans, m, n, kl, ku, lda, incx, incy))
	}

	status := StatusInternalError
	err := exceptions.TryCatch[error](func() {
		status = gbmvRun(h, name, trans, m, n, kl, ku,
			alphaOp, stridedBatch[T](A, 0), lda,
			stridedBatch[T](x, 0), incx,
			betaOp, stridedBatch[T](y, 0), incy, 1)
	})
	if err != nil {
		return StatusInternalError
	}
	return status
}

// GbmvBatched is Gbmv over batchCount independent problems addressed
// through per-instance pointer tables.
func GbmvBatched[T Scalar](h *Handle, trans Operation, m, n, kl, ku int,
	alpha *T, A []DevicePtr, lda int, x []DevicePtr, incx int,
	beta *T, y []DevicePtr, incy int, batchCount int) Status {

	if !h.valid() {
		return StatusInvalidHandle
	}
	if h.IsDeviceMemorySizeQuery() {
		return StatusSizeUnchanged
	}

	name := "rocblas_" + precisionPrefix[T]() + "gbmv_batched"
	alphaOp := newScalar(h.pointerMode, alpha)
	betaOp := newScalar(h.pointerMode, beta)

	if h.layerMode&LayerModeLogTrace != 0 {
		h.logTrace(name, trans, m, n, kl, ku, traceScalar(alphaOp), A, lda, x, incx, traceScalar(betaOp), y, incy, batchCount)
	}
	if h.layerMode&LayerModeLogBench != 0 {
		tokens := gbmvBenchTokens(trans, m, n, kl, ku, lda, incx, incy, alphaOp, betaOp)
		tokens = append(tokens, "--batch_count", strconv.Itoa(batchCount))
		h.logBench(tokens...)
	}
	if h.layerMode&LayerModeLogProfile != 0 {
		h.logProfile(fmt.Sprintf("%s,transA,%s,M,%d,N,%d,kl,%d,ku,%d,lda,%d,incx,%d,incy,%d,batch_count,%d",
			name, trans, m, n, kl, ku, lda, incx, incy, batchCount))
	}

	status := StatusInternalError
	err := exceptions.TryCatch[error](func() {
		status = gbmvRun(h, name, trans, m, n, kl, ku,
			alphaOp, pointerBatch[T](A), lda,
			pointerBatch[T](x), incx,
			betaOp, pointerBatch[T](y), incy, batchCount)
	})
	if err != nil {
		return StatusInternalError
	}
	return status
}

// GbmvStridedBatched is Gbmv over batchCount independent problems laid out
// at fixed element strides from shared bases.
func GbmvStridedBatched[T Scalar](h *Handle, trans Operation, m, n, kl, ku int,
	alpha *T, A DevicePtr, lda, strideA int, x DevicePtr, incx, stridex int,
	beta *T, y DevicePtr, incy, stridey int, batchCount int) Status {

	if !h.valid() {
		return StatusInvalidHandle
	}
	if h.IsDeviceMemorySizeQuery() {
		return StatusSizeUnchanged
	}

	name := "rocblas_" + precisionPrefix[T]() + "gbmv_strided_batched"
	alphaOp := newScalar(h.pointerMode, alpha)
	betaOp := newScalar(h.pointerMode, beta)

	if h.layerMode&LayerModeLogTrace != 0 {
		h.logTrace(name, trans, m, n, kl, ku, traceScalar(alphaOp), A, lda, strideA,
			x, incx, stridex, traceScalar(betaOp), y, incy, stridey, batchCount)
	}
	if h.layerMode&LayerModeLogBench != 0 {
		tokens := gbmvBenchTokens(trans, m, n, kl, ku, lda, incx, incy, alphaOp, betaOp)
		tokens = append(tokens,
			"--stride_a", strconv.Itoa(strideA),
			"--stride_x", strconv.Itoa(stridex),
			"--stride_y", strconv.Itoa(stridey),
			"--batch_count", strconv.Itoa(batchCount))
		h.logBench(tokens...)
	}
	if h.layerMode&LayerModeLogProfile != 0 {
		h.logProfile(fmt.Sprintf("%s,transA,%s,M,%d,N,%d,kl,%d,ku,%d,lda,%d,stride_a,%d,incx,%d,stride_x,%d,incy,%d,stride_y,%d,batch_count,%d",
			name, trans, m, n, kl, ku, lda, strideA, incx, stridex, incy, stridey, batchCount))
	}

	status := StatusInternalError
	err := exceptions.TryCatch[error](func() {
		status = gbmvRun(h, name, trans, m, n, kl, ku,
			alphaOp, stridedBatch[T](A, strideA), lda,
			stridedBatch[T](x, stridex), incx,
			betaOp, stridedBatch[T](y, stridey), incy, batchCount)
	})
	if err != nil {
		return StatusInternalError
	}
	return status
}
