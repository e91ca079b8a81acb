// Package rocblas numerics checking: optional NaN/Inf scans of routine
// operands before and after compute.
package rocblas

import (
	"math"
	"os"
	"strconv"
	"sync/atomic"

	"k8s.io/klog/v2"
)

// CheckNumericsMode is a bitmask controlling operand scanning.
type CheckNumericsMode int

const (
	// CheckNumericsModeNoCheck disables scanning.
	CheckNumericsModeNoCheck CheckNumericsMode = 0x0
	// CheckNumericsModeInfo logs a summary of zero/NaN/Inf counts.
	CheckNumericsModeInfo CheckNumericsMode = 0x1
	// CheckNumericsModeFail aborts the call with StatusCheckNumericsFail
	// when a NaN or Inf is found.
	CheckNumericsModeFail CheckNumericsMode = 0x2
)

// checkNumericsEnv is the environment variable holding the startup mode.
const checkNumericsEnv = "ROCBLAS_CHECK_NUMERICS"

func checkNumericsFromEnv() CheckNumericsMode {
	v := os.Getenv(checkNumericsEnv)
	if v == "" {
		return CheckNumericsModeNoCheck
	}
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		klog.Warningf("rocblas: invalid %s value %q: %v", checkNumericsEnv, v, err)
		return CheckNumericsModeNoCheck
	}
	return CheckNumericsMode(n)
}

// numericsReport tallies what a scan found.
type numericsReport struct {
	zero int64
	nan  int64
	inf  int64
}

// resolve turns a finished scan into a status under the given mode.
func (r *numericsReport) resolve(h *Handle, routine, operand string, input bool) Status {
	mode := h.checkNumerics
	dir := "output"
	if input {
		dir = "input"
	}
	if mode&CheckNumericsModeInfo != 0 {
		klog.Warningf("rocblas numerics: %s %s %s: zero=%d nan=%d inf=%d",
			routine, dir, operand, r.zero, r.nan, r.inf)
	}
	if mode&CheckNumericsModeFail != 0 && (r.nan > 0 || r.inf > 0) {
		return StatusCheckNumericsFail
	}
	return StatusSuccess
}

func classify[T Scalar](v T, r *numericsReport) {
	switch x := any(v).(type) {
	case float32:
		classifyFloat(float64(x), r)
	case float64:
		classifyFloat(x, r)
	case complex64:
		classifyFloat(float64(real(x)), r)
		classifyFloat(float64(imag(x)), r)
	case complex128:
		classifyFloat(real(x), r)
		classifyFloat(imag(x), r)
	}
}

func classifyFloat(f float64, r *numericsReport) {
	switch {
	case math.IsNaN(f):
		atomic.AddInt64(&r.nan, 1)
	case math.IsInf(f, 0):
		atomic.AddInt64(&r.inf, 1)
	case f == 0:
		atomic.AddInt64(&r.zero, 1)
	}
}

// checkNumericsVector scans a strided or pointer-batched vector. The scan
// is issued on the handle's stream so it observes prior writes, then the
// stream is drained before the verdict.
func checkNumericsVector[T Scalar](h *Handle, routine, operand string,
	n, incx, shift int, x batch[T], batchCount int, input bool) Status {

	if h.checkNumerics == CheckNumericsModeNoCheck || n <= 0 || batchCount <= 0 {
		return StatusSuccess
	}

	var report numericsReport
	grid := Dim3{X: (n + asumNB - 1) / asumNB, Y: batchCount, Z: 1}
	block := Dim3{X: asumNB, Y: 1, Z: 1}

	h.ctx.LaunchFuncStream(func(tid ThreadID, _ ...interface{}) {
		i := tid.GlobalX()
		if i >= n {
			return
		}
		xv := x.instance(tid.BlockIdx.Y)
		classify(xv[shift+i*incx], &report)
	}, grid, block, h.stream)

	if err := h.stream.Synchronize(); err != nil {
		return StatusInternalError
	}
	return report.resolve(h, routine, operand, input)
}

// checkNumericsBandedMatrix scans only the stored band of each column:
// storage rows ku-j up to ku+m-1-j clipped to [0, kl+ku].
func checkNumericsBandedMatrix[T Scalar](h *Handle, routine, operand string,
	m, n, kl, ku, lda int, a batch[T], batchCount int, input bool) Status {

	if h.checkNumerics == CheckNumericsModeNoCheck || m <= 0 || n <= 0 || batchCount <= 0 {
		return StatusSuccess
	}

	var report numericsReport
	const colsPerBlock = 256
	grid := Dim3{X: (n + colsPerBlock - 1) / colsPerBlock, Y: batchCount, Z: 1}
	block := Dim3{X: colsPerBlock, Y: 1, Z: 1}

	h.ctx.LaunchFuncStream(func(tid ThreadID, _ ...interface{}) {
		j := tid.GlobalX()
		if j >= n {
			return
		}
		av := a.instance(tid.BlockIdx.Y)
		lo := ku - j
		if lo < 0 {
			lo = 0
		}
		hi := ku + m - 1 - j
		if hi > kl+ku {
			hi = kl + ku
		}
		for sr := lo; sr <= hi; sr++ {
			classify(av[j*lda+sr], &report)
		}
	}, grid, block, h.stream)

	if err := h.stream.Synchronize(); err != nil {
		return StatusInternalError
	}
	return report.resolve(h, routine, operand, input)
}
