// Package rocblas absolute-sum reduction: result[b] = sum(|x_i|) per batch
// instance, with |.| taken as |re|+|im| for complex types. The reduction
// runs in two workspace-backed passes.
package rocblas

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/gomlx/exceptions"
)

// asumName builds the routine name for the precision: sasum, dasum,
// scasum, dzasum, plus the variant suffix.
func asumName[T Scalar](suffix string) string {
	var t T
	p := "?"
	switch any(t).(type) {
	case float32:
		p = "s"
	case float64:
		p = "d"
	case complex64:
		p = "sc"
	case complex128:
		p = "dz"
	}
	return "rocblas_" + p + "asum" + suffix
}

// asumBlocks is the pass-1 grid extent for a vector of length n.
func asumBlocks(n int) int {
	return (n + asumNB - 1) / asumNB
}

// asumWorkspaceSize is the scratch requirement in bytes: one partial per
// block per batch plus one staging slot per batch for the host-mode
// result copy.
func asumWorkspaceSize[R Float](n, batchCount int) int {
	if n <= 0 {
		n = 1
	}
	if batchCount <= 0 {
		batchCount = 1
	}
	var r R
	return int(unsafe.Sizeof(r)) * (asumBlocks(n) + 1) * batchCount
}

// launchAsum issues the two reduction passes on the handle's stream.
//
// Pass 1 loads one element per thread lane into a tile and folds it by
// halving, one partial per block. Pass 2 folds each batch's partials and
// writes the result: directly into out for device pointer mode, into the
// workspace staging row for host mode, which is then copied out after a
// synchronize. The workspace is released in stream order so device-mode
// callers cannot race a reuse.
func launchAsum[T Scalar, R Float](h *Handle, n int, x batch[T], shiftx, incx int,
	batchCount int, workspace DevicePtr, out []R) Status {

	blocks := asumBlocks(n)
	w := deviceView[R](workspace)
	partials := w[:blocks*batchCount]
	staging := w[blocks*batchCount : (blocks+1)*batchCount]

	hostMode := h.pointerMode == PointerModeHost
	target := out
	if hostMode {
		target = staging
	}

	part1 := func(blockIdx, blockDim, gridDim Dim3) {
		xv := x.instance(blockIdx.Y)
		var sdata [asumNB]R
		for tx := 0; tx < asumNB; tx++ {
			i := blockIdx.X*asumNB + tx
			if i < n {
				sdata[tx] = abs1[T, R](xv[shiftx+i*incx])
			} else {
				sdata[tx] = 0
			}
		}
		for s := asumNB / 2; s > 0; s >>= 1 {
			for tx := 0; tx < s; tx++ {
				sdata[tx] += sdata[tx+s]
			}
		}
		partials[blockIdx.Y*blocks+blockIdx.X] = sdata[0]
	}

	part2 := func(blockIdx, blockDim, gridDim Dim3) {
		b := blockIdx.Y
		var sum R
		for i := 0; i < blocks; i++ {
			sum += partials[b*blocks+i]
		}
		target[b] = sum
	}

	blockDim := Dim3{X: asumNB, Y: 1, Z: 1}
	if err := h.ctx.LaunchBlocks(part1, Dim3{X: blocks, Y: batchCount, Z: 1}, blockDim, h.stream); err != nil {
		h.stream.Submit(func() { h.DeviceFree(workspace) })
		return StatusOf(err)
	}
	if err := h.ctx.LaunchBlocks(part2, Dim3{X: 1, Y: batchCount, Z: 1}, blockDim, h.stream); err != nil {
		// part1 may already be queued against the workspace.
		h.stream.Submit(func() { h.DeviceFree(workspace) })
		return StatusOf(err)
	}

	if hostMode {
		if err := h.stream.Synchronize(); err != nil {
			h.DeviceFree(workspace)
			return StatusInternalError
		}
		copy(out[:batchCount], staging)
		h.DeviceFree(workspace)
		return StatusSuccess
	}

	h.stream.Submit(func() {
		h.DeviceFree(workspace)
	})
	return StatusSuccess
}

// asumArgCheck validates arguments and services the quick-return path:
// degenerate shapes zero-fill the results and succeed. Device mode
// zero-fills in stream order.
func asumArgCheck[T Scalar, R Float](h *Handle, n int, x batch[T], incx, batchCount int, results []R) (Status, bool) {
	if n <= 0 || incx == 0 || batchCount <= 0 {
		if batchCount > 0 {
			if results == nil {
				return StatusInvalidPointer, false
			}
			if len(results) < batchCount {
				return StatusInvalidValue, false
			}
			out := results[:batchCount]
			if h.pointerMode == PointerModeDevice {
				h.stream.Submit(func() {
					for i := range out {
						out[i] = 0
					}
				})
			} else {
				for i := range out {
					out[i] = 0
				}
			}
		}
		return StatusSuccess, false
	}
	if x.isNull() || results == nil {
		return StatusInvalidPointer, false
	}
	if len(results) < batchCount {
		return StatusInvalidValue, false
	}
	return StatusSuccess, true
}

// asumRun is the shared body behind the three public variants.
func asumRun[T Scalar, R Float](h *Handle, name string, n int, x batch[T], incx,
	batchCount, devBytes int, results []R) Status {

	status, proceed := asumArgCheck(h, n, x, incx, batchCount, results)
	if !proceed {
		return status
	}

	workspace, err := h.DeviceMalloc(devBytes)
	if err != nil {
		return StatusMemoryError
	}

	shiftx := 0
	if incx < 0 {
		shiftx = -incx * (n - 1)
	}

	if h.checkNumerics != CheckNumericsModeNoCheck {
		if st := checkNumericsVector(h, name, "x", n, incx, shiftx, x, batchCount, true); st != StatusSuccess {
			h.DeviceFree(workspace)
			return st
		}
	}

	return launchAsum(h, n, x, shiftx, incx, batchCount, workspace, results)
}

// Asum computes the sum of absolute values of x into result. In host
// pointer mode the call blocks until result is written; in device mode
// the write lands in stream order and is visible after a synchronize.
//
// The result precision R is the real type matching T: float32 for
// float32/complex64 inputs, float64 for float64/complex128.
func Asum[T Scalar, R Float](h *Handle, n int, x DevicePtr, incx int, result *R) Status {
	if !h.valid() {
		return StatusInvalidHandle
	}

	devBytes := asumWorkspaceSize[R](n, 1)
	if h.IsDeviceMemorySizeQuery() {
		if n <= 0 || incx == 0 {
			return StatusSizeUnchanged
		}
		return h.setOptimalDeviceMemorySize(devBytes)
	}

	name := asumName[T]("")
	if h.layerMode&LayerModeLogTrace != 0 {
		h.logTrace(name, n, x, incx)
	}
	if h.layerMode&LayerModeLogBench != 0 {
		h.logBench("-f", "asum", "-r", precisionString[T](),
			"-n", strconv.Itoa(n), "--incx", strconv.Itoa(incx))
	}
	if h.layerMode&LayerModeLogProfile != 0 {
		h.logProfile(fmt.Sprintf("%s,N,%d,incx,%d", name, n, incx))
	}

	var results []R
	if result != nil {
		results = unsafe.Slice(result, 1)
	}

	status := StatusInternalError
	err := exceptions.TryCatch[error](func() {
		status = asumRun(h, name, n, stridedBatch[T](x, 0), incx, 1, devBytes, results)
	})
	if err != nil {
		return StatusInternalError
	}
	return status
}

// AsumBatched reduces batchCount vectors addressed through a pointer
// table, writing results[b] per instance.
func AsumBatched[T Scalar, R Float](h *Handle, n int, x []DevicePtr, incx int,
	batchCount int, results []R) Status {

	if !h.valid() {
		return StatusInvalidHandle
	}

	devBytes := asumWorkspaceSize[R](n, batchCount)
	if h.IsDeviceMemorySizeQuery() {
		if n <= 0 || incx == 0 || batchCount <= 0 {
			return StatusSizeUnchanged
		}
		return h.setOptimalDeviceMemorySize(devBytes)
	}

	name := asumName[T]("_batched")
	if h.layerMode&LayerModeLogTrace != 0 {
		h.logTrace(name, n, x, incx, batchCount)
	}
	if h.layerMode&LayerModeLogBench != 0 {
		h.logBench("-f", "asum_batched", "-r", precisionString[T](),
			"-n", strconv.Itoa(n), "--incx", strconv.Itoa(incx),
			"--batch_count", strconv.Itoa(batchCount))
	}
	if h.layerMode&LayerModeLogProfile != 0 {
		h.logProfile(fmt.Sprintf("%s,N,%d,incx,%d,batch_count,%d", name, n, incx, batchCount))
	}

	status := StatusInternalError
	err := exceptions.TryCatch[error](func() {
		status = asumRun(h, name, n, pointerBatch[T](x), incx, batchCount, devBytes, results)
	})
	if err != nil {
		return StatusInternalError
	}
	return status
}

// AsumStridedBatched reduces batchCount vectors laid out stridex elements
// apart from a shared base, writing results[b] per instance.
func AsumStridedBatched[T Scalar, R Float](h *Handle, n int, x DevicePtr, incx, stridex int,
	batchCount int, results []R) Status {

	if !h.valid() {
		return StatusInvalidHandle
	}

	devBytes := asumWorkspaceSize[R](n, batchCount)
	if h.IsDeviceMemorySizeQuery() {
		if n <= 0 || incx == 0 || batchCount <= 0 {
			return StatusSizeUnchanged
		}
		return h.setOptimalDeviceMemorySize(devBytes)
	}

	name := asumName[T]("_strided_batched")
	if h.layerMode&LayerModeLogTrace != 0 {
		h.logTrace(name, n, x, incx, stridex, batchCount)
	}
	if h.layerMode&LayerModeLogBench != 0 {
		h.logBench("-f", "asum_strided_batched", "-r", precisionString[T](),
			"-n", strconv.Itoa(n), "--incx", strconv.Itoa(incx),
			"--stride_x", strconv.Itoa(stridex),
			"--batch_count", strconv.Itoa(batchCount))
	}
	if h.layerMode&LayerModeLogProfile != 0 {
		h.logProfile(fmt.Sprintf("%s,N,%d,incx,%d,stride_x,%d,batch_count,%d",
			name, n, incx, stridex, batchCount))
	}

	status := StatusInternalError
	err := exceptions.TryCatch[error](func() {
		status = asumRun(h, name, n, stridedBatch[T](x, stridex), incx, batchCount, devBytes, results)
	})
	if err != nil {
		return StatusInternalError
	}
	return status
}
