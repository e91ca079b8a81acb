// Package rocblas handle: per-caller state for stream, pointer mode,
// layer logging, numerics checking, and the device memory size query.
package rocblas

import (
	"os"
	"strconv"
	"sync"

	"k8s.io/klog/v2"
)

// PointerMode declares where routine scalars (alpha, beta, results) live.
type PointerMode int

const (
	// PointerModeHost scalars are read and written at the call boundary.
	PointerModeHost PointerMode = iota
	// PointerModeDevice scalars are device views read and written in
	// stream order by the kernels themselves.
	PointerModeDevice
)

// String returns the pointer mode as a string.
func (m PointerMode) String() string {
	if m == PointerModeDevice {
		return "device"
	}
	return "host"
}

// Operation selects how a matrix operand is applied.
type Operation int

const (
	// OperationNone applies the matrix as stored.
	OperationNone Operation = iota
	// OperationTranspose applies the transpose.
	OperationTranspose
	// OperationConjTranspose applies the conjugate transpose.
	OperationConjTranspose
)

// String returns the BLAS character for the operation.
func (op Operation) String() string {
	switch op {
	case OperationNone:
		return "N"
	case OperationTranspose:
		return "T"
	case OperationConjTranspose:
		return "C"
	}
	return "?"
}

func (op Operation) valid() bool {
	return op >= OperationNone && op <= OperationConjTranspose
}

// deviceMemorySizeEnv bounds the handle workspace pool at creation.
const deviceMemorySizeEnv = "ROCBLAS_DEVICE_MEMORY_SIZE"

func deviceMemorySizeFromEnv() int64 {
	v := os.Getenv(deviceMemorySizeEnv)
	if v == "" {
		return DefaultDeviceMemorySize
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil || n < 0 {
		klog.Warningf("rocblas: invalid %s value %q", deviceMemorySizeEnv, v)
		return DefaultDeviceMemorySize
	}
	return n
}

// Handle carries the mutable per-caller configuration every routine reads:
// the stream work is issued on, the pointer mode, layer logging bits, the
// numerics checking mode, and the workspace pool. A Handle is not safe for
// concurrent use; callers wanting concurrency create one handle per
// goroutine, each with its own stream.
type Handle struct {
	ctx           *Context
	stream        *Stream
	pointerMode   PointerMode
	layerMode     LayerMode
	checkNumerics CheckNumericsMode
	workspace     *MemoryPool
	closed        bool

	// device memory size query protocol
	queryActive bool
	querySize   int

	profileMu sync.Mutex
	profile   map[string]int64
}

// NewHandle creates a handle on the default context with its own stream.
// ROCBLAS_LAYER, ROCBLAS_CHECK_NUMERICS and ROCBLAS_DEVICE_MEMORY_SIZE
// seed the logging, numerics and workspace configuration.
func NewHandle() *Handle {
	return NewHandleOnContext(defaultContext)
}

// NewHandleOnContext creates a handle bound to the given context.
func NewHandleOnContext(ctx *Context) *Handle {
	return &Handle{
		ctx:           ctx,
		stream:        ctx.CreateStream(),
		pointerMode:   PointerModeHost,
		layerMode:     layerModeFromEnv(),
		checkNumerics: checkNumericsFromEnv(),
		workspace:     NewMemoryPoolWithLimit(deviceMemorySizeFromEnv()),
	}
}

// Close drains the handle's stream, dumps profile counts, and marks the
// handle unusable. It returns the stream's deferred error, if any.
func (h *Handle) Close() error {
	if h == nil || h.closed {
		return ErrInvalidHandle
	}
	err := h.stream.Synchronize()
	h.dumpProfile()
	h.closed = true
	return err
}

func (h *Handle) valid() bool {
	return h != nil && !h.closed
}

// Context returns the execution context the handle is bound to.
func (h *Handle) Context() *Context {
	return h.ctx
}

// Stream returns the stream routines are issued on.
func (h *Handle) Stream() *Stream {
	return h.stream
}

// SetStream redirects subsequent routine launches to the given stream.
func (h *Handle) SetStream(s *Stream) error {
	if s == nil {
		return ErrNullPointer
	}
	h.stream = s
	return nil
}

// Synchronize waits for all work issued through the handle and returns
// any deferred kernel error.
func (h *Handle) Synchronize() error {
	if !h.valid() {
		return ErrInvalidHandle
	}
	return h.stream.Synchronize()
}

// PointerMode returns the current pointer mode.
func (h *Handle) PointerMode() PointerMode {
	return h.pointerMode
}

// SetPointerMode selects host or device scalar addressing.
func (h *Handle) SetPointerMode(m PointerMode) {
	h.pointerMode = m
}

// LayerMode returns the logging bitmask.
func (h *Handle) LayerMode() LayerMode {
	return h.layerMode
}

// SetLayerMode replaces the logging bitmask.
func (h *Handle) SetLayerMode(m LayerMode) {
	h.layerMode = m
}

// CheckNumerics returns the numerics checking mode.
func (h *Handle) CheckNumerics() CheckNumericsMode {
	return h.checkNumerics
}

// SetCheckNumerics replaces the numerics checking mode.
func (h *Handle) SetCheckNumerics(m CheckNumericsMode) {
	h.checkNumerics = m
}

// StartDeviceMemorySizeQuery puts the handle in size query mode. Routines
// called in this mode compute and record their workspace requirement
// without touching data pointers, which may be nil.
func (h *Handle) StartDeviceMemorySizeQuery() error {
	if !h.valid() {
		return ErrInvalidHandle
	}
	if h.queryActive {
		return NewExecutionError("StartDeviceMemorySizeQuery", "query already in progress", nil)
	}
	h.queryActive = true
	h.querySize = 0
	return nil
}

// StopDeviceMemorySizeQuery ends query mode and returns the maximum
// workspace requirement recorded since the matching Start call.
func (h *Handle) StopDeviceMemorySizeQuery() (int, error) {
	if !h.valid() {
		return 0, ErrInvalidHandle
	}
	if !h.queryActive {
		return 0, NewExecutionError("StopDeviceMemorySizeQuery", "no query in progress", nil)
	}
	size := h.querySize
	h.queryActive = false
	h.querySize = 0
	return size, nil
}

// IsDeviceMemorySizeQuery reports whether the handle is in query mode.
func (h *Handle) IsDeviceMemorySizeQuery() bool {
	return h != nil && h.queryActive
}

// setOptimalDeviceMemorySize records a workspace requirement during a size
// query. Each chunk is rounded up to the pool alignment and the sum is
// kept if it exceeds the running maximum.
func (h *Handle) setOptimalDeviceMemorySize(sizes ...int) Status {
	total := 0
	for _, s := range sizes {
		total += (s + MemoryAlignment - 1) &^ (MemoryAlignment - 1)
	}
	if total <= h.querySize {
		return StatusSizeUnchanged
	}
	h.querySize = total
	return StatusSizeIncreased
}

// DeviceMalloc draws workspace from the handle's pool.
func (h *Handle) DeviceMalloc(size int) (DevicePtr, error) {
	return h.workspace.Allocate(size)
}

// DeviceFree returns workspace to the handle's pool.
func (h *Handle) DeviceFree(ptr DevicePtr) error {
	return h.workspace.Free(ptr)
}

// SetDeviceMemorySize bounds the handle's workspace pool. Zero removes
// the bound.
func (h *Handle) SetDeviceMemorySize(bytes int64) {
	h.workspace.SetLimit(bytes)
}

// DeviceMemoryStats reports outstanding and peak workspace bytes.
func (h *Handle) DeviceMemoryStats() (allocated, peak int64) {
	return h.workspace.GetStats()
}
