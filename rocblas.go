package rocblas

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents a compute device. Here this is the CPU with its cores
// and available memory. Each device has a unique ID and capabilities.
type Device struct {
	ID         int    // Unique device identifier
	Name       string // Human-readable device name
	TotalMem   uint64 // Total available memory in bytes
	NumCores   int    // Number of CPU cores
	MaxThreads int    // Maximum concurrent threads
}

// Context represents an execution context. It manages device resources,
// memory allocation, and stream execution. A Context must be created
// before any operations and destroyed when no longer needed.
type Context struct {
	device        *Device
	mu            sync.Mutex
	streams       map[int]*Stream
	streamID      int32
	memory        *MemoryPool
	defaultStream *Stream
}

// Dim3 represents 3D dimensions for grid and block configurations,
// matching the dim3 structure of GPU launch parameters.
type Dim3 struct {
	X, Y, Z int
}

// ThreadID identifies a thread's position within the execution hierarchy.
// It provides the same indexing semantics as the GPU built-in variables
// blockIdx, threadIdx, blockDim, and gridDim.
type ThreadID struct {
	BlockIdx  Dim3 // Block index within the grid
	ThreadIdx Dim3 // Thread index within the block
	BlockDim  Dim3 // Dimensions of the block
	GridDim   Dim3 // Dimensions of the grid
}

// Kernel represents a compute kernel that can be executed in parallel.
// Implementations should be thread-safe as Execute will be called
// concurrently from multiple goroutines.
type Kernel interface {
	Execute(tid ThreadID, args ...interface{})
}

// KernelFunc is a function that can be launched as a per-thread kernel.
type KernelFunc func(tid ThreadID, args ...interface{})

// BlockFunc is a kernel executed once per block. The function iterates the
// block's threads itself, which lets it stage a tile of per-thread partial
// results between phases. The phase boundary inside the function is the
// intra-block barrier of the launch model.
type BlockFunc func(blockIdx, blockDim, gridDim Dim3)

// DevicePtr represents a pointer to device memory. It provides typed
// access through the view methods (Float32, Float64, ...) and pointer
// arithmetic through Offset.
type DevicePtr struct {
	ptr    unsafe.Pointer
	size   int
	offset int
}

// Global runtime state
var (
	defaultDevice  *Device
	defaultContext *Context
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		defaultDevice = &Device{
			ID:         0,
			Name:       "CPU",
			TotalMem:   getSystemMemory(),
			NumCores:   runtime.NumCPU(),
			MaxThreads: runtime.NumCPU() * 2, // Hyperthreading
		}

		defaultContext = &Context{
			device:  defaultDevice,
			streams: make(map[int]*Stream),
			memory:  NewMemoryPool(),
		}

		defaultContext.defaultStream = defaultContext.CreateStream()
	})
}

// NewContext creates an execution context with its own memory pool and
// default stream. Contexts are independent; streams of different contexts
// have no ordering relationship.
func NewContext() *Context {
	ctx := &Context{
		device:  defaultDevice,
		streams: make(map[int]*Stream),
		memory:  NewMemoryPool(),
	}
	ctx.defaultStream = ctx.CreateStream()
	return ctx
}

// Destroy synchronizes and shuts down all streams of the context.
func (ctx *Context) Destroy() error {
	err := ctx.Synchronize()

	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	for id, stream := range ctx.streams {
		stream.close()
		delete(ctx.streams, id)
	}
	ctx.defaultStream = nil
	return err
}

// Malloc allocates device memory of the specified size in bytes on the
// default context.
//
// Example:
//
//	d_data, err := rocblas.Malloc(1024 * 4) // Allocate 1024 float32s
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rocblas.Free(d_data)
func Malloc(size int) (DevicePtr, error) {
	return defaultContext.Malloc(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero-value DevicePtr.
func Free(ptr DevicePtr) error {
	return defaultContext.Free(ptr)
}

// Memcpy copies memory between host and device on the default context.
// Supports Go slice types ([]float32, []float64, []complex64, ...).
func Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	return defaultContext.Memcpy(dst, src, size, kind)
}

// Launch executes a kernel on the default stream of the default context.
//
// Parameters:
//   - kernel: The kernel to execute
//   - grid: Grid dimensions (number of blocks)
//   - block: Block dimensions (threads per block)
//   - args: Kernel arguments
func Launch(kernel Kernel, grid, block Dim3, args ...interface{}) error {
	return defaultContext.Launch(kernel, grid, block, args...)
}

// LaunchFunc executes a kernel function on the default stream.
func LaunchFunc(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return defaultContext.LaunchFunc(fn, grid, block, args...)
}

// Synchronize waits for all operations on all streams of the default
// context to complete.
func Synchronize() error {
	return defaultContext.Synchronize()
}

// GetDevice returns the current device information.
func GetDevice() *Device {
	return defaultDevice
}

// SetDevice sets the active device. Only device 0 exists.
func SetDevice(id int) error {
	if id != 0 {
		return ErrInvalidDevice
	}
	return nil
}

// GetDeviceCount returns the number of available devices, always 1.
func GetDeviceCount() int {
	return 1
}

// GetDeviceProperties returns device properties.
func GetDeviceProperties(id int) (*Device, error) {
	if id != 0 {
		return nil, NewInvalidArgError("GetDeviceProperties", fmt.Sprintf("invalid device ID: %d", id))
	}
	return defaultDevice, nil
}

// Context methods

// CreateStream creates a new execution stream owned by the context.
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := newStream(id)

	ctx.mu.Lock()
	ctx.streams[id] = stream
	ctx.mu.Unlock()
	return stream
}

// DefaultStream returns the context's default stream.
func (ctx *Context) DefaultStream() *Stream {
	return ctx.defaultStream
}

// Launch executes a kernel on the default stream.
func (ctx *Context) Launch(kernel Kernel, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchStream(kernel, grid, block, ctx.defaultStream, args...)
}

// LaunchFunc executes a kernel function on the default stream.
func (ctx *Context) LaunchFunc(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchFuncStream(fn, grid, block, ctx.defaultStream, args...)
}

// LaunchStream executes a kernel on a specific stream.
func (ctx *Context) LaunchStream(kernel Kernel, grid, block Dim3, stream *Stream, args ...interface{}) error {
	return ctx.launchInternal(kernel.Execute, grid, block, stream, args...)
}

// LaunchFuncStream executes a kernel function on a specific stream.
func (ctx *Context) LaunchFuncStream(fn KernelFunc, grid, block Dim3, stream *Stream, args ...interface{}) error {
	return ctx.launchInternal(fn, grid, block, stream, args...)
}

// Synchronize waits for all streams of the context to complete and
// returns the first deferred error found.
func (ctx *Context) Synchronize() error {
	ctx.mu.Lock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	ctx.mu.Unlock()

	var first error
	for _, stream := range streams {
		if err := stream.Synchronize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MemoryPool returns the context's allocation pool.
func (ctx *Context) MemoryPool() *MemoryPool {
	return ctx.memory
}

// Helper functions

// Global returns the global thread index.
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalX returns the global X index.
func (tid ThreadID) GlobalX() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalY returns the global Y index.
func (tid ThreadID) GlobalY() int {
	return tid.BlockIdx.Y*tid.BlockDim.Y + tid.ThreadIdx.Y
}

// GlobalZ returns the global Z index.
func (tid ThreadID) GlobalZ() int {
	return tid.BlockIdx.Z*tid.BlockDim.Z + tid.ThreadIdx.Z
}

// Size returns the total number of elements.
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// Implement KernelFunc as Kernel
func (fn KernelFunc) Execute(tid ThreadID, args ...interface{}) {
	fn(tid, args...)
}
