package rocblas

import (
	"fmt"
	"sync"
	"unsafe"
)

// MemcpyKind specifies the direction of a memory transfer. All memory here
// is CPU-accessible, so the kinds exist for API compatibility and are
// treated identically.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
	MemcpyDefault                          // Default transfer (infer direction)
)

// MemoryPool manages device memory allocation with reuse. It maintains a
// free list of previously allocated blocks to reduce allocation overhead,
// and can enforce a byte limit so allocation failure is a testable path.
type MemoryPool struct {
	mu         sync.Mutex
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
	limit      int64 // 0 means unlimited
}

type allocation struct {
	buf  []byte // keeps the block reachable for the GC
	ptr  unsafe.Pointer
	size int
	used bool
}

// NewMemoryPool creates an unbounded memory pool.
func NewMemoryPool() *MemoryPool {
	return NewMemoryPoolWithLimit(0)
}

// NewMemoryPoolWithLimit creates a pool that fails allocations once
// limit bytes are outstanding. A zero limit means unlimited.
func NewMemoryPoolWithLimit(limit int64) *MemoryPool {
	return &MemoryPool{
		allocated: make(map[uintptr]*allocation),
		limit:     limit,
	}
}

// SetLimit changes the pool's byte limit. Existing allocations are not
// reclaimed; the limit applies to subsequent Allocate calls.
func (mp *MemoryPool) SetLimit(limit int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.limit = limit
}

// Malloc allocates device memory of the specified size in bytes.
// The memory is aligned for SIMD access.
//
// Example:
//
//	ptr, err := ctx.Malloc(1024 * 4) // Allocate 1024 float32s
//	if err != nil {
//	    return err
//	}
//	defer ctx.Free(ptr)
func (ctx *Context) Malloc(size int) (DevicePtr, error) {
	return ctx.memory.Allocate(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero DevicePtr.
// The memory may be retained in the pool for future allocations.
func (ctx *Context) Free(ptr DevicePtr) error {
	return ctx.memory.Free(ptr)
}

// Memcpy copies memory between host and device.
// Supports combinations of DevicePtr and Go slices.
//
// Parameters:
//   - dst: Destination (DevicePtr or Go slice)
//   - src: Source (DevicePtr or Go slice)
//   - size: Number of bytes to copy
//   - kind: Transfer direction (for API compatibility)
//
// Example:
//
//	h_data := make([]float32, 1024)
//	d_data, _ := ctx.Malloc(1024 * 4)
//	ctx.Memcpy(d_data, h_data, 1024*4, rocblas.MemcpyHostToDevice)
func (ctx *Context) Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	dstPtr, err := memcpyPointer("Memcpy dst", dst)
	if err != nil {
		return err
	}
	srcPtr, err := memcpyPointer("Memcpy src", src)
	if err != nil {
		return err
	}

	if dstPtr != nil && srcPtr != nil && size > 0 {
		copy(unsafe.Slice((*byte)(dstPtr), size), unsafe.Slice((*byte)(srcPtr), size))
	}
	return nil
}

func memcpyPointer(op string, v interface{}) (unsafe.Pointer, error) {
	switch x := v.(type) {
	case DevicePtr:
		return x.ptr, nil
	case unsafe.Pointer:
		return x, nil
	case []byte:
		if len(x) > 0 {
			return unsafe.Pointer(&x[0]), nil
		}
	case []float32:
		if len(x) > 0 {
			return unsafe.Pointer(&x[0]), nil
		}
	case []float64:
		if len(x) > 0 {
			return unsafe.Pointer(&x[0]), nil
		}
	case []complex64:
		if len(x) > 0 {
			return unsafe.Pointer(&x[0]), nil
		}
	case []complex128:
		if len(x) > 0 {
			return unsafe.Pointer(&x[0]), nil
		}
	case []int32:
		if len(x) > 0 {
			return unsafe.Pointer(&x[0]), nil
		}
	default:
		return nil, NewInvalidArgError("Memcpy", fmt.Sprintf("unsupported %s type: %T", op, v))
	}
	return nil, nil
}

// MemoryPool methods

// Allocate allocates memory from the pool.
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size <= 0 {
		return DevicePtr{}, ErrInvalidSize
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)
	if alignedSize < MinAllocationSize {
		alignedSize = MinAllocationSize
	}

	if mp.limit > 0 && mp.totalAlloc+int64(alignedSize) > mp.limit {
		return DevicePtr{}, ErrOutOfMemory
	}

	// Try to reuse from the free list.
	for i, alloc := range mp.freeList {
		if alloc.size >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true

			mp.totalAlloc += int64(alloc.size)
			if mp.totalAlloc > mp.peakAlloc {
				mp.peakAlloc = mp.totalAlloc
			}

			return DevicePtr{
				ptr:  alloc.ptr,
				size: size,
			}, nil
		}
	}

	// Over-allocate so the aligned start still leaves alignedSize bytes.
	buf := make([]byte, alignedSize+MemoryAlignment)
	base := uintptr(unsafe.Pointer(&buf[0]))
	shift := (MemoryAlignment - int(base)&(MemoryAlignment-1)) & (MemoryAlignment - 1)
	ptr := unsafe.Pointer(&buf[shift])

	alloc := &allocation{
		buf:  buf,
		ptr:  ptr,
		size: alignedSize,
		used: true,
	}
	mp.allocated[uintptr(ptr)] = alloc

	mp.totalAlloc += int64(alignedSize)
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}

	return DevicePtr{
		ptr:  ptr,
		size: size,
	}, nil
}

// Free returns memory to the pool.
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	if ptr.ptr == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	alloc, ok := mp.allocated[uintptr(ptr.ptr)]
	if !ok {
		return NewMemoryError("Free", "pointer not found in allocation pool", nil)
	}
	if !alloc.used {
		return ErrDoubleFree
	}

	alloc.used = false
	mp.totalAlloc -= int64(alloc.size)

	if len(mp.freeList) >= FreeListThreshold {
		// Drop the block instead of hoarding it.
		delete(mp.allocated, uintptr(ptr.ptr))
		return nil
	}
	mp.freeList = append(mp.freeList, alloc)
	return nil
}

// GetStats returns current and peak outstanding bytes.
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// DevicePtr methods for convenience

// Float32 returns a float32 slice view of the device memory.
// The slice can be used directly for reading and writing data.
//
// Example:
//
//	d_data, _ := rocblas.Malloc(1024 * 4) // Allocate for 1024 float32s
//	data := d_data.Float32()
//	data[0] = 3.14 // Direct access
func (d DevicePtr) Float32() []float32 {
	return deviceView[float32](d)
}

// Float64 returns a float64 slice view of the device memory.
func (d DevicePtr) Float64() []float64 {
	return deviceView[float64](d)
}

// Complex64 returns a complex64 slice view of the device memory.
func (d DevicePtr) Complex64() []complex64 {
	return deviceView[complex64](d)
}

// Complex128 returns a complex128 slice view of the device memory.
func (d DevicePtr) Complex128() []complex128 {
	return deviceView[complex128](d)
}

// Int32 returns an int32 slice view of the device memory.
func (d DevicePtr) Int32() []int32 {
	if d.ptr == nil {
		return nil
	}
	n := d.size / 4
	return unsafe.Slice((*int32)(d.ptr), n)
}

// Byte returns a byte slice view covering the whole region.
func (d DevicePtr) Byte() []byte {
	if d.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(d.ptr), d.size)
}

// deviceView reinterprets the region as a []T. Kernels address their
// operands through these views.
func deviceView[T Scalar](d DevicePtr) []T {
	if d.ptr == nil {
		return nil
	}
	var t T
	n := d.size / int(unsafe.Sizeof(t))
	return unsafe.Slice((*T)(d.ptr), n)
}

// Offset returns a new DevicePtr offset by the given number of bytes.
// The returned DevicePtr shares the same underlying memory.
//
// Example:
//
//	d_array, _ := rocblas.Malloc(1024 * 4) // 1024 float32s
//	d_second_half := d_array.Offset(512 * 4)
//	data := d_second_half.Float32()
func (d DevicePtr) Offset(bytes int) DevicePtr {
	return DevicePtr{
		ptr:    unsafe.Pointer(uintptr(d.ptr) + uintptr(bytes)),
		size:   d.size - bytes,
		offset: d.offset + bytes,
	}
}

// Size returns the size in bytes of the memory region.
func (d DevicePtr) Size() int {
	return d.size
}

// IsNull reports whether the pointer refers to no memory.
func (d DevicePtr) IsNull() bool {
	return d.ptr == nil
}

// String renders the address, which is what trace lines record for
// device operands.
func (d DevicePtr) String() string {
	return fmt.Sprintf("%p", d.ptr)
}
