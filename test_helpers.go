package rocblas

import (
	"testing"
	"unsafe"
)

// MallocOrFail allocates device memory and fails the test if unsuccessful.
func MallocOrFail(t testing.TB, size int) DevicePtr {
	t.Helper()
	ptr, err := Malloc(size)
	if err != nil {
		t.Fatalf("failed to allocate %d bytes: %v", size, err)
	}
	return ptr
}

// MemcpyOrFail copies data and fails the test if unsuccessful.
func MemcpyOrFail(t testing.TB, dst DevicePtr, src any, size int, direction MemcpyKind) {
	t.Helper()
	err := Memcpy(dst, src, size, direction)
	if err != nil {
		t.Fatalf("Memcpy failed: %v", err)
	}
}

// LaunchOrFail launches a kernel and fails the test if unsuccessful.
func LaunchOrFail(t testing.TB, kernel KernelFunc, grid, block Dim3, args ...any) {
	t.Helper()
	err := Launch(kernel, grid, block, args...)
	if err != nil {
		t.Fatalf("kernel launch failed: %v", err)
	}
}

// SynchronizeOrFail synchronizes the default stream and fails the test
// if unsuccessful.
func SynchronizeOrFail(t testing.TB) {
	t.Helper()
	err := Synchronize()
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
}

// UploadOrFail allocates device memory sized for data, copies data into
// it, and frees it when the test ends.
func UploadOrFail[T Scalar](t testing.TB, data []T) DevicePtr {
	t.Helper()
	var elem T
	d := MallocOrFail(t, len(data)*int(unsafe.Sizeof(elem)))
	t.Cleanup(func() { _ = Free(d) })
	copy(deviceView[T](d), data)
	return d
}

// DownloadOrFail copies n elements out of device memory into a fresh
// slice.
func DownloadOrFail[T Scalar](t testing.TB, src DevicePtr, n int) []T {
	t.Helper()
	out := make([]T, n)
	copy(out, deviceView[T](src)[:n])
	return out
}

// HandleOrFail creates a Handle and registers its cleanup with the test.
func HandleOrFail(t testing.TB) *Handle {
	t.Helper()
	h := NewHandle()
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("handle close: %v", err)
		}
	})
	return h
}
