//go:build !linux
// +build !linux

package rocblas

// getSystemMemory returns total system memory in bytes. Platforms without
// a sysinfo call report a fixed size.
func getSystemMemory() uint64 {
	return defaultSystemMemory
}
