//go:build linux
// +build linux

package rocblas

import (
	"golang.org/x/sys/unix"
)

// getSystemMemory returns total system memory in bytes.
func getSystemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return defaultSystemMemory
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
