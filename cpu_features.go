package rocblas

import (
	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks available CPU instruction set extensions. The
// library itself runs portable Go, but the feature set is part of the
// device identity reported to callers and to the bench tool.
type CPUFeatures struct {
	HasSSE4     bool
	HasAVX      bool
	HasAVX2     bool
	HasAVX512F  bool
	HasAVX512DQ bool
	HasFMA      bool
	HasNEON     bool
}

var cpuFeatures CPUFeatures

func init() {
	cpuFeatures = CPUFeatures{
		HasSSE4:     cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:      cpu.X86.HasAVX,
		HasAVX2:     cpu.X86.HasAVX2,
		HasAVX512F:  cpu.X86.HasAVX512F,
		HasAVX512DQ: cpu.X86.HasAVX512DQ,
		HasFMA:      cpu.X86.HasFMA,
		HasNEON:     cpu.ARM64.HasASIMD,
	}
}

// Features returns the detected CPU instruction set extensions.
func Features() CPUFeatures {
	return cpuFeatures
}

// GetCPUInfo returns a string describing available CPU features.
func GetCPUInfo() string {
	features := []string{}

	if cpuFeatures.HasSSE4 {
		features = append(features, "SSE4")
	}
	if cpuFeatures.HasAVX {
		features = append(features, "AVX")
	}
	if cpuFeatures.HasAVX2 {
		features = append(features, "AVX2")
	}
	if cpuFeatures.HasFMA {
		features = append(features, "FMA")
	}
	if cpuFeatures.HasAVX512F {
		features = append(features, "AVX512F")
	}
	if cpuFeatures.HasAVX512DQ {
		features = append(features, "AVX512DQ")
	}
	if cpuFeatures.HasNEON {
		features = append(features, "NEON")
	}

	if len(features) == 0 {
		return "no SIMD extensions detected"
	}

	result := "CPU features: "
	for i, f := range features {
		if i > 0 {
			result += ", "
		}
		result += f
	}
	return result
}
