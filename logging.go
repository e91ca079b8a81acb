// Package rocblas layer-mode logging: trace lines, replayable bench
// command strings, and per-call profile counts.
package rocblas

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// LayerMode selects which observability channels a handle emits.
// The value is a bitmask read from ROCBLAS_LAYER at handle creation and
// adjustable per handle with SetLayerMode.
type LayerMode int

const (
	// LayerModeNone disables layer logging.
	LayerModeNone LayerMode = 0x0
	// LayerModeLogTrace emits one line per call with the argument list.
	LayerModeLogTrace LayerMode = 0x1
	// LayerModeLogBench emits a command line that replays the call.
	LayerModeLogBench LayerMode = 0x2
	// LayerModeLogProfile counts identical calls, dumped at handle Close.
	LayerModeLogProfile LayerMode = 0x4
)

// layerModeEnv is the environment variable holding the startup bitmask.
const layerModeEnv = "ROCBLAS_LAYER"

func layerModeFromEnv() LayerMode {
	v := os.Getenv(layerModeEnv)
	if v == "" {
		return LayerModeNone
	}
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		klog.Warningf("rocblas: invalid %s value %q: %v", layerModeEnv, v, err)
		return LayerModeNone
	}
	return LayerMode(n)
}

// logTrace emits the call name followed by its arguments, comma separated,
// mirroring the trace channel of the layer protocol.
func (h *Handle) logTrace(name string, args ...interface{}) {
	if h == nil || h.layerMode&LayerModeLogTrace == 0 {
		return
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	klog.Infof("rocblas trace: %s", strings.Join(parts, ","))
}

// logBench emits a replayable rocblas-bench invocation.
func (h *Handle) logBench(tokens ...string) {
	if h == nil || h.layerMode&LayerModeLogBench == 0 {
		return
	}
	klog.Infof("rocblas bench: ./rocblas-bench %s", strings.Join(tokens, " "))
}

// logProfile counts one call under the given signature. The counts are
// dumped when the handle closes.
func (h *Handle) logProfile(signature string) {
	if h == nil || h.layerMode&LayerModeLogProfile == 0 {
		return
	}
	h.profileMu.Lock()
	if h.profile == nil {
		h.profile = make(map[string]int64)
	}
	h.profile[signature]++
	h.profileMu.Unlock()
}

// dumpProfile writes the accumulated call counts, one line per distinct
// signature, sorted for stable output.
func (h *Handle) dumpProfile() {
	h.profileMu.Lock()
	defer h.profileMu.Unlock()
	if len(h.profile) == 0 {
		return
	}
	keys := make([]string, 0, len(h.profile))
	for k := range h.profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		klog.Infof("rocblas profile: %s: calls: %d", k, h.profile[k])
	}
	h.profile = nil
}

// traceScalar renders a scalar for the trace channel: the value when it
// was captured host-side, the address otherwise.
func traceScalar[T Scalar](s scalarOperand[T]) interface{} {
	if s.host && s.ptr != nil {
		return s.val
	}
	return fmt.Sprintf("%p", s.ptr)
}

// benchScalar renders a scalar as bench flags. Complex values carry a
// second flag for the imaginary part. Device-mode scalars are not
// readable at log time and render as the flag alone.
func benchScalar[T Scalar](flag string, s scalarOperand[T]) []string {
	if !s.host || s.ptr == nil {
		return nil
	}
	switch v := any(s.val).(type) {
	case float32:
		return []string{"--" + flag, formatFloat(float64(v))}
	case float64:
		return []string{"--" + flag, formatFloat(v)}
	case complex64:
		return []string{"--" + flag, formatFloat(float64(real(v))), "--" + flag + "i", formatFloat(float64(imag(v)))}
	case complex128:
		return []string{"--" + flag, formatFloat(real(v)), "--" + flag + "i", formatFloat(imag(v))}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
