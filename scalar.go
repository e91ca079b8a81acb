// Package rocblas generic scalar kinds and pointer-mode scalar resolution
package rocblas

import (
	"math"
)

// Float is the constraint for the real-valued routine precisions.
type Float interface {
	~float32 | ~float64
}

// Complex is the constraint for the complex routine precisions.
type Complex interface {
	~complex64 | ~complex128
}

// Scalar is any element type a routine operates on.
type Scalar interface {
	Float | Complex
}

// MakeScalar assembles a value of type T from real and imaginary parts.
// Real types ignore im.
func MakeScalar[T Scalar](re, im float64) T {
	var v T
	switch any(v).(type) {
	case float32:
		return any(float32(re)).(T)
	case float64:
		return any(re).(T)
	case complex64:
		return any(complex(float32(re), float32(im))).(T)
	case complex128:
		return any(complex(re, im)).(T)
	}
	return v
}

// conjugate returns the complex conjugate, identity for real types.
func conjugate[T Scalar](x T) T {
	switch v := any(x).(type) {
	case complex64:
		return any(complex(real(v), -imag(v))).(T)
	case complex128:
		return any(complex(real(v), -imag(v))).(T)
	}
	return x
}

// abs1 is the reduction fetch: |x| for real types, |re|+|im| for complex.
func abs1[T Scalar, R Float](x T) R {
	switch v := any(x).(type) {
	case float32:
		return R(math.Abs(float64(v)))
	case float64:
		return R(math.Abs(v))
	case complex64:
		return R(math.Abs(float64(real(v))) + math.Abs(float64(imag(v))))
	case complex128:
		return R(math.Abs(real(v)) + math.Abs(imag(v)))
	}
	return 0
}

// isNaNOrInf reports whether x (or either complex part) is NaN or Inf.
func isNaNOrInf[T Scalar](x T) bool {
	switch v := any(x).(type) {
	case float32:
		return badFloat(float64(v))
	case float64:
		return badFloat(v)
	case complex64:
		return badFloat(float64(real(v))) || badFloat(float64(imag(v)))
	case complex128:
		return badFloat(real(v)) || badFloat(imag(v))
	}
	return false
}

func badFloat(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// machineEpsilon returns the unit roundoff of the real precision R.
func machineEpsilon[R Float]() R {
	var r R
	if _, ok := any(r).(float64); ok {
		return R(Float64Epsilon)
	}
	return R(Float32Epsilon)
}

// precisionPrefix is the single-letter precision code used in routine
// names: s, d, c, z.
func precisionPrefix[T Scalar]() string {
	var t T
	switch any(t).(type) {
	case float32:
		return "s"
	case float64:
		return "d"
	case complex64:
		return "c"
	case complex128:
		return "z"
	}
	return "?"
}

// precisionString is the precision code bench lines pass to -r.
func precisionString[T Scalar]() string {
	var t T
	switch any(t).(type) {
	case float32:
		return "f32_r"
	case float64:
		return "f64_r"
	case complex64:
		return "f32_c"
	case complex128:
		return "f64_c"
	}
	return "?"
}

// scalarOperand carries a routine scalar (alpha, beta) together with the
// pointer mode it was captured under. Host mode snapshots the value at the
// call boundary; device mode defers the read until the kernel executes so
// a stream-ordered write to the scalar lands first.
type scalarOperand[T Scalar] struct {
	ptr  *T
	val  T
	host bool
}

func newScalar[T Scalar](mode PointerMode, p *T) scalarOperand[T] {
	s := scalarOperand[T]{ptr: p, host: mode == PointerModeHost}
	if s.host && p != nil {
		s.val = *p
	}
	return s
}

// load resolves the scalar value. Call only after null checks passed.
func (s scalarOperand[T]) load() T {
	if s.host {
		return s.val
	}
	return *s.ptr
}
