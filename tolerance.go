package rocblas

import (
	"fmt"
	"math"
)

// ToleranceConfig defines tolerance parameters for floating-point comparison.
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero.
	AbsTol float64

	// RelTol is the relative tolerance as a fraction of the larger value.
	RelTol float64

	// ULPTol is the maximum allowed difference in ULPs (Units in Last Place).
	ULPTol int

	// CheckNaN determines if two NaN values should be considered equal.
	CheckNaN bool

	// CheckInf determines if same-signed Inf values should be considered equal.
	CheckInf bool
}

// DefaultTolerance returns the baseline tolerance for precision R:
// ToleranceScale epsilons in both absolute and relative terms.
func DefaultTolerance[R Float]() ToleranceConfig {
	eps := float64(machineEpsilon[R]())
	return ToleranceConfig{
		AbsTol:   ToleranceScale * eps,
		RelTol:   ToleranceScale * eps,
		ULPTol:   MaxULPDiff,
		CheckNaN: true,
		CheckInf: true,
	}
}

// BandTolerance returns the tolerance for a banded matrix-vector product.
// Each output element accumulates at most kl+ku+1 terms, so the bound
// widens with the band.
func BandTolerance[R Float](kl, ku int) ToleranceConfig {
	tol := DefaultTolerance[R]()
	scale := math.Sqrt(float64(kl + ku + 2))
	tol.AbsTol *= scale
	tol.RelTol *= scale
	tol.ULPTol = 4 * MaxULPDiff
	return tol
}

// ReductionTolerance returns the tolerance for an n-term reduction.
// Rounding error in a sum grows like sqrt(n) for random data.
func ReductionTolerance[R Float](n int) ToleranceConfig {
	tol := DefaultTolerance[R]()
	if n < 1 {
		n = 1
	}
	scale := math.Sqrt(float64(n))
	tol.AbsTol *= scale
	tol.RelTol *= scale
	tol.ULPTol = 0
	return tol
}

// NearEqual checks if two values of precision R are equal within tolerance.
func NearEqual[R Float](a, b R, tol ToleranceConfig) bool {
	fa, fb := float64(a), float64(b)
	if tol.CheckNaN && math.IsNaN(fa) && math.IsNaN(fb) {
		return true
	}
	if tol.CheckInf {
		if math.IsInf(fa, 1) && math.IsInf(fb, 1) {
			return true
		}
		if math.IsInf(fa, -1) && math.IsInf(fb, -1) {
			return true
		}
	}

	// Any NaN or Inf left after the special cases cannot match.
	if badFloat(fa) || badFloat(fb) {
		return false
	}

	// Exact equality handles ±0.
	if fa == fb {
		return true
	}

	diff := math.Abs(fa - fb)
	if diff <= tol.AbsTol {
		return true
	}

	larger := math.Max(math.Abs(fa), math.Abs(fb))
	if diff <= larger*tol.RelTol {
		return true
	}

	if tol.ULPTol > 0 && ulpDiff(a, b) <= tol.ULPTol {
		return true
	}

	return false
}

// ulpDiff computes the distance in representable values between a and b.
// Differently-signed values are reported as maximally far apart.
func ulpDiff[R Float](a, b R) int {
	switch x := any(a).(type) {
	case float32:
		y := any(b).(float32)
		aBits, bBits := math.Float32bits(x), math.Float32bits(y)
		if (aBits^bBits)&0x80000000 != 0 {
			return math.MaxInt32
		}
		if aBits > bBits {
			return int(aBits - bBits)
		}
		return int(bBits - aBits)
	case float64:
		y := any(b).(float64)
		aBits, bBits := math.Float64bits(x), math.Float64bits(y)
		if (aBits^bBits)&0x8000000000000000 != 0 {
			return math.MaxInt32
		}
		d := int64(aBits) - int64(bBits)
		if d < 0 {
			d = -d
		}
		if d > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(d)
	}
	return math.MaxInt32
}

// nearEqualScalar extends NearEqual to the full scalar set. Complex
// values compare componentwise in their underlying precision.
func nearEqualScalar[T Scalar](a, b T, tol ToleranceConfig) bool {
	switch x := any(a).(type) {
	case float32:
		return NearEqual(x, any(b).(float32), tol)
	case float64:
		return NearEqual(x, any(b).(float64), tol)
	case complex64:
		y := any(b).(complex64)
		return NearEqual(real(x), real(y), tol) && NearEqual(imag(x), imag(y), tol)
	case complex128:
		y := any(b).(complex128)
		return NearEqual(real(x), real(y), tol) && NearEqual(imag(x), imag(y), tol)
	}
	return false
}

// VerificationResult summarizes a vector comparison.
type VerificationResult struct {
	MaxAbsError float64
	MaxRelError float64
	NumErrors   int
	TotalItems  int
	FirstError  int // index of first error, -1 if none
}

// VerifyVectors compares expected against actual elementwise and returns
// detailed results.
func VerifyVectors[T Scalar](expected, actual []T, tol ToleranceConfig) VerificationResult {
	result := VerificationResult{
		TotalItems: len(expected),
		FirstError: -1,
	}

	if len(expected) != len(actual) {
		result.NumErrors = len(expected)
		return result
	}

	for i := range expected {
		if nearEqualScalar(expected[i], actual[i], tol) {
			continue
		}
		result.NumErrors++
		if result.FirstError == -1 {
			result.FirstError = i
		}

		absDiff := absTo64(expected[i] - actual[i])
		if absDiff > result.MaxAbsError {
			result.MaxAbsError = absDiff
		}
		if mag := absTo64(expected[i]); mag != 0 {
			if rel := absDiff / mag; rel > result.MaxRelError {
				result.MaxRelError = rel
			}
		}
	}

	return result
}

// Passed reports whether every element matched.
func (r VerificationResult) Passed() bool {
	return r.NumErrors == 0
}

// String formats the verification result for display.
func (r VerificationResult) String() string {
	if r.NumErrors == 0 {
		return "PASS: all values match within tolerance"
	}

	errorRate := float64(r.NumErrors) / float64(r.TotalItems) * 100
	return fmt.Sprintf("FAIL: %d/%d values differ (%.2f%%)\n"+
		"  max absolute error: %e\n"+
		"  max relative error: %e\n"+
		"  first error at index: %d",
		r.NumErrors, r.TotalItems, errorRate,
		r.MaxAbsError, r.MaxRelError, r.FirstError)
}
