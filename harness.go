package rocblas

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Arguments is one test or bench case loaded from a YAML sweep file.
// Field names follow the rocblas-bench flag vocabulary, so a case can
// be replayed from a bench log line verbatim.
type Arguments struct {
	Name      string `yaml:"name,omitempty"`
	Function  string `yaml:"function"`
	Precision string `yaml:"precision"`

	TransA string `yaml:"transA,omitempty"`

	M  int `yaml:"M,omitempty"`
	N  int `yaml:"N,omitempty"`
	KL int `yaml:"KL,omitempty"`
	KU int `yaml:"KU,omitempty"`

	Alpha  float64 `yaml:"alpha,omitempty"`
	AlphaI float64 `yaml:"alphai,omitempty"`
	Beta   float64 `yaml:"beta,omitempty"`
	BetaI  float64 `yaml:"betai,omitempty"`

	LDA  int `yaml:"lda,omitempty"`
	IncX int `yaml:"incx,omitempty"`
	IncY int `yaml:"incy,omitempty"`

	StrideA int `yaml:"stride_a,omitempty"`
	StrideX int `yaml:"stride_x,omitempty"`
	StrideY int `yaml:"stride_y,omitempty"`

	BatchCount int `yaml:"batch_count,omitempty"`

	PointerModeDevice bool `yaml:"pointer_mode_device,omitempty"`

	Seed uint64 `yaml:"seed,omitempty"`
}

type argumentsFile struct {
	Tests []Arguments `yaml:"tests"`
}

var knownFunctions = map[string]bool{
	"gbmv":                 true,
	"gbmv_batched":         true,
	"gbmv_strided_batched": true,
	"asum":                 true,
	"asum_batched":         true,
	"asum_strided_batched": true,
}

var knownPrecisions = map[string]bool{
	"f32_r": true,
	"f64_r": true,
	"f32_c": true,
	"f64_c": true,
}

// LoadArguments reads a YAML sweep file and validates every case.
func LoadArguments(path string) ([]Arguments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sweep file %s", path)
	}

	var file argumentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "parsing sweep file %s", path)
	}
	if len(file.Tests) == 0 {
		return nil, errors.Errorf("sweep file %s defines no tests", path)
	}

	for i := range file.Tests {
		if err := file.Tests[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "%s case %d", path, i)
		}
	}

	return file.Tests, nil
}

// Validate checks that the case names a known function and precision.
func (a *Arguments) Validate() error {
	if !knownFunctions[a.Function] {
		return errors.Errorf("unknown function %q", a.Function)
	}
	if !knownPrecisions[a.Precision] {
		return errors.Errorf("unknown precision %q", a.Precision)
	}
	if a.IsGbmv() {
		switch a.TransA {
		case "N", "T", "C":
		default:
			return errors.Errorf("unknown transA %q", a.TransA)
		}
	}
	return nil
}

// IsGbmv reports whether the case targets the gbmv family.
func (a *Arguments) IsGbmv() bool {
	return strings.HasPrefix(a.Function, "gbmv")
}

// IsBatched reports whether the case targets a pointer-batched variant.
func (a *Arguments) IsBatched() bool {
	return strings.HasSuffix(a.Function, "_batched") &&
		!strings.HasSuffix(a.Function, "_strided_batched")
}

// IsStridedBatched reports whether the case targets a strided-batched
// variant.
func (a *Arguments) IsStridedBatched() bool {
	return strings.HasSuffix(a.Function, "_strided_batched")
}

// Trans maps the case's transA string onto an Operation.
func (a *Arguments) Trans() Operation {
	switch a.TransA {
	case "T":
		return OperationTranspose
	case "C":
		return OperationConjTranspose
	}
	return OperationNone
}

// NameSuffix builds the underscore-joined subtest name for the case,
// in the same field order the original test suites use.
func (a *Arguments) NameSuffix() string {
	var sb strings.Builder
	if a.Name != "" {
		sb.WriteString(a.Name)
		sb.WriteByte('_')
	}
	sb.WriteString(a.Precision)

	put := func(v any) {
		sb.WriteByte('_')
		switch x := v.(type) {
		case float64:
			sb.WriteString(formatFloat(x))
		default:
			fmt.Fprintf(&sb, "%v", x)
		}
	}

	if a.IsGbmv() {
		put(a.TransA)
		put(a.M)
		put(a.N)
		put(a.KL)
		put(a.KU)
		put(a.Alpha)
		put(a.LDA)
		if a.IsStridedBatched() {
			put(a.StrideA)
		}
		put(a.IncX)
		if a.IsStridedBatched() {
			put(a.StrideX)
		}
		put(a.Beta)
		put(a.IncY)
		if a.IsStridedBatched() {
			put(a.StrideY)
		}
	} else {
		put(a.N)
		put(a.IncX)
		if a.IsStridedBatched() {
			put(a.StrideX)
		}
	}

	if a.IsBatched() || a.IsStridedBatched() {
		put(a.BatchCount)
	}
	if a.PointerModeDevice {
		sb.WriteString("_devptr")
	}

	return sb.String()
}
