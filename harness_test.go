package rocblas

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadArguments(t *testing.T) {
	cases, err := LoadArguments(filepath.Join("testdata", "gbmv_smoke.yaml"))
	require.NoError(t, err)
	require.Len(t, cases, 8)

	first := cases[0]
	assert.Equal(t, "doc_example", first.Name)
	assert.Equal(t, "gbmv", first.Function)
	assert.Equal(t, "f32_r", first.Precision)
	assert.Equal(t, "N", first.TransA)
	assert.Equal(t, 5, first.M)
	assert.Equal(t, 5, first.N)
	assert.Equal(t, 2, first.KL)
	assert.Equal(t, 1, first.KU)
	assert.Equal(t, 2.0, first.Alpha)
	assert.Equal(t, 3.0, first.Beta)
	assert.Equal(t, 4, first.LDA)
	assert.Equal(t, uint64(42), first.Seed)

	var devCases, batched, strided int
	for _, a := range cases {
		if a.PointerModeDevice {
			devCases++
		}
		if a.IsBatched() {
			batched++
		}
		if a.IsStridedBatched() {
			strided++
		}
	}
	assert.Equal(t, 1, devCases)
	assert.Equal(t, 1, batched)
	assert.Equal(t, 1, strided)

	asumCases, err := LoadArguments(filepath.Join("testdata", "asum_smoke.yaml"))
	require.NoError(t, err)
	require.Len(t, asumCases, 8)
	last := asumCases[7]
	assert.Equal(t, "asum_strided_batched", last.Function)
	assert.Equal(t, 1500, last.StrideX)
	assert.Equal(t, 2, last.BatchCount)
}

func TestLoadArgumentsErrors(t *testing.T) {
	_, err := LoadArguments(filepath.Join("testdata", "no_such_file.yaml"))
	require.Error(t, err)

	_, err = LoadArguments(filepath.Join("testdata", "bad_function.yaml"))
	require.ErrorContains(t, err, "unknown function")

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("tests: []\n"), 0o644))
	_, err = LoadArguments(empty)
	require.ErrorContains(t, err, "defines no tests")

	mangled := filepath.Join(t.TempDir(), "mangled.yaml")
	require.NoError(t, os.WriteFile(mangled, []byte("tests: [\n"), 0o644))
	_, err = LoadArguments(mangled)
	require.ErrorContains(t, err, "parsing sweep file")
}

func TestArgumentsValidate(t *testing.T) {
	good := Arguments{Function: "asum", Precision: "f64_c", N: 100, IncX: 1}
	assert.NoError(t, good.Validate())

	badPrecision := Arguments{Function: "gbmv", Precision: "f16_r", TransA: "N"}
	require.ErrorContains(t, badPrecision.Validate(), "unknown precision")

	badTrans := Arguments{Function: "gbmv", Precision: "f32_r", TransA: "X"}
	require.ErrorContains(t, badTrans.Validate(), "unknown transA")

	// transA is a gbmv-only field; asum cases leave it empty.
	noTrans := Arguments{Function: "asum_batched", Precision: "f32_r", N: 10, IncX: 1, BatchCount: 2}
	assert.NoError(t, noTrans.Validate())
}

func TestArgumentsClassifiers(t *testing.T) {
	cases := []struct {
		function  string
		isGbmv    bool
		isBatched bool
		isStrided bool
	}{
		{"gbmv", true, false, false},
		{"gbmv_batched", true, true, false},
		{"gbmv_strided_batched", true, false, true},
		{"asum", false, false, false},
		{"asum_batched", false, true, false},
		{"asum_strided_batched", false, false, true},
	}
	for _, c := range cases {
		a := Arguments{Function: c.function}
		assert.Equal(t, c.isGbmv, a.IsGbmv(), c.function)
		assert.Equal(t, c.isBatched, a.IsBatched(), c.function)
		assert.Equal(t, c.isStrided, a.IsStridedBatched(), c.function)
	}
}

func TestArgumentsTrans(t *testing.T) {
	assert.Equal(t, OperationNone, (&Arguments{TransA: "N"}).Trans())
	assert.Equal(t, OperationNone, (&Arguments{}).Trans())
	assert.Equal(t, OperationTranspose, (&Arguments{TransA: "T"}).Trans())
	assert.Equal(t, OperationConjTranspose, (&Arguments{TransA: "C"}).Trans())
}

func TestArgumentsNameSuffix(t *testing.T) {
	doc := Arguments{
		Name: "doc_example", Function: "gbmv", Precision: "f32_r", TransA: "N",
		M: 5, N: 5, KL: 2, KU: 1, Alpha: 2, Beta: 3, LDA: 4, IncX: 1, IncY: 1,
	}
	assert.Equal(t, "doc_example_f32_r_N_5_5_2_1_2_4_1_3_1", doc.NameSuffix())

	strided := Arguments{
		Function: "gbmv_strided_batched", Precision: "f64_r", TransA: "T",
		M: 15, N: 11, KL: 1, KU: 4, Alpha: 1, Beta: 0, LDA: 6,
		StrideA: 70, IncX: 1, StrideX: 16, IncY: 1, StrideY: 12, BatchCount: 4,
	}
	assert.Equal(t, "f64_r_T_15_11_1_4_1_6_70_1_16_0_1_12_4", strided.NameSuffix())

	fractional := Arguments{
		Function: "gbmv", Precision: "f32_r", TransA: "C",
		M: 3, N: 4, KL: 1, KU: 1, Alpha: 2.5, Beta: -0.25, LDA: 3, IncX: -1, IncY: 2,
	}
	assert.Equal(t, "f32_r_C_3_4_1_1_2.5_3_-1_-0.25_2", fractional.NameSuffix())

	asum := Arguments{Function: "asum", Precision: "f64_r", N: 1000, IncX: 2}
	assert.Equal(t, "f64_r_1000_2", asum.NameSuffix())

	batchedDev := Arguments{
		Function: "asum_batched", Precision: "f32_c", N: 400, IncX: 1,
		BatchCount: 3, PointerModeDevice: true,
	}
	assert.Equal(t, "f32_c_400_1_3_devptr", batchedDev.NameSuffix())
}

// TestYAMLSweeps replays every smoke-sweep case against the reference
// loops, fanned out over a worker pool the way a full suite run would be.
func TestYAMLSweeps(t *testing.T) {
	pool := NewWorkerPool(4)
	for _, file := range []string{"gbmv_smoke.yaml", "asum_smoke.yaml"} {
		cases, err := LoadArguments(filepath.Join("testdata", file))
		require.NoError(t, err)
		for _, a := range cases {
			a := a
			pool.Submit(func() {
				if err := runSweepCase(a); err != nil {
					t.Errorf("%s: %v", a.NameSuffix(), err)
				}
			})
		}
	}
	pool.Close()
}

func runSweepCase(a Arguments) error {
	switch a.Precision {
	case "f32_r":
		return sweepCase[float32, float32](a)
	case "f64_r":
		return sweepCase[float64, float64](a)
	case "f32_c":
		return sweepCase[complex64, float32](a)
	case "f64_c":
		return sweepCase[complex128, float64](a)
	}
	return errors.Errorf("unknown precision %q", a.Precision)
}

func sweepCase[T Scalar, R Float](a Arguments) error {
	h := NewHandle()
	defer h.Close()
	if a.PointerModeDevice {
		h.SetPointerMode(PointerModeDevice)
	}
	if a.IsGbmv() {
		return sweepGbmv[T, R](h, a)
	}
	return sweepAsum[T, R](h, a)
}

func sweepUpload[T Scalar](data []T, allocs *[]DevicePtr) (DevicePtr, error) {
	var v T
	bytes := len(data) * int(unsafe.Sizeof(v))
	d, err := Malloc(bytes)
	if err != nil {
		return DevicePtr{}, err
	}
	*allocs = append(*allocs, d)
	if err := Memcpy(d, data, bytes, MemcpyHostToDevice); err != nil {
		return DevicePtr{}, err
	}
	return d, nil
}

func sweepDownload[T Scalar](src DevicePtr, n int) ([]T, error) {
	out := make([]T, n)
	var v T
	if err := Memcpy(out, src, n*int(unsafe.Sizeof(v)), MemcpyDeviceToHost); err != nil {
		return nil, err
	}
	return out, nil
}

func freeAll(allocs []DevicePtr) {
	for _, d := range allocs {
		Free(d)
	}
}

func sweepGbmv[T Scalar, R Float](h *Handle, a Arguments) error {
	trans := a.Trans()
	xlen, ylen := a.N, a.M
	if trans != OperationNone {
		xlen, ylen = a.M, a.N
	}
	tol := BandTolerance[R](a.KL, a.KU)
	ref := Reference[T]{}

	var allocs []DevicePtr
	defer func() { freeAll(allocs) }()

	alpha := MakeScalar[T](a.Alpha, a.AlphaI)
	beta := MakeScalar[T](a.Beta, a.BetaI)
	alphaPtr, betaPtr := &alpha, &beta
	if a.PointerModeDevice {
		var v T
		d, err := Malloc(2 * int(unsafe.Sizeof(v)))
		if err != nil {
			return err
		}
		allocs = append(allocs, d)
		sv := deviceView[T](d)
		sv[0], sv[1] = alpha, beta
		alphaPtr, betaPtr = &sv[0], &sv[1]
	}

	verify := func(want, got []T) error {
		if res := VerifyVectors(want, got, tol); !res.Passed() {
			return errors.New(res.String())
		}
		return nil
	}

	switch {
	case a.IsStridedBatched():
		batch := a.BatchCount
		hA := make([]T, a.StrideA*(batch-1)+a.LDA*a.N)
		for b := 0; b < batch; b++ {
			copy(hA[b*a.StrideA:], GenerateBandedMatrix[T](a.M, a.N, a.KL, a.KU, a.LDA, a.Seed+uint64(b)))
		}
		hX := GenerateScalarsRange[T](a.StrideX*(batch-1)+span(xlen, a.IncX), a.Seed+100, -1, 1)
		hY := GenerateScalarsRange[T](a.StrideY*(batch-1)+span(ylen, a.IncY), a.Seed+200, -1, 1)
		want := append([]T(nil), hY...)
		for b := 0; b < batch; b++ {
			ref.Gbmv(trans, a.M, a.N, a.KL, a.KU, alpha, hA[b*a.StrideA:], a.LDA,
				hX[b*a.StrideX:], a.IncX, beta, want[b*a.StrideY:], a.IncY)
		}

		dA, err := sweepUpload(hA, &allocs)
		if err != nil {
			return err
		}
		dX, err := sweepUpload(hX, &allocs)
		if err != nil {
			return err
		}
		dY, err := sweepUpload(hY, &allocs)
		if err != nil {
			return err
		}
		if st := GbmvStridedBatched(h, trans, a.M, a.N, a.KL, a.KU,
			alphaPtr, dA, a.LDA, a.StrideA, dX, a.IncX, a.StrideX,
			betaPtr, dY, a.IncY, a.StrideY, batch); st != StatusSuccess {
			return errors.Errorf("status %v", st)
		}
		if err := h.Synchronize(); err != nil {
			return err
		}
		got, err := sweepDownload[T](dY, len(want))
		if err != nil {
			return err
		}
		return verify(want, got)

	case a.IsBatched():
		batch := a.BatchCount
		dAs := make([]DevicePtr, batch)
		dXs := make([]DevicePtr, batch)
		dYs := make([]DevicePtr, batch)
		wants := make([][]T, batch)
		for b := 0; b < batch; b++ {
			seed := a.Seed + 3*uint64(b)
			hA := GenerateBandedMatrix[T](a.M, a.N, a.KL, a.KU, a.LDA, seed)
			hX := GenerateScalarsRange[T](span(xlen, a.IncX), seed+1, -1, 1)
			hY := GenerateScalarsRange[T](span(ylen, a.IncY), seed+2, -1, 1)
			wants[b] = append([]T(nil), hY...)
			ref.Gbmv(trans, a.M, a.N, a.KL, a.KU, alpha, hA, a.LDA, hX, a.IncX, beta, wants[b], a.IncY)

			var err error
			if dAs[b], err = sweepUpload(hA, &allocs); err != nil {
				return err
			}
			if dXs[b], err = sweepUpload(hX, &allocs); err != nil {
				return err
			}
			if dYs[b], err = sweepUpload(hY, &allocs); err != nil {
				return err
			}
		}
		if st := GbmvBatched(h, trans, a.M, a.N, a.KL, a.KU,
			alphaPtr, dAs, a.LDA, dXs, a.IncX, betaPtr, dYs, a.IncY, batch); st != StatusSuccess {
			return errors.Errorf("status %v", st)
		}
		if err := h.Synchronize(); err != nil {
			return err
		}
		for b := 0; b < batch; b++ {
			got, err := sweepDownload[T](dYs[b], len(wants[b]))
			if err != nil {
				return err
			}
			if err := verify(wants[b], got); err != nil {
				return errors.Wrapf(err, "instance %d", b)
			}
		}
		return nil

	default:
		hA := GenerateBandedMatrix[T](a.M, a.N, a.KL, a.KU, a.LDA, a.Seed)
		hX := GenerateScalarsRange[T](span(xlen, a.IncX), a.Seed+1, -1, 1)
		hY := GenerateScalarsRange[T](span(ylen, a.IncY), a.Seed+2, -1, 1)
		want := append([]T(nil), hY...)
		ref.Gbmv(trans, a.M, a.N, a.KL, a.KU, alpha, hA, a.LDA, hX, a.IncX, beta, want, a.IncY)

		dA, err := sweepUpload(hA, &allocs)
		if err != nil {
			return err
		}
		dX, err := sweepUpload(hX, &allocs)
		if err != nil {
			return err
		}
		dY, err := sweepUpload(hY, &allocs)
		if err != nil {
			return err
		}
		if st := Gbmv(h, trans, a.M, a.N, a.KL, a.KU,
			alphaPtr, dA, a.LDA, dX, a.IncX, betaPtr, dY, a.IncY); st != StatusSuccess {
			return errors.Errorf("status %v", st)
		}
		if err := h.Synchronize(); err != nil {
			return err
		}
		got, err := sweepDownload[T](dY, len(want))
		if err != nil {
			return err
		}
		return verify(want, got)
	}
}

func sweepAsum[T Scalar, R Float](h *Handle, a Arguments) error {
	tol := ReductionTolerance[R](a.N)
	ref := Reference[T]{}

	var allocs []DevicePtr
	defer func() { freeAll(allocs) }()

	batch := a.BatchCount
	if !a.IsBatched() && !a.IsStridedBatched() {
		batch = 1
	}

	results := make([]R, batch)
	resSlice := results
	if a.PointerModeDevice {
		var r R
		d, err := Malloc(batch * int(unsafe.Sizeof(r)))
		if err != nil {
			return err
		}
		allocs = append(allocs, d)
		resSlice = deviceView[R](d)[:batch]
	}

	check := func(b int, want float64) error {
		if !NearEqual(R(want), resSlice[b], tol) {
			return errors.Errorf("instance %d: got %v, want %v", b, resSlice[b], want)
		}
		return nil
	}

	switch {
	case a.IsStridedBatched():
		hX := GenerateScalarsRange[T](a.StrideX*(batch-1)+span(a.N, a.IncX), a.Seed, -1, 1)
		dX, err := sweepUpload(hX, &allocs)
		if err != nil {
			return err
		}
		if st := AsumStridedBatched[T, R](h, a.N, dX, a.IncX, a.StrideX, batch, resSlice); st != StatusSuccess {
			return errors.Errorf("status %v", st)
		}
		if err := h.Synchronize(); err != nil {
			return err
		}
		for b := 0; b < batch; b++ {
			if err := check(b, ref.Asum(a.N, hX[b*a.StrideX:], a.IncX)); err != nil {
				return err
			}
		}
		return nil

	case a.IsBatched():
		ptrs := make([]DevicePtr, batch)
		hXs := make([][]T, batch)
		for b := 0; b < batch; b++ {
			hXs[b] = GenerateScalarsRange[T](span(a.N, a.IncX), a.Seed+uint64(b), -1, 1)
			var err error
			if ptrs[b], err = sweepUpload(hXs[b], &allocs); err != nil {
				return err
			}
		}
		if st := AsumBatched[T, R](h, a.N, ptrs, a.IncX, batch, resSlice); st != StatusSuccess {
			return errors.Errorf("status %v", st)
		}
		if err := h.Synchronize(); err != nil {
			return err
		}
		for b := 0; b < batch; b++ {
			if err := check(b, ref.Asum(a.N, hXs[b], a.IncX)); err != nil {
				return err
			}
		}
		return nil

	default:
		hX := GenerateScalarsRange[T](span(a.N, a.IncX), a.Seed, -1, 1)
		dX, err := sweepUpload(hX, &allocs)
		if err != nil {
			return err
		}
		if st := Asum[T, R](h, a.N, dX, a.IncX, &resSlice[0]); st != StatusSuccess {
			return errors.Errorf("status %v", st)
		}
		if err := h.Synchronize(); err != nil {
			return err
		}
		return check(0, ref.Asum(a.N, hX, a.IncX))
	}
}
