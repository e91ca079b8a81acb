// github.com/urfave/cli/v3 v3.6.2 declares `go 1.22`, so this command
// needs a go1.22+ toolchain; the constraint keeps older toolchains
// building the rest of the module.
//go:build go1.22

// Command rocblas-bench times gbmv and asum variants and reports
// GFLOPS, GB/s and microseconds per call. Flags mirror the replay lines
// the library writes under ROCBLAS_LAYER=2, so a logged line can be
// pasted back to reproduce a measurement. A YAML sweep file runs many
// cases in one invocation.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	rocblas "github.com/estewart08/rocBLAS"
)

func sizeOf[T rocblas.Scalar](v T) int {
	return int(unsafe.Sizeof(v))
}

func main() {
	app := benchCmd()
	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func benchCmd() *cli.Command {
	var (
		arg      rocblas.Arguments
		alphaI   float64
		betaI    float64
		iters    int64
		warmup   int64
		yamlPath string
		logJSON  bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "function",
			Aliases:     []string{"f"},
			Usage:       "routine to time: gbmv[_batched|_strided_batched], asum[_batched|_strided_batched]",
			Destination: &arg.Function,
		},
		&cli.StringFlag{
			Name:        "precision",
			Aliases:     []string{"r"},
			Usage:       "f32_r, f64_r, f32_c, f64_c (or s, d, c, z)",
			Value:       "f32_r",
			Destination: &arg.Precision,
		},
		&cli.StringFlag{
			Name:        "transposeA",
			Usage:       "N, T or C",
			Value:       "N",
			Destination: &arg.TransA,
		},
		&cli.IntFlag{Name: "m", Destination: &arg.M},
		&cli.IntFlag{Name: "n", Destination: &arg.N},
		&cli.IntFlag{Name: "kl", Destination: &arg.KL},
		&cli.IntFlag{Name: "ku", Destination: &arg.KU},
		&cli.FloatFlag{Name: "alpha", Value: 1, Destination: &arg.Alpha},
		&cli.FloatFlag{Name: "alphai", Destination: &alphaI},
		&cli.FloatFlag{Name: "beta", Destination: &arg.Beta},
		&cli.FloatFlag{Name: "betai", Destination: &betaI},
		&cli.IntFlag{Name: "lda", Destination: &arg.LDA},
		&cli.IntFlag{Name: "incx", Value: 1, Destination: &arg.IncX},
		&cli.IntFlag{Name: "incy", Value: 1, Destination: &arg.IncY},
		&cli.IntFlag{Name: "stride_a", Destination: &arg.StrideA},
		&cli.IntFlag{Name: "stride_x", Destination: &arg.StrideX},
		&cli.IntFlag{Name: "stride_y", Destination: &arg.StrideY},
		&cli.IntFlag{Name: "batch_count", Value: 1, Destination: &arg.BatchCount},
		&cli.BoolFlag{
			Name:        "device_ptr",
			Usage:       "use device pointer mode for scalars and results",
			Destination: &arg.PointerModeDevice,
		},
		&cli.Int64Flag{
			Name:        "iters",
			Aliases:     []string{"i"},
			Usage:       "timed iterations",
			Value:       100,
			Destination: &iters,
		},
		&cli.Int64Flag{
			Name:        "cold_iters",
			Aliases:     []string{"j"},
			Usage:       "untimed warmup iterations",
			Value:       2,
			Destination: &warmup,
		},
		&cli.StringFlag{
			Name:        "yaml",
			Usage:       "run every case in a YAML sweep file instead of flag arguments",
			Destination: &yamlPath,
		},
		&cli.BoolFlag{
			Name:        "log_json",
			Usage:       "record results to benchmark_logs/ and print a session summary",
			Destination: &logJSON,
		},
	}

	return &cli.Command{
		Name:  "rocblas-bench",
		Usage: "Time BLAS routines on the CPU device",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			printBanner()

			if logJSON {
				if err := rocblas.InitBenchLogger("rocblas_bench"); err != nil {
					return cli.Exit(fmt.Sprintf("error: init bench log: %v", err), 1)
				}
			}

			var cases []rocblas.Arguments
			if yamlPath != "" {
				loaded, err := rocblas.LoadArguments(yamlPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				cases = loaded
			} else {
				arg.Precision = normalizePrecision(arg.Precision)
				arg.AlphaI = alphaI
				arg.BetaI = betaI
				if err := arg.Validate(); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				cases = []rocblas.Arguments{arg}
			}

			for _, c := range cases {
				if err := runCase(c, int(warmup), int(iters), logJSON); err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", c.NameSuffix(), err), 1)
				}
			}

			if logJSON {
				if err := rocblas.PrintBenchSummary(); err != nil {
					return cli.Exit(fmt.Sprintf("error: summary: %v", err), 1)
				}
			}
			return nil
		},
	}
}

func printBanner() {
	dev, err := rocblas.GetDeviceProperties(0)
	if err != nil {
		return
	}
	fmt.Println("=== rocblas-bench ===")
	fmt.Printf("Device:   %s\n", dev.Name)
	fmt.Printf("Memory:   %s\n", humanize.IBytes(dev.TotalMem))
	fmt.Printf("Cores:    %d\n", dev.NumCores)
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println(rocblas.GetCPUInfo())
	fmt.Println()
}

func normalizePrecision(r string) string {
	switch strings.ToLower(r) {
	case "s":
		return "f32_r"
	case "d":
		return "f64_r"
	case "c":
		return "f32_c"
	case "z":
		return "f64_c"
	}
	return strings.ToLower(r)
}

// runCase dispatches on precision. asum pairs each input type with its
// real result type.
func runCase(arg rocblas.Arguments, warmup, iters int, logJSON bool) error {
	if arg.IsGbmv() {
		switch arg.Precision {
		case "f32_r":
			return runGbmv[float32](arg, warmup, iters, logJSON)
		case "f64_r":
			return runGbmv[float64](arg, warmup, iters, logJSON)
		case "f32_c":
			return runGbmv[complex64](arg, warmup, iters, logJSON)
		case "f64_c":
			return runGbmv[complex128](arg, warmup, iters, logJSON)
		}
	} else {
		switch arg.Precision {
		case "f32_r":
			return runAsum[float32, float32](arg, warmup, iters, logJSON)
		case "f64_r":
			return runAsum[float64, float64](arg, warmup, iters, logJSON)
		case "f32_c":
			return runAsum[complex64, float32](arg, warmup, iters, logJSON)
		case "f64_c":
			return runAsum[complex128, float64](arg, warmup, iters, logJSON)
		}
	}
	return fmt.Errorf("unsupported precision %q", arg.Precision)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// spanOf is the element count a strided vector of length n touches.
func spanOf(n, inc int) int {
	if n <= 0 {
		return 0
	}
	return 1 + (n-1)*absInt(inc)
}

// bandElements counts stored elements inside the band, exactly.
func bandElements(m, n, kl, ku int) int {
	total := 0
	for j := 0; j < n; j++ {
		lo := max(0, ku-j)
		hi := min(kl+ku, ku+m-1-j)
		if hi >= lo {
			total += hi - lo + 1
		}
	}
	return total
}

func isComplexPrecision(p string) bool {
	return strings.HasSuffix(p, "_c")
}

func runGbmv[T rocblas.Scalar](arg rocblas.Arguments, warmup, iters int, logJSON bool) error {
	h := rocblas.NewHandle()
	defer h.Close()
	if arg.PointerModeDevice {
		h.SetPointerMode(rocblas.PointerModeDevice)
	}

	trans := arg.Trans()
	m, n, kl, ku := arg.M, arg.N, arg.KL, arg.KU
	lda := arg.LDA
	if lda < kl+ku+1 {
		lda = kl + ku + 1
	}
	batch := arg.BatchCount
	if batch < 1 {
		batch = 1
	}

	xlen, ylen := n, m
	if trans != rocblas.OperationNone {
		xlen, ylen = m, n
	}
	strideA := max(arg.StrideA, lda*n)
	strideX := max(arg.StrideX, spanOf(xlen, arg.IncX))
	strideY := max(arg.StrideY, spanOf(ylen, arg.IncY))

	seed := arg.Seed
	if seed == 0 {
		seed = 1984
	}

	var elem T
	elemSize := sizeOf(elem)

	hA := rocblas.GenerateBandedBatch[T](m, n, kl, ku, lda, batch, seed)
	hX := rocblas.GenerateScalarsRange[T](strideX*batch, seed+1, -1, 1)
	hY := rocblas.GenerateScalarsRange[T](strideY*batch, seed+2, -1, 1)

	dA, err := rocblas.Malloc(strideA * batch * elemSize)
	if err != nil {
		return err
	}
	defer rocblas.Free(dA)
	dX, err := rocblas.Malloc(strideX * batch * elemSize)
	if err != nil {
		return err
	}
	defer rocblas.Free(dX)
	dY, err := rocblas.Malloc(strideY * batch * elemSize)
	if err != nil {
		return err
	}
	defer rocblas.Free(dY)

	// hA instances are lda*n apart; the device layout may use a wider
	// stride, so each instance is copied to its own offset.
	instLen := lda * n
	for b := 0; b < batch; b++ {
		inst := hA[b*instLen : (b+1)*instLen]
		if err := rocblas.Memcpy(dA.Offset(b*strideA*elemSize), inst, instLen*elemSize, rocblas.MemcpyHostToDevice); err != nil {
			return err
		}
	}
	if err := rocblas.Memcpy(dX, hX, len(hX)*elemSize, rocblas.MemcpyHostToDevice); err != nil {
		return err
	}
	if err := rocblas.Memcpy(dY, hY, len(hY)*elemSize, rocblas.MemcpyHostToDevice); err != nil {
		return err
	}

	alpha := rocblas.MakeScalar[T](arg.Alpha, arg.AlphaI)
	beta := rocblas.MakeScalar[T](arg.Beta, arg.BetaI)

	var aTable, xTable, yTable []rocblas.DevicePtr
	if arg.IsBatched() {
		for b := 0; b < batch; b++ {
			aTable = append(aTable, dA.Offset(b*strideA*elemSize))
			xTable = append(xTable, dX.Offset(b*strideX*elemSize))
			yTable = append(yTable, dY.Offset(b*strideY*elemSize))
		}
	}

	call := func() rocblas.Status {
		switch {
		case arg.IsBatched():
			return rocblas.GbmvBatched(h, trans, m, n, kl, ku, &alpha, aTable, lda,
				xTable, arg.IncX, &beta, yTable, arg.IncY, batch)
		case arg.IsStridedBatched():
			return rocblas.GbmvStridedBatched(h, trans, m, n, kl, ku, &alpha, dA, lda, strideA,
				dX, arg.IncX, strideX, &beta, dY, arg.IncY, strideY, batch)
		default:
			return rocblas.Gbmv(h, trans, m, n, kl, ku, &alpha, dA, lda,
				dX, arg.IncX, &beta, dY, arg.IncY)
		}
	}

	us, err := timeCalls(h, call, warmup, iters)
	if err != nil {
		if logJSON {
			rocblas.LogBenchFail(arg.Function, arg.Precision, err)
		}
		return err
	}

	factor := 1.0
	if isComplexPrecision(arg.Precision) {
		factor = 4.0
	}
	elems := bandElements(m, n, kl, ku)
	flops := factor * float64(2*elems+3*ylen) * float64(batch)
	bytes := float64(elemSize) * float64(elems+spanOf(xlen, arg.IncX)+2*spanOf(ylen, arg.IncY)) * float64(batch)
	gflops := flops / (us * 1e3)
	gbs := bytes / (us * 1e3)

	fmt.Println("transA,M,N,KL,KU,alpha,lda,incx,beta,incy,batch_count,rocblas-Gflops,rocblas-GB/s,rocblas-us")
	fmt.Printf("%s,%d,%d,%d,%d,%g,%d,%d,%g,%d,%d,%.2f,%.2f,%.2f\n",
		arg.TransA, m, n, kl, ku, arg.Alpha, lda, arg.IncX, arg.Beta, arg.IncY, batch, gflops, gbs, us)

	if logJSON {
		rocblas.LogBenchResult(rocblas.BenchResult{
			Function:   arg.Function,
			Precision:  arg.Precision,
			Args:       replayArgs(arg, lda, strideA, strideX, strideY),
			BatchCount: batch,
			Iterations: iters,
			UsPerCall:  us,
			GFLOPS:     gflops,
			GBPerSec:   gbs,
			Status:     "pass",
		})
	}
	return nil
}

func runAsum[T rocblas.Scalar, R rocblas.Float](arg rocblas.Arguments, warmup, iters int, logJSON bool) error {
	h := rocblas.NewHandle()
	defer h.Close()
	if arg.PointerModeDevice {
		h.SetPointerMode(rocblas.PointerModeDevice)
	}

	n := arg.N
	batch := arg.BatchCount
	if batch < 1 {
		batch = 1
	}
	strideX := max(arg.StrideX, spanOf(n, arg.IncX))

	seed := arg.Seed
	if seed == 0 {
		seed = 1984
	}

	var elem T
	elemSize := sizeOf(elem)

	hX := rocblas.GenerateScalarsRange[T](strideX*batch, seed, -1, 1)
	dX, err := rocblas.Malloc(strideX * batch * elemSize)
	if err != nil {
		return err
	}
	defer rocblas.Free(dX)
	if err := rocblas.Memcpy(dX, hX, len(hX)*elemSize, rocblas.MemcpyHostToDevice); err != nil {
		return err
	}

	var xTable []rocblas.DevicePtr
	if arg.IsBatched() {
		for b := 0; b < batch; b++ {
			xTable = append(xTable, dX.Offset(b*strideX*elemSize))
		}
	}

	results := make([]R, batch)
	call := func() rocblas.Status {
		switch {
		case arg.IsBatched():
			return rocblas.AsumBatched[T](h, n, xTable, arg.IncX, batch, results)
		case arg.IsStridedBatched():
			return rocblas.AsumStridedBatched[T](h, n, dX, arg.IncX, strideX, batch, results)
		default:
			return rocblas.Asum[T](h, n, dX, arg.IncX, &results[0])
		}
	}

	us, err := timeCalls(h, call, warmup, iters)
	if err != nil {
		if logJSON {
			rocblas.LogBenchFail(arg.Function, arg.Precision, err)
		}
		return err
	}

	perElem := 2.0
	if isComplexPrecision(arg.Precision) {
		perElem = 3.0
	}
	flops := perElem * float64(n) * float64(batch)
	bytes := float64(elemSize) * float64(spanOf(n, arg.IncX)) * float64(batch)
	gflops := flops / (us * 1e3)
	gbs := bytes / (us * 1e3)

	fmt.Println("N,incx,batch_count,rocblas-Gflops,rocblas-GB/s,rocblas-us")
	fmt.Printf("%d,%d,%d,%.2f,%.2f,%.2f\n", n, arg.IncX, batch, gflops, gbs, us)

	if logJSON {
		rocblas.LogBenchResult(rocblas.BenchResult{
			Function:   arg.Function,
			Precision:  arg.Precision,
			Args:       replayArgs(arg, 0, 0, strideX, 0),
			BatchCount: batch,
			Iterations: iters,
			UsPerCall:  us,
			GFLOPS:     gflops,
			GBPerSec:   gbs,
			Status:     "pass",
		})
	}
	return nil
}

// timeCalls runs the warmup, then times iters calls bracketed by a
// synchronize so asynchronous launches are fully drained before the
// clock stops. Returns microseconds per call.
func timeCalls(h *rocblas.Handle, call func() rocblas.Status, warmup, iters int) (float64, error) {
	for i := 0; i < warmup; i++ {
		if st := call(); st != rocblas.StatusSuccess {
			return 0, fmt.Errorf("warmup call returned %v", st)
		}
	}
	if err := h.Synchronize(); err != nil {
		return 0, err
	}

	if iters < 1 {
		iters = 1
	}
	start := time.Now()
	for i := 0; i < iters; i++ {
		if st := call(); st != rocblas.StatusSuccess {
			return 0, fmt.Errorf("call returned %v", st)
		}
	}
	if err := h.Synchronize(); err != nil {
		return 0, err
	}
	elapsed := time.Since(start)

	return float64(elapsed.Nanoseconds()) / 1e3 / float64(iters), nil
}

// replayArgs rebuilds the flag string that reproduces the case.
func replayArgs(arg rocblas.Arguments, lda, strideA, strideX, strideY int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "-f %s -r %s", arg.Function, arg.Precision)
	if arg.IsGbmv() {
		fmt.Fprintf(&sb, " --transposeA %s -m %d -n %d --kl %d --ku %d --alpha %g --lda %d --incx %d --beta %g --incy %d",
			arg.TransA, arg.M, arg.N, arg.KL, arg.KU, arg.Alpha, lda, arg.IncX, arg.Beta, arg.IncY)
		if arg.IsStridedBatched() {
			fmt.Fprintf(&sb, " --stride_a %d --stride_x %d --stride_y %d", strideA, strideX, strideY)
		}
	} else {
		fmt.Fprintf(&sb, " -n %d --incx %d", arg.N, arg.IncX)
		if arg.IsStridedBatched() {
			fmt.Fprintf(&sb, " --stride_x %d", strideX)
		}
	}
	if arg.IsBatched() || arg.IsStridedBatched() {
		fmt.Fprintf(&sb, " --batch_count %d", arg.BatchCount)
	}
	if arg.PointerModeDevice {
		sb.WriteString(" --device_ptr")
	}
	return sb.String()
}
