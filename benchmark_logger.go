package rocblas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// BenchResult captures one timed run of a routine.
type BenchResult struct {
	Function   string    `json:"function"`
	Precision  string    `json:"precision"`
	Args       string    `json:"args,omitempty"` // rocblas-bench replay arguments
	BatchCount int       `json:"batch_count,omitempty"`
	Iterations int       `json:"iterations,omitempty"`
	UsPerCall  float64   `json:"us_per_call,omitempty"`
	GFLOPS     float64   `json:"gflops,omitempty"`
	GBPerSec   float64   `json:"gb_per_sec,omitempty"`
	Status     string    `json:"status"` // "pass" or "fail"
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// BenchLogger accumulates results and mirrors them to a session file.
type BenchLogger struct {
	mu          sync.Mutex
	results     []BenchResult
	logDir      string
	sessionFile string
}

var globalBenchLogger = &BenchLogger{
	logDir: "benchmark_logs",
}

// InitBenchLogger starts a new logging session. Results logged after
// this call land in benchmark_logs/<session>_<timestamp>.json.
func InitBenchLogger(sessionName string) error {
	globalBenchLogger.mu.Lock()
	defer globalBenchLogger.mu.Unlock()

	if err := os.MkdirAll(globalBenchLogger.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	globalBenchLogger.sessionFile = filepath.Join(globalBenchLogger.logDir,
		fmt.Sprintf("%s_%s.json", sessionName, timestamp))

	globalBenchLogger.results = nil

	return globalBenchLogger.flush()
}

// LogBenchResult appends one result and flushes to disk immediately so
// a crash mid-sweep loses nothing.
func LogBenchResult(result BenchResult) {
	globalBenchLogger.mu.Lock()
	defer globalBenchLogger.mu.Unlock()

	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	globalBenchLogger.results = append(globalBenchLogger.results, result)

	globalBenchLogger.flush()
}

// LogBenchFail records a run that returned a non-success status.
func LogBenchFail(function, precision string, err error) {
	LogBenchResult(BenchResult{
		Function:  function,
		Precision: precision,
		Status:    "fail",
		Error:     err.Error(),
	})
}

func (bl *BenchLogger) flush() error {
	if bl.sessionFile == "" {
		return nil // not initialized
	}

	data, err := json.MarshalIndent(bl.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	return os.WriteFile(bl.sessionFile, data, 0644)
}

// GetLatestLogFile returns the path to the most recent session file.
func GetLatestLogFile() (string, error) {
	files, err := filepath.Glob(filepath.Join(globalBenchLogger.logDir, "*.json"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no log files found")
	}

	var latest string
	var latestTime time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latest = file
			latestTime = info.ModTime()
		}
	}

	return latest, nil
}

// PrintBenchSummary prints the latest session in tabular form.
func PrintBenchSummary() error {
	logFile, err := GetLatestLogFile()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		return err
	}

	var results []BenchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return err
	}

	fmt.Printf("\nBenchmark summary from %s:\n", filepath.Base(logFile))
	fmt.Println(strings.Repeat("=", 72))

	passed, failed := 0, 0
	for _, r := range results {
		name := r.Function + " " + r.Precision
		switch r.Status {
		case "pass":
			passed++
			fmt.Printf("✓ %-32s %12.2f us", name, r.UsPerCall)
			if r.GFLOPS > 0 {
				fmt.Printf(" %10.2f GFLOPS", r.GFLOPS)
			}
			if r.GBPerSec > 0 {
				fmt.Printf(" %10.2f GB/s", r.GBPerSec)
			}
			fmt.Println()
		case "fail":
			failed++
			fmt.Printf("✗ %-32s FAILED: %s\n", name, r.Error)
		}
	}

	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)

	return nil
}
