package rocblas

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// launchInternal implements the per-thread kernel execution path.
func (ctx *Context) launchInternal(
	kernelFunc func(ThreadID, ...interface{}),
	grid, block Dim3,
	stream *Stream,
	args ...interface{},
) error {
	blockSize := block.Size()
	if blockSize <= 0 || blockSize > MaxThreadsPerBlock {
		return NewInvalidArgError("Launch", fmt.Sprintf("block size %d out of range", blockSize))
	}

	return ctx.launchBlocksInternal(func(blockIdx, blockDim, gridDim Dim3) {
		// Threads within a block run sequentially in one goroutine.
		// This maximizes cache reuse and minimizes synchronization.
		for threadID := 0; threadID < blockSize; threadID++ {
			tid := ThreadID{
				BlockIdx:  blockIdx,
				ThreadIdx: linearTo3D(threadID, block),
				BlockDim:  block,
				GridDim:   grid,
			}
			kernelFunc(tid, args...)
		}
	}, grid, block, stream)
}

// launchBlocksInternal schedules one BlockFunc invocation per grid block.
// Blocks are chunked across workers; a panic in any block is recorded as
// the stream's deferred error and remaining blocks of that worker are
// abandoned.
func (ctx *Context) launchBlocksInternal(fn BlockFunc, grid, block Dim3, stream *Stream) error {
	gridSize := grid.Size()

	if gridSize == 0 {
		// Submit an empty task to maintain stream ordering.
		stream.Submit(func() {})
		return nil
	}

	numWorkers := runtime.NumCPU()
	if gridSize < numWorkers {
		numWorkers = gridSize
	}

	// Cache-aware scheduling: each worker processes a contiguous run of
	// blocks to maximize cache reuse.
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	stream.Submit(func() {
		var wg sync.WaitGroup
		wg.Add(numWorkers)

		for workerID := 0; workerID < numWorkers; workerID++ {
			startBlock := workerID * blocksPerWorker
			endBlock := startBlock + blocksPerWorker
			if endBlock > gridSize {
				endBlock = gridSize
			}

			go func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						stream.setError(NewExecutionError("Launch",
							"kernel fault", errors.Errorf("panic: %v", r)))
					}
				}()

				for blockID := startBlock; blockID < endBlock; blockID++ {
					fn(linearTo3D(blockID, grid), block, grid)
				}
			}()
		}

		wg.Wait()
	})

	return nil
}

// LaunchBlocks executes a block-granular kernel on the given stream. The
// function body supplies its own thread iteration, which is how kernels
// with an intra-block reduction stage their tile between phases.
func (ctx *Context) LaunchBlocks(fn BlockFunc, grid, block Dim3, stream *Stream) error {
	blockSize := block.Size()
	if blockSize <= 0 || blockSize > MaxThreadsPerBlock {
		return NewInvalidArgError("LaunchBlocks", fmt.Sprintf("block size %d out of range", blockSize))
	}
	return ctx.launchBlocksInternal(fn, grid, block, stream)
}

// linearTo3D converts a linear index to 3D coordinates.
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}

// WorkerPool manages a pool of worker goroutines for host-side work that
// does not belong on a stream, such as fanning out harness cases.
type WorkerPool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// worker processes tasks from the queue.
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit adds a task to the pool.
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Close shuts down the worker pool and waits for in-flight tasks.
func (wp *WorkerPool) Close() {
	close(wp.tasks)
	wp.wg.Wait()
}

// ForEach applies a function to each element in parallel on the default
// context's default stream. Work issued on other streams must be ordered
// against it with an explicit synchronize.
func ForEach[T Scalar](data DevicePtr, size int, fn func(idx int, val *T)) error {
	grid := Dim3{X: (size + 255) / 256, Y: 1, Z: 1}
	block := Dim3{X: 256, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < size {
			slice := deviceView[T](data)
			fn(idx, &slice[idx])
		}
	})

	return Launch(kernel, grid, block)
}
