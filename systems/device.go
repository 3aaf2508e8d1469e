package systems

import (
	"fmt"
	"runtime"
	"sync"
)

// defaultParallelThreshold is the minimum work item count to use the worker pool.
// Below this, the caller goroutine is faster due to channel overhead.
const defaultParallelThreshold = 256

// Kernel processes work items [start, end). worker identifies the calling
// worker so kernels can use per-worker scratch space.
type Kernel func(start, end, worker int)

// workChunk represents a range of work items for a worker to process.
type workChunk struct {
	start, end int
	kernel     Kernel
}

// DeviceLimits caps what a device will allocate.
type DeviceLimits struct {
	MaxBufferBytes int64 // Total bytes across live buffers (0 = unlimited)
	MaxTextureSize int   // Max width or height of a texture (0 = unlimited)
}

// Device executes kernels over a persistent worker pool and tracks the
// memory charged by buffers and textures allocated against it.
// A Device is driven by a single goroutine; Dispatch is not reentrant.
type Device struct {
	numWorkers int
	threshold  int
	limits     DeviceLimits
	allocated  int64

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewDevice creates a device with the given worker count (0 = GOMAXPROCS)
// and parallel threshold (0 = default). Workers start lazily on first dispatch.
func NewDevice(workers, threshold int, limits DeviceLimits) *Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &Device{
		numWorkers: workers,
		threshold:  threshold,
		limits:     limits,
	}
}

// Workers returns the number of workers kernels may be split across.
func (d *Device) Workers() int {
	return d.numWorkers
}

// Limits returns the device limits.
func (d *Device) Limits() DeviceLimits {
	return d.limits
}

// Allocated returns the bytes currently charged against the device.
func (d *Device) Allocated() int64 {
	return d.allocated
}

// Reserve charges bytes against the buffer budget.
func (d *Device) Reserve(resource string, bytes int64) error {
	if bytes < 0 {
		return &AllocationError{Resource: resource, Bytes: bytes, Limit: d.limits.MaxBufferBytes}
	}
	if d.limits.MaxBufferBytes > 0 && d.allocated+bytes > d.limits.MaxBufferBytes {
		return &AllocationError{Resource: resource, Bytes: bytes, Limit: d.limits.MaxBufferBytes - d.allocated}
	}
	d.allocated += bytes
	return nil
}

// ReserveTexture checks texture dimensions and charges its bytes.
func (d *Device) ReserveTexture(resource string, w, h, bytesPerPixel int) error {
	if w <= 0 || h <= 0 {
		return &AllocationError{Resource: resource, Bytes: 0, Limit: int64(d.limits.MaxTextureSize)}
	}
	if m := d.limits.MaxTextureSize; m > 0 && (w > m || h > m) {
		return &AllocationError{Resource: fmt.Sprintf("%s %dx%d", resource, w, h), Limit: int64(m), Dimension: true}
	}
	return d.Reserve(resource, int64(w)*int64(h)*int64(bytesPerPixel))
}

// Release returns bytes to the budget.
func (d *Device) Release(bytes int64) {
	d.allocated -= bytes
	if d.allocated < 0 {
		d.allocated = 0
	}
}

// ReleaseAll returns every charged byte to the budget.
func (d *Device) ReleaseAll() {
	d.allocated = 0
}

// Dispatch runs kernel over [0, n) and blocks until every item is processed.
// Items are split into contiguous chunks, one per worker.
func (d *Device) Dispatch(n int, kernel Kernel) {
	if n <= 0 {
		return
	}
	if n < d.threshold || d.numWorkers == 1 {
		kernel(0, n, 0)
		return
	}
	d.DispatchChunks(n, d.numWorkers, kernel)
}

// DispatchChunks runs kernel over [0, n) split into chunks equal pieces
// (fewer when rounding leaves the tail empty), regardless of the parallel
// threshold. chunks may exceed the worker count.
func (d *Device) DispatchChunks(n, chunks int, kernel Kernel) {
	if n <= 0 {
		return
	}
	if chunks > n {
		chunks = n
	}
	if chunks <= 1 {
		kernel(0, n, 0)
		return
	}

	// Ensure workers are running
	if !d.running {
		d.startWorkers()
	}

	chunkSize := (n + chunks - 1) / chunks
	chunks = (n + chunkSize - 1) / chunkSize

	// Channels only hold numWorkers entries, so completions are drained while
	// chunks are still being queued.
	next, inFlight := 0, 0
	for next < chunks || inFlight > 0 {
		var work chan<- workChunk
		var chunk workChunk
		if next < chunks {
			start := next * chunkSize
			chunk = workChunk{start: start, end: min(start+chunkSize, n), kernel: kernel}
			work = d.workChan
		}
		select {
		case work <- chunk:
			next++
			inFlight++
		case <-d.doneChan:
			inFlight--
		}
	}
}

// startWorkers launches persistent worker goroutines.
func (d *Device) startWorkers() {
	if d.running {
		return
	}

	d.workChan = make(chan workChunk, d.numWorkers)
	d.doneChan = make(chan struct{}, d.numWorkers)
	d.stopChan = make(chan struct{})
	d.running = true

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (d *Device) worker(workerID int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			return
		case chunk, ok := <-d.workChan:
			if !ok {
				return
			}
			chunk.kernel(chunk.start, chunk.end, workerID)
			d.doneChan <- struct{}{}
		}
	}
}

// Stop signals all workers to exit and waits for them.
// The device may dispatch again afterwards; workers restart lazily.
func (d *Device) Stop() {
	if !d.running {
		return
	}

	close(d.stopChan)
	d.wg.Wait()
	close(d.workChan)
	close(d.doneChan)
	d.running = false
}

// AllocationError reports a buffer or texture that does not fit the device.
type AllocationError struct {
	Resource  string
	Bytes     int64
	Limit     int64
	Dimension bool // Limit is a texture dimension rather than bytes
}

func (e *AllocationError) Error() string {
	if e.Dimension {
		return fmt.Sprintf("allocating %s: exceeds max texture size %d", e.Resource, e.Limit)
	}
	return fmt.Sprintf("allocating %s: %d bytes exceeds remaining budget %d", e.Resource, e.Bytes, e.Limit)
}
