package systems

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchCoversEveryItemOnce(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		for _, n := range []int{0, 1, 7, 255, 256, 1000, 1001} {
			dev := NewDevice(workers, 1, DeviceLimits{})
			hits := make([]int32, n)
			dev.Dispatch(n, func(start, end, _ int) {
				for i := start; i < end; i++ {
					hits[i]++
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("workers=%d n=%d: item %d processed %d times", workers, n, i, h)
				}
			}
			dev.Stop()
		}
	}
}

func TestDispatchBelowThresholdRunsInline(t *testing.T) {
	dev := NewDevice(4, 100, DeviceLimits{})
	defer dev.Stop()

	var calls atomic.Int32
	dev.Dispatch(99, func(start, end, worker int) {
		calls.Add(1)
		if start != 0 || end != 99 || worker != 0 {
			t.Errorf("inline call got [%d,%d) worker %d", start, end, worker)
		}
	})
	if calls.Load() != 1 {
		t.Errorf("kernel called %d times, want 1", calls.Load())
	}
}

func TestDispatchChunks(t *testing.T) {
	tests := []struct {
		name       string
		workers    int
		n, chunks  int
		wantChunks int32
	}{
		{"fewer chunks than queue", 2, 10, 5, 5},
		{"tail rounds away", 2, 10, 6, 5},
		{"many chunks per worker", 2, 1000, 20, 20},
		{"one item per chunk", 3, 500, 500, 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dev := NewDevice(tc.workers, 0, DeviceLimits{})

			var calls atomic.Int32
			hits := make([]int32, tc.n)
			done := make(chan struct{})
			go func() {
				defer close(done)
				dev.DispatchChunks(tc.n, tc.chunks, func(start, end, _ int) {
					calls.Add(1)
					for i := start; i < end; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
				})
			}()
			select {
			case <-done:
			case <-time.After(10 * time.Second):
				t.Fatalf("DispatchChunks(%d, %d) with %d workers did not return", tc.n, tc.chunks, tc.workers)
			}
			dev.Stop()

			if calls.Load() != tc.wantChunks {
				t.Errorf("got %d chunks, want %d", calls.Load(), tc.wantChunks)
			}
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("item %d processed %d times", i, h)
				}
			}
		})
	}
}

func TestDeviceRestartsAfterStop(t *testing.T) {
	dev := NewDevice(4, 1, DeviceLimits{})
	var sum atomic.Int64
	kernel := func(start, end, _ int) {
		sum.Add(int64(end - start))
	}
	dev.Dispatch(100, kernel)
	dev.Stop()
	dev.Stop()
	dev.Dispatch(100, kernel)
	dev.Stop()
	if sum.Load() != 200 {
		t.Errorf("processed %d items, want 200", sum.Load())
	}
}

func TestDeviceReserve(t *testing.T) {
	dev := NewDevice(1, 0, DeviceLimits{MaxBufferBytes: 100, MaxTextureSize: 8})

	if err := dev.Reserve("a", 60); err != nil {
		t.Fatalf("Reserve(60): %v", err)
	}
	err := dev.Reserve("b", 50)
	var ae *AllocationError
	if !errors.As(err, &ae) {
		t.Fatalf("Reserve(50) = %v, want *AllocationError", err)
	}
	if ae.Resource != "b" || ae.Bytes != 50 || ae.Limit != 40 {
		t.Errorf("got %+v, want resource b, 50 bytes, 40 remaining", ae)
	}
	if dev.Allocated() != 60 {
		t.Errorf("Allocated = %d after failed reserve, want 60", dev.Allocated())
	}

	dev.Release(60)
	if err := dev.Reserve("c", 100); err != nil {
		t.Errorf("Reserve(100) after release: %v", err)
	}
	dev.ReleaseAll()
	if dev.Allocated() != 0 {
		t.Errorf("Allocated = %d after ReleaseAll", dev.Allocated())
	}

	if err := dev.ReserveTexture("tex", 9, 4, 1); !errors.As(err, &ae) || !ae.Dimension {
		t.Errorf("ReserveTexture 9x4 = %v, want dimension error", err)
	}
	if err := dev.ReserveTexture("tex", 8, 8, 1); err != nil {
		t.Errorf("ReserveTexture 8x8: %v", err)
	}
}
