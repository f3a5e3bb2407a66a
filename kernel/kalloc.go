package kernel

import (
	"math/bits"
	"sync/atomic"
)

// kmem hands out 4K physical frames from one contiguous range.
// Each frame is one bit in the bitmap, 1 = in use. Bits are claimed
// with compare-and-swap so a second hart could share the allocator.
type kmem struct {
	bitmap  []atomic.Uint64
	start   uint64
	nframes uint64
	next    atomic.Uint64 // frame index where the next search starts
}

func (km *kmem) kinit(pa_start, pa_end uint64) error {
	pa_start = PGROUNDUP(pa_start)
	pa_end = PGROUNDDOWN(pa_end)
	if pa_end <= pa_start {
		return kernError("kinit: empty frame range")
	}

	n := (pa_end - pa_start) / PGSIZE
	if n > MAXFRAMES {
		n = MAXFRAMES
	}
	km.start = pa_start
	km.nframes = n
	km.bitmap = make([]atomic.Uint64, (n+63)/64)
	km.next.Store(0)
	return nil
}

// kalloc returns the physical address of a free frame, or 0 when
// every frame is in use.
func (km *kmem) kalloc() uint64 {
	start := km.next.Load()
	for i := uint64(0); i < km.nframes; i++ {
		frame := (start + i) % km.nframes
		word := &km.bitmap[frame/64]
		bit := uint64(1) << (frame % 64)
		for {
			old := word.Load()
			if old&bit != 0 {
				break
			}
			if word.CompareAndSwap(old, old|bit) {
				km.next.Store((frame + 1) % km.nframes)
				return km.start + frame*PGSIZE
			}
		}
	}
	return 0
}

func (km *kmem) kfree(pa uint64) error {
	if pa%PGSIZE != 0 || pa < km.start || pa >= km.start+km.nframes*PGSIZE {
		return kernError("kfree: bad frame address")
	}

	frame := (pa - km.start) / PGSIZE
	word := &km.bitmap[frame/64]
	bit := uint64(1) << (frame % 64)
	for {
		old := word.Load()
		if old&bit == 0 {
			return kernError("kfree: frame is not allocated")
		}
		if word.CompareAndSwap(old, old&^bit) {
			return nil
		}
	}
}

// stats reports frames in use and frames managed.
func (km *kmem) stats() (used, total uint64) {
	for i := range km.bitmap {
		used += uint64(bits.OnesCount64(km.bitmap[i].Load()))
	}
	return used, km.nframes
}
