package kernel

import "sync/atomic"

// spinlock serializes access to kernel tables. With a single hart it is
// never contended; it marks which data would need a lock on more harts.
// It does not mask interrupts. Traps are only taken from user mode, so
// the trap path may take it.
type spinlock struct {
	locked atomic.Uint32
}

func (lk *spinlock) acquire() {
	for !lk.locked.CompareAndSwap(0, 1) {
	}
}

func (lk *spinlock) release() {
	if lk.locked.Swap(0) != 1 {
		panic("release: lock not held")
	}
}
