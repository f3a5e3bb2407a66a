package kernel

import "sync/atomic"

// kernError is an error type usable in kernel code.
type kernError string

func (e kernError) Error() string {
	return string(e)
}

// Config describes the machine the kernel runs on.
type Config struct {
	// Physical range handed to the frame allocator.
	FrameStart uint64
	FrameEnd   uint64

	// Timer ticks between two timer interrupts.
	TimerInterval uint64

	// Trace logs every syscall and timer tick.
	Trace bool
}

// Kernel owns all state of the trap core. One is created at boot and
// lives until the hart halts.
type Kernel struct {
	hw  Hart
	log printer
	cfg Config

	kmem    kmem
	procs   procTable
	nextpid atomic.Uint64
	ticks   uint64
}

// New sets up the frame allocator over cfg's range and returns a kernel
// bound to hw. Diagnostics go to cons.
func New(hw Hart, cons Console, cfg Config) (*Kernel, error) {
	if hw == nil || cons == nil {
		return nil, kernError("New: missing hart or console")
	}
	if cfg.TimerInterval == 0 {
		cfg.TimerInterval = TIMEBASE_HZ
	}

	k := &Kernel{
		hw:  hw,
		log: printer{out: cons},
		cfg: cfg,
	}
	if err := k.kmem.kinit(cfg.FrameStart, cfg.FrameEnd); err != nil {
		return nil, err
	}
	used, total := k.kmem.stats()
	k.log.printf("[KMEM] frames [0x%x, 0x%x): %d/%d in use\n",
		k.kmem.start, k.kmem.start+total*PGSIZE, used, total)
	return k, nil
}

// Printf writes to the kernel console.
func (k *Kernel) Printf(format string, args ...interface{}) {
	k.log.printf(format, args...)
}

// FrameStats reports frames in use and frames managed.
func (k *Kernel) FrameStats() (used, total uint64) {
	return k.kmem.stats()
}

// fatal reports an unrecoverable condition and stops the hart.
func (k *Kernel) fatal(msg string) {
	k.log.printf("[PANIC] %s\n", msg)
	k.log.printf("[PANIC] System halted.\n")
	k.hw.Halt()
}
