package kernel

// Hart is everything the trap core needs from the processor and firmware.
// On riscv64 it is backed by CSR instructions and SBI calls (see
// hart_riscv64.go); on the host it is backed by the simulator in package sim.
type Hart interface {
	// Scause and Stval read the trap cause and trap value registers.
	Scause() uint64
	Stval() uint64

	// Time reads the platform timer.
	Time() uint64
	// SetTimer asks the firmware for a timer interrupt at when.
	SetTimer(when uint64)
	// EnableTimer unmasks the supervisor timer interrupt (sie.STIE).
	// sstatus.SIE stays clear while the kernel runs, so the interrupt is
	// only taken once the hart is back in user mode.
	EnableTimer()

	// EnterUser loads f.Sepc and f.Sstatus into sepc and sstatus, sets sp
	// from f, zeroes every other register and executes sret. It does not
	// return on hardware; a simulated hart returns with the user context
	// installed and resumes it on its next step.
	EnterUser(f *TrapFrame)

	// Halt stops the hart for good. Hardware never returns from Halt. A
	// simulated hart returns after recording the halt; callers must not
	// touch the trap frame afterwards.
	Halt()

	// WriteMem and ZeroMem access physical memory.
	WriteMem(pa uint64, b []byte)
	ZeroMem(pa uint64, n uint64)
}

// Console is the diagnostic byte sink (and poll-only source).
type Console interface {
	Putc(c byte)
	Getc() (byte, bool)
}
