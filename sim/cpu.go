// Package sim is a single RV64I hart with just enough supervisor
// machinery (sstatus, sie, sepc, scause, stval, the SBI timer) to run the
// kernel's trap core on the host. The trap vector is modeled: a trap saves
// the register file into memory below the interrupted sp with the same
// layout the assembly vector uses, calls the kernel, and restores from
// memory before sret.
package sim

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"woflos-in-go/kernel"
)

// privilege levels
const (
	PRIV_U = 0
	PRIV_S = 1
)

var (
	// ErrHalted is returned once the kernel has halted the hart.
	ErrHalted = errors.New("sim: hart halted")
	// ErrStepLimit is returned by Run when the step budget is spent.
	ErrStepLimit = errors.New("sim: step limit reached")
	// ErrDoubleFault means a trap frame could not be stored below sp.
	ErrDoubleFault = errors.New("sim: no room for trap frame below sp")
)

// Options configures a CPU.
type Options struct {
	RAMBase uint64 // defaults to kernel.KERNBASE
	RAMSize uint64 // defaults to 1 MiB

	Console *Console
	Logger  hclog.Logger
}

// CPU implements kernel.Hart.
type CPU struct {
	x    [32]uint64
	pc   uint64
	priv int

	sstatus uint64
	sie     uint64
	sepc    uint64
	scause  uint64
	stval   uint64

	time     uint64
	timecmp  uint64
	timerSet bool

	base uint64
	ram  []byte

	halted  bool
	handler func(*kernel.TrapFrame)

	traps      uint64
	timerCalls uint64

	cons *Console
	log  hclog.Logger
}

func New(opts Options) *CPU {
	if opts.RAMBase == 0 {
		opts.RAMBase = kernel.KERNBASE
	}
	if opts.RAMSize == 0 {
		opts.RAMSize = 1 << 20
	}
	if opts.Console == nil {
		opts.Console = NewConsole(nil)
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &CPU{
		priv: PRIV_S,
		base: opts.RAMBase,
		ram:  make([]byte, opts.RAMSize),
		cons: opts.Console,
		log:  opts.Logger.Named("hart"),
	}
}

// SetTrapHandler installs the function the modeled trap vector calls,
// normally (*kernel.Kernel).Trap.
func (c *CPU) SetTrapHandler(h func(*kernel.TrapFrame)) {
	c.handler = h
}

func (c *CPU) Console() *Console { return c.cons }

func (c *CPU) X(n int) uint64 {
	return c.x[n]
}

func (c *CPU) SetX(n int, v uint64) {
	if n != kernel.REG_ZERO {
		c.x[n] = v
	}
}

func (c *CPU) PC() uint64 { return c.pc }
func (c *CPU) Priv() int { return c.priv }
func (c *CPU) Sstatus() uint64 { return c.sstatus }
func (c *CPU) Sepc() uint64 { return c.sepc }
func (c *CPU) Halted() bool { return c.halted }
func (c *CPU) Traps() uint64 { return c.traps }
func (c *CPU) TimerCalls() uint64 { return c.timerCalls }
func (c *CPU) Timecmp() uint64 { return c.timecmp }

// RAM returns the base address and size of memory.
func (c *CPU) RAM() (base, size uint64) {
	return c.base, uint64(len(c.ram))
}

func (c *CPU) inRAM(pa, n uint64) bool {
	return pa >= c.base && n <= uint64(len(c.ram)) && pa-c.base <= uint64(len(c.ram))-n
}

// mem returns the n bytes at pa, or nil if any of them is outside RAM.
func (c *CPU) mem(pa, n uint64) []byte {
	if !c.inRAM(pa, n) {
		return nil
	}
	off := pa - c.base
	return c.ram[off : off+n]
}

// Hart

func (c *CPU) Scause() uint64 { return c.scause }
func (c *CPU) Stval() uint64 { return c.stval }
func (c *CPU) Time() uint64 { return c.time }

func (c *CPU) SetTimer(when uint64) {
	c.timecmp = when
	c.timerSet = true
	c.timerCalls++
	c.log.Trace("sbi set_timer", "when", when, "now", c.time)
}

func (c *CPU) EnableTimer() {
	c.sie |= kernel.SIE_STIE
}

// EnterUser installs f the way the assembly enter_user does and executes
// sret. The next Step runs the first user instruction.
func (c *CPU) EnterUser(f *kernel.TrapFrame) {
	c.sepc = f.Sepc
	c.sstatus = f.Sstatus
	for n := 1; n < kernel.NREG; n++ {
		c.x[n] = 0
	}
	c.x[kernel.REG_SP] = f.X(kernel.REG_SP)
	c.log.Debug("enter user", "pc", hclog.Fmt("%#x", f.Sepc), "sp", hclog.Fmt("%#x", c.x[kernel.REG_SP]))
	c.sret()
}

func (c *CPU) Halt() {
	c.halted = true
	c.log.Debug("halt", "pc", hclog.Fmt("%#x", c.pc), "time", c.time)
}

func (c *CPU) WriteMem(pa uint64, b []byte) {
	m := c.mem(pa, uint64(len(b)))
	if m == nil {
		panic(fmt.Sprintf("sim: write of %d bytes at %#x outside RAM", len(b), pa))
	}
	copy(m, b)
}

func (c *CPU) ZeroMem(pa uint64, n uint64) {
	m := c.mem(pa, n)
	if m == nil {
		panic(fmt.Sprintf("sim: zero of %d bytes at %#x outside RAM", n, pa))
	}
	for i := range m {
		m[i] = 0
	}
}

// ReadMem copies n bytes at pa out of RAM.
func (c *CPU) ReadMem(pa, n uint64) ([]byte, error) {
	m := c.mem(pa, n)
	if m == nil {
		return nil, fmt.Errorf("sim: read of %d bytes at %#x outside RAM", n, pa)
	}
	return append([]byte(nil), m...), nil
}

func (c *CPU) sret() {
	if c.sstatus&kernel.SSTATUS_SPP != 0 {
		c.priv = PRIV_S
	} else {
		c.priv = PRIV_U
	}
	if c.sstatus&kernel.SSTATUS_SPIE != 0 {
		c.sstatus |= kernel.SSTATUS_SIE
	} else {
		c.sstatus &^= kernel.SSTATUS_SIE
	}
	c.sstatus |= kernel.SSTATUS_SPIE
	c.sstatus &^= kernel.SSTATUS_SPP
	c.pc = c.sepc
}
