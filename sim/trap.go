package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"woflos-in-go/kernel"
)

// Inject raises a trap with the given scause and stval as if the current
// instruction had caused it.
func (c *CPU) Inject(scause, stval uint64) error {
	if c.halted {
		return ErrHalted
	}
	return c.trap(scause, stval)
}

// trap does what the hardware does on a trap into S-mode, then runs the
// modeled trap vector.
func (c *CPU) trap(scause, stval uint64) error {
	c.sepc = c.pc
	c.scause = scause
	c.stval = stval
	if c.priv == PRIV_S {
		c.sstatus |= kernel.SSTATUS_SPP
	} else {
		c.sstatus &^= kernel.SSTATUS_SPP
	}
	if c.sstatus&kernel.SSTATUS_SIE != 0 {
		c.sstatus |= kernel.SSTATUS_SPIE
	} else {
		c.sstatus &^= kernel.SSTATUS_SPIE
	}
	c.sstatus &^= kernel.SSTATUS_SIE
	c.priv = PRIV_S
	c.traps++

	intr, code := kernel.DecodeCause(scause)
	c.log.Trace("trap", "cause", kernel.CauseName(intr, code),
		"sepc", hclog.Fmt("%#x", c.sepc), "stval", hclog.Fmt("%#x", stval))
	return c.vector()
}

// vector is trapvec: push the frame below sp, call the handler, pop the
// frame and sret. sp itself is restored arithmetically, not from the frame.
func (c *CPU) vector() error {
	sp := c.x[kernel.REG_SP]
	fa := sp - kernel.FRAME_SIZE
	buf := c.mem(fa, kernel.FRAME_SIZE)
	if fa > sp || buf == nil {
		c.halted = true
		return fmt.Errorf("%w: sp=%#x", ErrDoubleFault, sp)
	}

	for n := 1; n < kernel.NREG; n++ {
		binary.LittleEndian.PutUint64(buf[kernel.RegOffset(n):], c.x[n])
	}
	binary.LittleEndian.PutUint64(buf[kernel.FRAME_SEPC:], c.sepc)
	binary.LittleEndian.PutUint64(buf[kernel.FRAME_SSTATUS:], c.sstatus)

	if c.handler != nil {
		f := decodeFrame(buf)
		c.handler(&f)
		if c.halted {
			return nil
		}
		encodeFrame(buf, &f)
	}

	c.sstatus = binary.LittleEndian.Uint64(buf[kernel.FRAME_SSTATUS:])
	c.sepc = binary.LittleEndian.Uint64(buf[kernel.FRAME_SEPC:])
	for n := 1; n < kernel.NREG; n++ {
		if n == kernel.REG_SP {
			continue
		}
		c.x[n] = binary.LittleEndian.Uint64(buf[kernel.RegOffset(n):])
	}
	c.x[kernel.REG_SP] = sp
	c.sret()
	return nil
}

func decodeFrame(buf []byte) kernel.TrapFrame {
	var f kernel.TrapFrame
	for n := 1; n < kernel.NREG; n++ {
		f.SetX(n, binary.LittleEndian.Uint64(buf[kernel.RegOffset(n):]))
	}
	f.Sepc = binary.LittleEndian.Uint64(buf[kernel.FRAME_SEPC:])
	f.Sstatus = binary.LittleEndian.Uint64(buf[kernel.FRAME_SSTATUS:])
	return f
}

func encodeFrame(buf []byte, f *kernel.TrapFrame) {
	for n := 1; n < kernel.NREG; n++ {
		binary.LittleEndian.PutUint64(buf[kernel.RegOffset(n):], f.X(n))
	}
	binary.LittleEndian.PutUint64(buf[kernel.FRAME_SEPC:], f.Sepc)
	binary.LittleEndian.PutUint64(buf[kernel.FRAME_SSTATUS:], f.Sstatus)
}
