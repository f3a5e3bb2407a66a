package sim

import (
	"context"
	"encoding/binary"

	"woflos-in-go/kernel"
	"woflos-in-go/user"
)

const (
	insnSRET = 0x10200073
	insnWFI  = 0x10500073
)

// Run steps the hart until it halts (ErrHalted), limit steps have been
// executed (ErrStepLimit, limit 0 means no limit), ctx is done, or the
// machine cannot continue.
func (c *CPU) Run(ctx context.Context, limit uint64) error {
	for i := uint64(0); limit == 0 || i < limit; i++ {
		if i&0x3ff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	if c.halted {
		return ErrHalted
	}
	return ErrStepLimit
}

// Step advances time by one tick and then either takes a pending timer
// interrupt or executes one instruction.
func (c *CPU) Step() error {
	if c.halted {
		return ErrHalted
	}
	c.time++
	if c.timerPending() {
		return c.trap(kernel.SCAUSE_INTR|kernel.IRQ_S_TIMER, 0)
	}
	return c.exec()
}

// timerPending: S-mode interrupts are always enabled in U-mode and gated
// by sstatus.SIE in S-mode.
func (c *CPU) timerPending() bool {
	if !c.timerSet || c.time < c.timecmp || c.sie&kernel.SIE_STIE == 0 {
		return false
	}
	return c.priv == PRIV_U || c.sstatus&kernel.SSTATUS_SIE != 0
}

func sext(v uint64, bits uint) uint64 {
	shift := 64 - bits
	return uint64(int64(v<<shift) >> shift)
}

func (c *CPU) load(addr, n uint64) (uint64, bool) {
	m := c.mem(addr, n)
	if m == nil {
		return 0, false
	}
	switch n {
	case 1:
		return uint64(m[0]), true
	case 2:
		return uint64(binary.LittleEndian.Uint16(m)), true
	case 4:
		return uint64(binary.LittleEndian.Uint32(m)), true
	}
	return binary.LittleEndian.Uint64(m), true
}

func (c *CPU) store(addr, n, v uint64) bool {
	m := c.mem(addr, n)
	if m == nil {
		return false
	}
	switch n {
	case 1:
		m[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(m, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(m, uint32(v))
	default:
		binary.LittleEndian.PutUint64(m, v)
	}
	return true
}

func (c *CPU) exec() error {
	pc := c.pc
	if pc%4 != 0 {
		return c.trap(kernel.EXC_INST_MISALIGNED, pc)
	}
	w, ok := c.load(pc, 4)
	if !ok {
		return c.trap(kernel.EXC_INST_ACCESS, pc)
	}
	insn := uint32(w)

	op := insn & 0x7f
	rd := int(insn >> 7 & 0x1f)
	funct3 := insn >> 12 & 7
	rs1 := c.x[insn>>15&0x1f]
	rs2 := c.x[insn>>20&0x1f]
	funct7 := insn >> 25
	immI := sext(uint64(insn>>20), 12)
	immS := sext(uint64(insn>>25<<5|insn>>7&0x1f), 12)
	immB := sext(uint64(insn>>31<<12|insn>>7&1<<11|insn>>25&0x3f<<5|insn>>8&0xf<<1), 13)
	immU := sext(uint64(insn&0xfffff000), 32)
	immJ := sext(uint64(insn>>31<<20|insn>>12&0xff<<12|insn>>20&1<<11|insn>>21&0x3ff<<1), 21)

	illegal := func() error { return c.trap(kernel.EXC_ILLEGAL_INST, uint64(insn)) }
	next := pc + 4

	switch op {
	case user.OP_LUI:
		c.SetX(rd, immU)
	case user.OP_AUIPC:
		c.SetX(rd, pc+immU)
	case user.OP_JAL:
		target := pc + immJ
		if target%4 != 0 {
			return c.trap(kernel.EXC_INST_MISALIGNED, target)
		}
		c.SetX(rd, next)
		next = target
	case user.OP_JALR:
		if funct3 != 0 {
			return illegal()
		}
		target := (rs1 + immI) &^ 1
		if target%4 != 0 {
			return c.trap(kernel.EXC_INST_MISALIGNED, target)
		}
		c.SetX(rd, next)
		next = target
	case user.OP_BRANCH:
		var taken bool
		switch funct3 {
		case 0:
			taken = rs1 == rs2
		case 1:
			taken = rs1 != rs2
		case 4:
			taken = int64(rs1) < int64(rs2)
		case 5:
			taken = int64(rs1) >= int64(rs2)
		case 6:
			taken = rs1 < rs2
		case 7:
			taken = rs1 >= rs2
		default:
			return illegal()
		}
		if taken {
			target := pc + immB
			if target%4 != 0 {
				return c.trap(kernel.EXC_INST_MISALIGNED, target)
			}
			next = target
		}
	case user.OP_LOAD:
		addr := rs1 + immI
		size := uint64(1) << (funct3 & 3)
		if funct3 == 7 {
			return illegal()
		}
		v, ok := c.load(addr, size)
		if !ok {
			return c.trap(kernel.EXC_LOAD_ACCESS, addr)
		}
		if funct3 < 4 {
			v = sext(v, uint(size*8))
		}
		c.SetX(rd, v)
	case user.OP_STORE:
		if funct3 > 3 {
			return illegal()
		}
		addr := rs1 + immS
		if !c.store(addr, uint64(1)<<funct3, rs2) {
			return c.trap(kernel.EXC_STORE_ACCESS, addr)
		}
	case user.OP_IMM:
		v, ok := alu(funct3, funct7, rs1, immI, true)
		if !ok {
			return illegal()
		}
		c.SetX(rd, v)
	case user.OP_OP:
		v, ok := alu(funct3, funct7, rs1, rs2, false)
		if !ok {
			return illegal()
		}
		c.SetX(rd, v)
	case user.OP_IMM_32:
		v, ok := alu32(funct3, funct7, rs1, immI, true)
		if !ok {
			return illegal()
		}
		c.SetX(rd, v)
	case user.OP_OP_32:
		v, ok := alu32(funct3, funct7, rs1, rs2, false)
		if !ok {
			return illegal()
		}
		c.SetX(rd, v)
	case user.OP_MISC_MEM:
		// fence, fence.i: memory is coherent
	case user.OP_SYSTEM:
		switch insn {
		case user.ECALL:
			if c.priv == PRIV_U {
				return c.trap(kernel.EXC_ECALL_U, 0)
			}
			return c.trap(kernel.EXC_ECALL_S, 0)
		case user.EBREAK:
			return c.trap(kernel.EXC_BREAKPOINT, pc)
		case insnSRET:
			if c.priv == PRIV_U {
				return illegal()
			}
			c.sret()
			return nil
		case insnWFI:
			if c.priv == PRIV_U {
				return illegal()
			}
		default:
			// CSR access: no kernel code executes on the simulated hart
			return illegal()
		}
	default:
		return illegal()
	}

	c.pc = next
	return nil
}

// alu implements OP and OP-IMM. In the immediate shifts the upper
// immediate bits select srai and must otherwise be zero.
func alu(funct3, funct7 uint32, a, b uint64, imm bool) (uint64, bool) {
	shamt := b & 0x3f
	if imm {
		switch funct3 {
		case 1:
			if funct7>>1 != 0 {
				return 0, false
			}
			return a << shamt, true
		case 5:
			switch funct7 >> 1 {
			case 0:
				return a >> shamt, true
			case 0x10:
				return uint64(int64(a) >> shamt), true
			}
			return 0, false
		}
		return aluop(funct3, a, b), true
	}

	switch funct7 {
	case 0:
		return aluop(funct3, a, b), true
	case 0x20:
		switch funct3 {
		case 0:
			return a - b, true
		case 5:
			return uint64(int64(a) >> shamt), true
		}
	}
	return 0, false
}

func aluop(funct3 uint32, a, b uint64) uint64 {
	switch funct3 {
	case 0:
		return a + b
	case 1:
		return a << (b & 0x3f)
	case 2:
		if int64(a) < int64(b) {
			return 1
		}
		return 0
	case 3:
		if a < b {
			return 1
		}
		return 0
	case 4:
		return a ^ b
	case 5:
		return a >> (b & 0x3f)
	case 6:
		return a | b
	}
	return a & b
}

// alu32 implements the W forms, sign-extending the 32-bit result.
func alu32(funct3, funct7 uint32, a, b uint64, imm bool) (uint64, bool) {
	x, y := uint32(a), uint32(b)
	shamt := y & 0x1f
	sub := funct7 == 0x20
	switch {
	case funct3 == 0 && imm:
		return sext(uint64(x+y), 32), true
	case funct3 == 0 && funct7 == 0:
		return sext(uint64(x+y), 32), true
	case funct3 == 0 && sub:
		return sext(uint64(x-y), 32), true
	case funct3 == 1 && funct7 == 0:
		return sext(uint64(x<<shamt), 32), true
	case funct3 == 5 && funct7 == 0:
		return sext(uint64(x>>shamt), 32), true
	case funct3 == 5 && sub:
		return sext(uint64(uint32(int32(x)>>shamt)), 32), true
	}
	return 0, false
}
