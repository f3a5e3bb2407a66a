package kernel

// TrapFrame is the register file as saved by the trap vector.
// The layout is known to trap_riscv64.s (through go_asm.h) and to the
// simulated hart (through the offset constants below); do not reorder.
type TrapFrame struct {
	Regs    [31]uint64 // x1..x31, x0 is never stored
	Sepc    uint64
	Sstatus uint64
}

const (
	FRAME_SEPC    = 31 * 8
	FRAME_SSTATUS = 32 * 8
	FRAME_SIZE    = 33 * 8
)

// RegOffset is the byte offset of register x<n> (1 <= n <= 31) in a TrapFrame.
func RegOffset(n int) uint64 { return uint64(n-1) * 8 }

// X returns register x<n>. x0 reads as zero.
func (f *TrapFrame) X(n int) uint64 {
	if n == REG_ZERO {
		return 0
	}
	return f.Regs[n-1]
}

// SetX sets register x<n>. Writes to x0 are dropped.
func (f *TrapFrame) SetX(n int, v uint64) {
	if n == REG_ZERO {
		return
	}
	f.Regs[n-1] = v
}

// Syscall calling convention: number in a7, arguments in a0..a5,
// result back in a0.

func (f *TrapFrame) SyscallNum() uint64 { return f.X(REG_A7) }

func (f *TrapFrame) SyscallArgs() [6]uint64 {
	var a [6]uint64
	for i := range a {
		a[i] = f.X(REG_A0 + i)
	}
	return a
}

func (f *TrapFrame) SetReturn(v uint64) { f.SetX(REG_A0, v) }

func (f *TrapFrame) print(pr *printer) {
	for n := 1; n < NREG; n++ {
		pr.printf("%s=0x%x", RegName(n), f.X(n))
		if n%4 == 0 {
			pr.printf("\n")
		} else {
			pr.printf(" ")
		}
	}
	pr.printf("\nsepc=0x%x sstatus=0x%x\n", f.Sepc, f.Sstatus)
}
