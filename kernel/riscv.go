package kernel

const PGSIZE = 4096

// sstatus bits
const (
	SSTATUS_SIE  = 1 << 1 // Supervisor Interrupt Enable
	SSTATUS_SPIE = 1 << 5 // Supervisor Previous Interrupt Enable
	SSTATUS_SPP  = 1 << 8 // Previous mode, 1=Supervisor, 0=User
)

// sie bits
const (
	SIE_SSIE = 1 << 1 // software
	SIE_STIE = 1 << 5 // timer
	SIE_SEIE = 1 << 9 // external
)

// scause: the top bit tells interrupts from exceptions,
// the rest is the cause code.
const (
	SCAUSE_INTR = uint64(1) << 63
	SCAUSE_CODE = SCAUSE_INTR - 1
)

// interrupt codes
const (
	IRQ_S_SOFT  = 1
	IRQ_S_TIMER = 5
	IRQ_S_EXT   = 9
)

// exception codes
const (
	EXC_INST_MISALIGNED  = 0
	EXC_INST_ACCESS      = 1
	EXC_ILLEGAL_INST     = 2
	EXC_BREAKPOINT       = 3
	EXC_LOAD_MISALIGNED  = 4
	EXC_LOAD_ACCESS      = 5
	EXC_STORE_MISALIGNED = 6
	EXC_STORE_ACCESS     = 7
	EXC_ECALL_U          = 8
	EXC_ECALL_S          = 9
	EXC_INST_PAGE_FAULT  = 12
	EXC_LOAD_PAGE_FAULT  = 13
	EXC_STORE_PAGE_FAULT = 15
)

// Every instruction this kernel traps on (ecall) is 4 bytes wide.
const INSN_SIZE = 4

// SBI timer extension ("TIME") and its set_timer function.
const (
	SBI_EXT_TIME       = 0x54494D45
	SBI_TIME_SET_TIMER = 0
)

// general purpose registers by architectural number
const (
	REG_ZERO = iota
	REG_RA
	REG_SP
	REG_GP
	REG_TP
	REG_T0
	REG_T1
	REG_T2
	REG_S0
	REG_S1
	REG_A0
	REG_A1
	REG_A2
	REG_A3
	REG_A4
	REG_A5
	REG_A6
	REG_A7
	REG_S2
	REG_S3
	REG_S4
	REG_S5
	REG_S6
	REG_S7
	REG_S8
	REG_S9
	REG_S10
	REG_S11
	REG_T3
	REG_T4
	REG_T5
	REG_T6
	NREG
)

var regnames = [NREG]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name of register x<n>.
func RegName(n int) string {
	if n < 0 || n >= NREG {
		return "?"
	}
	return regnames[n]
}

func PGROUNDUP(a uint64) uint64 { return (a + PGSIZE - 1) &^ (PGSIZE - 1) }
func PGROUNDDOWN(a uint64) uint64 { return a &^ (PGSIZE - 1) }
