package kernel

// Trap is called by the trap vector with the saved register file of
// whatever was interrupted. Whatever Trap leaves in f is restored on return,
// and is also recorded as the current process's context.
// scause is read exactly once; stval only for exceptions.
func (k *Kernel) Trap(f *TrapFrame) {
	intr, code := DecodeCause(k.hw.Scause())
	if intr {
		k.devintr(code)
	} else if code == EXC_ECALL_U {
		k.syscall(f)
	} else {
		// page faults, illegal instructions, and ecall from
		// supervisor mode (kernel code trapping on itself)
		k.faultintr(code, k.hw.Stval(), f)
		return
	}
	k.saveContext(f)
}

// saveContext copies f into the current process, if there still is one.
func (k *Kernel) saveContext(f *TrapFrame) {
	if p := k.CurrentProcess(); p != nil {
		p.frame = *f
	}
}

// DecodeCause splits an scause value into its interrupt bit and code.
func DecodeCause(scause uint64) (intr bool, code uint64) {
	return scause&SCAUSE_INTR != 0, scause & SCAUSE_CODE
}

func (k *Kernel) devintr(code uint64) {
	switch code {
	case IRQ_S_TIMER:
		k.clockintr()
	default:
		k.log.printf("[TRAP] Unknown interrupt: %d\n", code)
	}
}

// faultintr reports an exception nothing can recover from and halts.
func (k *Kernel) faultintr(code, stval uint64, f *TrapFrame) {
	k.log.printf("[TRAP] %s: cause=%d sepc=0x%x stval=0x%x\n",
		CauseName(false, code), code, f.Sepc, stval)
	f.print(&k.log)
	k.fatal("unrecoverable exception")
}

// CauseName describes a decoded trap cause.
func CauseName(intr bool, code uint64) string {
	if intr {
		switch code {
		case IRQ_S_SOFT:
			return "supervisor software interrupt"
		case IRQ_S_TIMER:
			return "supervisor timer interrupt"
		case IRQ_S_EXT:
			return "supervisor external interrupt"
		}
		return "unknown interrupt"
	}

	switch code {
	case EXC_INST_MISALIGNED:
		return "instruction address misaligned"
	case EXC_INST_ACCESS:
		return "instruction access fault"
	case EXC_ILLEGAL_INST:
		return "illegal instruction"
	case EXC_BREAKPOINT:
		return "breakpoint"
	case EXC_LOAD_MISALIGNED:
		return "load address misaligned"
	case EXC_LOAD_ACCESS:
		return "load access fault"
	case EXC_STORE_MISALIGNED:
		return "store address misaligned"
	case EXC_STORE_ACCESS:
		return "store access fault"
	case EXC_ECALL_U:
		return "ecall from user mode"
	case EXC_ECALL_S:
		return "unexpected ecall from supervisor mode"
	case EXC_INST_PAGE_FAULT:
		return "instruction page fault"
	case EXC_LOAD_PAGE_FAULT:
		return "load page fault"
	case EXC_STORE_PAGE_FAULT:
		return "store page fault"
	}
	return "unhandled exception"
}
