package kernel

// syscall numbers
const (
	SYS_TEST   = 0 // returns SYS_TEST_MAGIC
	SYS_PUTC   = 1
	SYS_EXIT   = 2
	SYS_GETPID = 3
	SYS_YIELD  = 4

	// reserved for IPC
	SYS_SEND = 10
	SYS_RECV = 11

	// reserved for distributed operations
	SYS_SEND_REMOTE   = 1000
	SYS_RECV_REMOTE   = 1001
	SYS_NODE_DISCOVER = 1010
)

const SYS_TEST_MAGIC = 42

// ENOSYS is left in a0 by syscalls that do not exist or are not
// implemented yet.
const ENOSYS = ^uint64(0)

type sysentry struct {
	name string
	impl func(k *Kernel, args [6]uint64) uint64
	// impl never comes back to the caller; the frame is left untouched
	noreturn bool
}

var sysent = map[uint64]sysentry{
	SYS_TEST:          {"test", systest, false},
	SYS_PUTC:          {"putc", sysputc, false},
	SYS_EXIT:          {"exit", sysexit, true},
	SYS_GETPID:        {"getpid", sysgetpid, false},
	SYS_YIELD:         {"yield", sysyield, false},
	SYS_SEND:          {"send", sysipc, false},
	SYS_RECV:          {"recv", sysipc, false},
	SYS_SEND_REMOTE:   {"send_remote", sysremote, false},
	SYS_RECV_REMOTE:   {"recv_remote", sysremote, false},
	SYS_NODE_DISCOVER: {"node_discover", sysremote, false},
}

// SyscallName returns the name of syscall num, or "unknown".
func SyscallName(num uint64) string {
	if ent, ok := sysent[num]; ok {
		return ent.name
	}
	return "unknown"
}

// syscall runs the syscall requested by a user ecall. Except for exit,
// sepc is moved past the ecall whatever the outcome.
func (k *Kernel) syscall(f *TrapFrame) {
	num := f.SyscallNum()
	if k.cfg.Trace {
		k.log.printf("[SYSCALL] %s (%d)\n", SyscallName(num), num)
	}

	ent, ok := sysent[num]
	if !ok {
		k.log.printf("[SYSCALL] Unknown syscall: %d\n", num)
		f.SetReturn(ENOSYS)
		f.Sepc += INSN_SIZE
		return
	}

	ret := ent.impl(k, f.SyscallArgs())
	if ent.noreturn {
		return
	}
	f.SetReturn(ret)
	f.Sepc += INSN_SIZE
}

func systest(k *Kernel, args [6]uint64) uint64 {
	k.log.printf("[SYSCALL] Test syscall from user mode - SUCCESS\n")
	return SYS_TEST_MAGIC
}

func sysputc(k *Kernel, args [6]uint64) uint64 {
	k.log.out.Putc(byte(args[0]))
	return 0
}

// sysexit releases the caller and halts: there is nothing else to run.
func sysexit(k *Kernel, args [6]uint64) uint64 {
	code := args[0]
	p := k.CurrentProcess()
	if p != nil {
		k.log.printf("[SYSCALL] Process %d (%s) exit (code: %d)\n", p.pid, p.name, code)
		k.freeproc(p)
	} else {
		k.log.printf("[SYSCALL] User process exit (code: %d)\n", code)
	}
	k.log.printf("[PROC] No runnable processes, halting.\n")
	k.hw.Halt()
	return 0
}

func sysgetpid(k *Kernel, args [6]uint64) uint64 {
	if p := k.CurrentProcess(); p != nil {
		return uint64(p.pid)
	}
	return 0
}

// sysyield has nothing to switch to until there is a scheduler.
func sysyield(k *Kernel, args [6]uint64) uint64 {
	return 0
}

func sysipc(k *Kernel, args [6]uint64) uint64 {
	k.log.printf("[SYSCALL] IPC not yet implemented\n")
	return ENOSYS
}

func sysremote(k *Kernel, args [6]uint64) uint64 {
	k.log.printf("[SYSCALL] Distributed operation not yet implemented\n")
	return ENOSYS
}
