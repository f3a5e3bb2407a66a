package kernel

// NewUserFrame builds the register file a new process starts with:
// pc at entry, sp at stack, everything else zero. sret from this frame
// drops to user mode (SPP=0) with interrupts enabled (SPIE=1).
func NewUserFrame(entry, stack uint64) TrapFrame {
	var f TrapFrame
	f.Sepc = entry
	f.SetX(REG_SP, stack)
	f.Sstatus = SSTATUS_SPIE
	return f
}

// Launch creates a process running at entry on the stack whose top is
// stack, makes it current and transfers to user mode. On hardware it
// never returns.
func (k *Kernel) Launch(name string, entry, stack uint64) {
	p := k.procs.allocproc(k.AllocPid(), name)
	if p == nil {
		k.fatal("launch: no free process slot")
		return
	}
	p.frame = NewUserFrame(entry, stack)
	k.launch(p)
}

// Exec copies a position-independent program image into a fresh frame,
// gives it a zeroed stack frame and launches it. Running out of frames
// or process slots is fatal; whatever was claimed before the failure is
// given back first.
func (k *Kernel) Exec(name string, image []byte) error {
	if len(image) == 0 || len(image) > PGSIZE {
		return kernError("exec: image must be between 1 and PGSIZE bytes")
	}

	text := k.kmem.kalloc()
	if text == 0 {
		k.fatal("exec: out of physical frames")
		return kernError("exec: out of physical frames")
	}
	stack := k.kmem.kalloc()
	if stack == 0 {
		k.kmem.kfree(text)
		k.fatal("exec: out of physical frames")
		return kernError("exec: out of physical frames")
	}

	p := k.procs.allocproc(k.AllocPid(), name)
	if p == nil {
		k.kmem.kfree(text)
		k.kmem.kfree(stack)
		k.fatal("exec: no free process slot")
		return kernError("exec: no free process slot")
	}

	k.hw.ZeroMem(text, PGSIZE)
	k.hw.WriteMem(text, image)
	k.hw.ZeroMem(stack, PGSIZE)
	p.pages = []uint64{text, stack}
	p.frame = NewUserFrame(text, stack+PGSIZE)

	k.log.printf("[PROC] %s: pid %d, text at 0x%x, stack top 0x%x\n",
		name, p.pid, text, stack+PGSIZE)
	k.launch(p)
	return nil
}

func (k *Kernel) launch(p *Process) {
	p.SetRunning()
	k.SetCurrentProcess(p)
	k.log.printf("[PROC] Switching to user mode: pid %d (%s) at 0x%x\n",
		p.pid, p.name, p.frame.Sepc)
	k.hw.EnterUser(&p.frame)
}
