package kernel

const NPROC = 8

type Pid uint64

type ProcState int

const (
	UNUSED  ProcState = iota // 0
	READY                    // 1
	RUNNING                  // 2
	BLOCKED                  // 3, nothing blocks yet
	DEAD                     // 4
)

func (s ProcState) String() string {
	switch s {
	case UNUSED:
		return "unused"
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case BLOCKED:
		return "blocked"
	case DEAD:
		return "dead"
	}
	return "?"
}

// Process is the kernel's record of a user program.
type Process struct {
	pid   Pid
	state ProcState
	name  string

	// user context: the launch frame, then the frame as it will be
	// restored after the most recent trap
	frame TrapFrame

	// frames holding the program image and stack
	pages []uint64
}

func (p *Process) Pid() Pid { return p.pid }
func (p *Process) State() ProcState { return p.state }
func (p *Process) Name() string { return p.name }
func (p *Process) SetRunning() { p.state = RUNNING }
func (p *Process) SetReady() { p.state = READY }
// Frame returns the process's saved user context.
func (p *Process) Frame() *TrapFrame { return &p.frame }

type procTable struct {
	lock spinlock

	// lock must be held when using these:
	proc    [NPROC]Process
	current *Process
}

// allocproc claims an unused (or dead) slot and returns it in READY state.
func (pt *procTable) allocproc(pid Pid, name string) *Process {
	pt.lock.acquire()
	defer pt.lock.release()

	for i := range pt.proc {
		p := &pt.proc[i]
		if p.state == UNUSED || p.state == DEAD {
			*p = Process{pid: pid, state: READY, name: name}
			return p
		}
	}
	return nil
}

// AllocPid returns a fresh process identifier. Identifiers start at 1,
// strictly increase and are never reused.
func (k *Kernel) AllocPid() Pid {
	return Pid(k.nextpid.Add(1))
}

// CurrentProcess returns the process on the hart, or nil.
func (k *Kernel) CurrentProcess() *Process {
	k.procs.lock.acquire()
	defer k.procs.lock.release()
	return k.procs.current
}

// SetCurrentProcess replaces the current process. Whatever was current
// before is simply forgotten.
func (k *Kernel) SetCurrentProcess(p *Process) {
	k.procs.lock.acquire()
	k.procs.current = p
	k.procs.lock.release()
}

// freeproc marks p dead and gives its frames back to the allocator.
func (k *Kernel) freeproc(p *Process) {
	for _, pa := range p.pages {
		if err := k.kmem.kfree(pa); err != nil {
			k.log.printf("[PROC] %s: %s\n", p.name, err.Error())
		}
	}
	p.pages = nil

	k.procs.lock.acquire()
	p.state = DEAD
	if k.procs.current == p {
		k.procs.current = nil
	}
	k.procs.lock.release()
}
