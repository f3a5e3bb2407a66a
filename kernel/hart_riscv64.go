package kernel

import _ "unsafe"

// kern is the kernel the trap vector hands every trap to.
// It is the one root the assembly needs; everything else hangs off it.
var kern *Kernel

// Written by enter_user, read by trapvec: the kernel's g and its stack
// pointer at the moment it left for user mode. Traps run the kernel on
// that stack; nothing above it is live since enter_user never returns.
var trapg, trapsp uintptr

// Machine is the hart this code is running on.
type Machine struct{}

func (Machine) Scause() uint64 { return r_scause() }
func (Machine) Stval() uint64 { return r_stval() }
func (Machine) Time() uint64 { return r_time() }
func (Machine) SetTimer(when uint64) { sbi_set_timer(when) }
func (Machine) EnableTimer() { timer_on() }
func (Machine) EnterUser(f *TrapFrame) {
	enter_user(f)
}
func (Machine) Halt() { halt() }

func (Machine) WriteMem(pa uint64, b []byte) {
	memmove(uintptr(pa), b)
	fence_i()
}

func (Machine) ZeroMem(pa uint64, n uint64) {
	memset(uintptr(pa), 0, n)
}

// Install makes k the receiver of every trap on this hart and points
// stvec at the trap vector.
func Install(k *Kernel) {
	kern = k
	trapinithart()
}

// KernelEnd is the first byte after the kernel image, from the linker script.
func KernelEnd() uint64 { return uint64(get_end()) }

//go:linkname get_end get_end
func get_end() uintptr

// trap is called by trapvec with a pointer to the frame it just saved.
//
//go:nosplit
func trap(f *TrapFrame) {
	kern.Trap(f)
}

// Implemented in trap_riscv64.s.

func r_scause() uint64
func r_stval() uint64
func r_time() uint64
func sbi_set_timer(when uint64)
func timer_on()
func trapinithart()
func trapvec()
func enter_user(f *TrapFrame)
func halt()
func fence_i()
