package user

import "woflos-in-go/kernel"

// syscall emits li a7, num; ecall.
func (a *Asm) syscall(num int64) *Asm {
	return a.Li(A7, num).Ecall()
}

// puts writes the bytes of data label msg through putc, one ecall each.
// a1, a2 and a0 are clobbered.
func (a *Asm) puts(msg string, n int) *Asm {
	loop, done := msg+".loop", msg+".done"
	a.La(A1, msg)
	a.Li(A2, int64(n))
	a.Label(loop)
	a.Beqz(A2, done)
	a.Lbu(A0, A1, 0)
	a.syscall(kernel.SYS_PUTC)
	a.Addi(A1, A1, 1)
	a.Addi(A2, A2, -1)
	a.J(loop)
	return a.Label(done)
}

// exit emits exit(code) followed by a self-loop that is never reached.
func (a *Asm) exit(code int64) *Asm {
	a.Li(A0, code)
	a.syscall(kernel.SYS_EXIT)
	a.Label("hang")
	return a.J("hang")
}

// Test calls the test syscall, keeps the answer in s1 and exits with 3.
func Test() []byte {
	a := NewAsm()
	a.syscall(kernel.SYS_TEST)
	a.Mv(S1, A0)
	a.exit(3)
	return a.MustAssemble()
}

const (
	hello  = "Hello from userspace!\n"
	pidmsg = "My PID: 0x"
)

// Init greets the console, prints its pid in hex and exits with 0.
func Init() []byte {
	a := NewAsm()
	a.puts("hello", len(hello))

	a.syscall(kernel.SYS_GETPID)
	a.Mv(S1, A0)
	a.puts("pidmsg", len(pidmsg))

	// sixteen nibbles, most significant first
	a.Li(S2, 60)
	a.Li(T1, 10)
	a.Label("hex")
	a.Srl(T0, S1, S2)
	a.Andi(T0, T0, 15)
	a.Blt(T0, T1, "digit")
	a.Addi(A0, T0, 'a'-10)
	a.J("put")
	a.Label("digit")
	a.Addi(A0, T0, '0')
	a.Label("put")
	a.syscall(kernel.SYS_PUTC)
	a.Addi(S2, S2, -4)
	a.Bge(S2, ZERO, "hex")

	a.Li(A0, '\n')
	a.syscall(kernel.SYS_PUTC)
	a.exit(0)

	a.Ascii("hello", hello)
	a.Ascii("pidmsg", pidmsg)
	return a.MustAssemble()
}

// Spin loops forever without trapping. Only timer interrupts get the kernel
// back.
func Spin() []byte {
	a := NewAsm()
	a.Label("spin")
	a.Addi(S1, S1, 1)
	a.J("spin")
	return a.MustAssemble()
}

// Invoke issues syscall num with no arguments, keeps the result in s1 and
// exits with 0.
func Invoke(num uint64) []byte {
	a := NewAsm()
	a.syscall(int64(num))
	a.Mv(S1, A0)
	a.exit(0)
	return a.MustAssemble()
}

// FaultAddr is the address Fault loads from. Nothing is mapped there.
const FaultAddr = 0xDEAD0000

// Fault loads from FaultAddr.
func Fault() []byte {
	a := NewAsm()
	a.Li(T0, FaultAddr)
	a.Ld(A0, T0, 0)
	a.exit(0)
	return a.MustAssemble()
}

// Programs maps the names accepted by trapsim to their images.
var Programs = map[string]func() []byte{
	"init":  Init,
	"test":  Test,
	"spin":  Spin,
	"fault": Fault,
}
