package sim

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"woflos-in-go/kernel"
	"woflos-in-go/user"
)

// runUser runs a in user mode on a bare hart until its first trap and
// returns the frame the trap handler saw.
func runUser(t *testing.T, a *user.Asm) (*CPU, kernel.TrapFrame) {
	t.Helper()
	img, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	c := New(Options{})
	base, size := c.RAM()
	c.WriteMem(base, img)

	var got kernel.TrapFrame
	c.SetTrapHandler(func(f *kernel.TrapFrame) {
		got = *f
		c.Halt()
	})
	f := kernel.NewUserFrame(base, base+size)
	c.EnterUser(&f)
	if err := c.Run(context.Background(), 10000); !errors.Is(err, ErrHalted) {
		t.Fatalf("Run: %v", err)
	}
	return c, got
}

func assertReg(t *testing.T, f *kernel.TrapFrame, n int, expected uint64) {
	t.Helper()
	if f.X(n) != expected {
		t.Fatalf("Bad %s, expected=%x, actual=%x", kernel.RegName(n), expected, f.X(n))
	}
}

func userCPU(t *testing.T) *CPU {
	t.Helper()
	c := New(Options{})
	base, size := c.RAM()
	f := kernel.NewUserFrame(base+0x100, base+size)
	c.EnterUser(&f)
	return c
}

func TestTrapPreservesRegisters(t *testing.T) {
	c := userCPU(t)
	rnd := rand.New(rand.NewSource(1))
	var before [32]uint64
	for n := 1; n < kernel.NREG; n++ {
		if n != kernel.REG_SP {
			c.SetX(n, rnd.Uint64())
		}
		before[n] = c.X(n)
	}
	pc := c.PC()

	var seen kernel.TrapFrame
	c.SetTrapHandler(func(f *kernel.TrapFrame) { seen = *f })
	if err := c.Inject(kernel.EXC_BREAKPOINT, pc); err != nil {
		t.Fatal(err)
	}

	for n := 1; n < kernel.NREG; n++ {
		if c.X(n) != before[n] {
			t.Fatalf("Bad %s after trap, expected=%x, actual=%x", kernel.RegName(n), before[n], c.X(n))
		}
		assertReg(t, &seen, n, before[n])
	}
	if seen.Sepc != pc || c.PC() != pc {
		t.Fatalf("Bad pc, expected=%x, actual=%x (frame %x)", pc, c.PC(), seen.Sepc)
	}
	if seen.Sstatus&kernel.SSTATUS_SPP != 0 {
		t.Fatal("frame records a trap from supervisor mode")
	}
	if c.Priv() != PRIV_U || c.Sstatus()&kernel.SSTATUS_SIE == 0 {
		t.Fatal("did not return to user mode with interrupts on")
	}
}

func TestTrapWritesBackFrame(t *testing.T) {
	c := userCPU(t)
	pc := c.PC()
	sp := c.X(kernel.REG_SP)
	c.SetTrapHandler(func(f *kernel.TrapFrame) {
		f.SetReturn(7)
		f.SetX(kernel.REG_SP, 0x1234)
		f.Sepc += 4
	})
	if err := c.Inject(kernel.EXC_ECALL_U, 0); err != nil {
		t.Fatal(err)
	}
	if c.X(kernel.REG_A0) != 7 {
		t.Fatalf("Bad a0, actual=%x", c.X(kernel.REG_A0))
	}
	if c.PC() != pc+4 {
		t.Fatalf("Bad pc, expected=%x, actual=%x", pc+4, c.PC())
	}
	if c.X(kernel.REG_SP) != sp {
		t.Fatalf("sp reloaded from the frame: %x", c.X(kernel.REG_SP))
	}
}

func TestEnterUserClearsRegisters(t *testing.T) {
	c := New(Options{})
	for n := 1; n < kernel.NREG; n++ {
		c.SetX(n, 0xbad)
	}
	base, size := c.RAM()
	f := kernel.NewUserFrame(base, base+size)
	f.SetX(kernel.REG_A0, 0x55) // only sp is taken from the frame
	c.EnterUser(&f)

	for n := 1; n < kernel.NREG; n++ {
		want := uint64(0)
		if n == kernel.REG_SP {
			want = base + size
		}
		if c.X(n) != want {
			t.Fatalf("Bad %s, expected=%x, actual=%x", kernel.RegName(n), want, c.X(n))
		}
	}
	if c.PC() != base || c.Priv() != PRIV_U {
		t.Fatalf("Bad entry: pc=%x priv=%d", c.PC(), c.Priv())
	}
}

func TestDoubleFault(t *testing.T) {
	c := New(Options{})
	if err := c.Inject(kernel.EXC_ILLEGAL_INST, 0); !errors.Is(err, ErrDoubleFault) {
		t.Fatalf("expected double fault, got %v", err)
	}
	if !c.Halted() {
		t.Fatal("hart still running after a double fault")
	}
}

func TestTimerGating(t *testing.T) {
	c := New(Options{})
	c.SetTimer(0)
	if c.timerPending() {
		t.Fatal("timer pending while masked in sie")
	}
	c.EnableTimer()
	if c.timerPending() {
		t.Fatal("timer pending in S-mode with sstatus.SIE clear")
	}
	c.sstatus |= kernel.SSTATUS_SIE
	if !c.timerPending() {
		t.Fatal("timer not pending in S-mode with sstatus.SIE set")
	}
	c.sstatus &^= kernel.SSTATUS_SIE
	c.priv = PRIV_U
	if !c.timerPending() {
		t.Fatal("timer not pending in U-mode")
	}
}

func TestConsole(t *testing.T) {
	var tee strings.Builder
	c := NewConsole(&tee)
	if _, ok := c.Getc(); ok {
		t.Fatal("Getc on empty input")
	}
	c.Feed("ab")
	if b, ok := c.Getc(); !ok || b != 'a' {
		t.Fatalf("Getc = %q, %v", b, ok)
	}
	c.Putc('x')
	c.Putc('y')
	if c.String() != "xy" || tee.String() != "xy" {
		t.Fatalf("Bad output %q, tee %q", c.String(), tee.String())
	}
}

type failAfter struct {
	n      int
	writes int
}

var errTeeClosed = errors.New("tee closed")

func (w *failAfter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.n {
		return 0, errTeeClosed
	}
	return len(p), nil
}

func TestConsoleTeeError(t *testing.T) {
	w := &failAfter{n: 1}
	c := NewConsole(w)
	c.Putc('a')
	if c.TeeErr() != nil {
		t.Fatalf("TeeErr = %v before any failure", c.TeeErr())
	}
	c.Putc('b')
	c.Putc('c')
	if !errors.Is(c.TeeErr(), errTeeClosed) {
		t.Fatalf("TeeErr = %v", c.TeeErr())
	}
	if w.writes != 2 {
		t.Fatalf("tee written %d times after failing", w.writes)
	}
	if c.String() != "abc" {
		t.Fatalf("Bad output %q", c.String())
	}
}

func TestConsoleDrained(t *testing.T) {
	c := NewConsole(nil)
	if !c.Drained() {
		t.Fatal("fresh console not drained")
	}
	c.Feed("x")
	if c.Drained() {
		t.Fatal("drained with input queued")
	}
	c.Getc()
	if !c.Drained() {
		t.Fatal("not drained after reading everything")
	}
}
