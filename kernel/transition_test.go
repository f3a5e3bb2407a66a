package kernel

import (
	"bytes"
	"testing"
)

func TestExec(t *testing.T) {
	k, h, cons := newTestKernel(t, 4)
	image := []byte{0x93, 0x08, 0x00, 0x00, 0x73, 0x00, 0x00, 0x00}
	if err := k.Exec("init", image); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	if len(h.entered) != 1 {
		t.Fatalf("EnterUser called %d times", len(h.entered))
	}
	f := h.entered[0]
	p := k.CurrentProcess()
	if p == nil || p.State() != RUNNING || p.Name() != "init" || p.Pid() != 1 {
		t.Fatalf("Bad current process %+v", p)
	}
	if len(p.pages) != 2 {
		t.Fatalf("Bad page count %d", len(p.pages))
	}
	text, stack := p.pages[0], p.pages[1]

	if f.Sepc != text {
		t.Fatalf("Bad entry, expected=%x, actual=%x", text, f.Sepc)
	}
	if !bytes.Equal(h.writes[text], image) {
		t.Fatal("image not copied to the text frame")
	}
	if h.zeroed[text] != PGSIZE || h.zeroed[stack] != PGSIZE {
		t.Fatal("text and stack frames not zeroed")
	}
	want := NewUserFrame(text, stack+PGSIZE)
	if f != want {
		t.Fatalf("Bad initial frame:\n got %+v\nwant %+v", f, want)
	}
	if *p.Frame() != want {
		t.Fatal("process does not hold its initial frame")
	}
	assertOutput(t, cons, "[PROC] Switching to user mode: pid 1 (init)")
}

func TestExecBadImage(t *testing.T) {
	k, h, _ := newTestKernel(t, 4)
	if err := k.Exec("empty", nil); err == nil {
		t.Fatal("Exec accepted an empty image")
	}
	if err := k.Exec("big", make([]byte, PGSIZE+1)); err == nil {
		t.Fatal("Exec accepted an image larger than a frame")
	}
	if len(h.entered) != 0 || h.halted {
		t.Fatal("bad image reached user mode or halted")
	}
	if used, _ := k.FrameStats(); used != 0 {
		t.Fatalf("frames leaked: %d", used)
	}
}

func TestExecOutOfFrames(t *testing.T) {
	k, h, cons := newTestKernel(t, 1)
	if err := k.Exec("init", []byte{0x73, 0, 0, 0}); err == nil {
		t.Fatal("Exec succeeded with a single frame")
	}
	if !h.halted {
		t.Fatal("out of frames is not fatal")
	}
	assertOutput(t, cons, "[PANIC] exec: out of physical frames")
	if used, _ := k.FrameStats(); used != 0 {
		t.Fatalf("Bad frames in use after failed Exec, expected=0, actual=%d", used)
	}
}

func TestExecNoSlotReleasesFrames(t *testing.T) {
	k, h, cons := newTestKernel(t, 4)
	for i := 0; i < NPROC; i++ {
		k.Launch("p", 0x80001000, 0x80002000)
	}
	err := k.Exec("init", []byte{0x73, 0, 0, 0})
	if err == nil {
		t.Fatal("Exec succeeded with a full process table")
	}
	if !h.halted {
		t.Fatal("full process table is not fatal")
	}
	if used, _ := k.FrameStats(); used != 0 {
		t.Fatalf("Bad frames in use after failed Exec, expected=0, actual=%d", used)
	}
	if len(h.writes) != 0 {
		t.Fatal("image copied for a process that was never created")
	}
	assertOutput(t, cons, "[PANIC] exec: no free process slot")
}

func TestLaunch(t *testing.T) {
	k, h, _ := newTestKernel(t, 1)
	k.Launch("a", 0x80001000, 0x80002000)
	k.Launch("b", 0x80003000, 0x80004000)

	if len(h.entered) != 2 {
		t.Fatalf("EnterUser called %d times", len(h.entered))
	}
	if h.entered[1] != NewUserFrame(0x80003000, 0x80004000) {
		t.Fatalf("Bad frame %+v", h.entered[1])
	}
	if p := k.CurrentProcess(); p == nil || p.Name() != "b" || p.Pid() != 2 {
		t.Fatal("second launch is not current")
	}
}

func TestLaunchTableFull(t *testing.T) {
	k, h, cons := newTestKernel(t, 1)
	for i := 0; i < NPROC; i++ {
		k.Launch("p", 0x80001000, 0x80002000)
	}
	if h.halted {
		t.Fatal("halted before the table was full")
	}
	k.Launch("one too many", 0x80001000, 0x80002000)
	if !h.halted {
		t.Fatal("full process table is not fatal")
	}
	assertOutput(t, cons, "[PANIC] launch: no free process slot")
}
