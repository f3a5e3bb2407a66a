package kernel

import (
	"strings"
	"testing"
)

func runMonitor(t *testing.T, frames uint64, input string) (*Kernel, *fakeConsole) {
	t.Helper()
	k, _, cons := newTestKernel(t, frames)
	cons.in = input
	k.Monitor()
	return k, cons
}

func TestMonitorCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"help", "help\n", []string{"Available commands:", "meminfo", "boot"}},
		{"about", "about\r", []string{"woflOS: RISC-V 64-bit kernel"}},
		{"meminfo", "meminfo\n", []string{"Frames used:      0", "Frames total:     3", "Frame size:       4096 bytes"}},
		{"echo", "echo  hello   world\n", []string{"hello world\n"}},
		{"clear", "clear\n", []string{"\x1b[2J\x1b[H"}},
		{"unknown", "frobnicate now\n", []string{"Unknown command: frobnicate", "Type 'help' for available commands"}},
		{"empty", "\n\n", []string{"woflOS> \nwoflOS> \nwoflOS> "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cons := runMonitor(t, 3, tt.input)
			assertOutput(t, cons, tt.want...)
		})
	}
}

func TestMonitorBackspace(t *testing.T) {
	_, cons := runMonitor(t, 1, "echo abx\x7fc\n\x08\x08ps\n")
	assertOutput(t, cons, "x\b \b", "abc\n", "PID  STATE    NAME")
}

func TestMonitorBootStops(t *testing.T) {
	_, cons := runMonitor(t, 1, "boot\necho unreachable\n")
	if strings.Contains(cons.String(), "unreachable") {
		t.Fatalf("monitor kept reading after boot:\n%s", cons.String())
	}
	if cons.in != "echo unreachable\n" {
		t.Fatalf("Bad leftover input %q", cons.in)
	}
}

func TestMonitorLongLine(t *testing.T) {
	_, cons := runMonitor(t, 1, "echo "+strings.Repeat("a", 2*LINEMAX)+"\n")
	echoed := strings.Repeat("a", LINEMAX-len("echo "))
	assertOutput(t, cons, "\n"+echoed+"\n")
	if strings.Contains(cons.String(), echoed+"a") {
		t.Fatal("line not truncated")
	}
}

func TestMonitorIgnoresControlBytes(t *testing.T) {
	_, cons := runMonitor(t, 1, "ec\x01ho\x1b hi\n")
	assertOutput(t, cons, "hi\n")
	if strings.Contains(cons.String(), "Unknown command") {
		t.Fatalf("control bytes reached the line:\n%s", cons.String())
	}
}

func TestMonitorPs(t *testing.T) {
	k, _, cons := newTestKernel(t, 1)
	k.Launch("init", 0x80001000, 0x80002000)
	cons.in = "ps\n"
	k.Monitor()
	assertOutput(t, cons, "1    running  init\n")
}
