package kernel

import "strings"

// LINEMAX bounds a monitor input line; extra characters are dropped.
const LINEMAX = 256

// drainer is implemented by consoles whose input can run out, such as
// the host console. The UART never runs dry; it just waits.
type drainer interface {
	Drained() bool
}

// Monitor runs the boot console: it reads commands until "boot" (or
// until a host console runs out of input) and then returns so boot can
// go on. It runs before any process exists, with interrupts off.
func (k *Kernel) Monitor() {
	k.log.printf("\nwoflOS monitor. Type 'help' for commands, 'boot' to continue.\n")
	var buf [LINEMAX]byte
	for {
		k.log.printf("woflOS> ")
		n, ok := k.getline(buf[:])
		if !ok {
			k.log.printf("\n")
			return
		}
		if !k.command(string(buf[:n])) {
			return
		}
	}
}

// getline reads one line with echo and backspace editing. ok is false
// when the console has no more input.
func (k *Kernel) getline(buf []byte) (n int, ok bool) {
	cons := k.log.out
	for {
		c, got := cons.Getc()
		if !got {
			if d, isDrainer := cons.(drainer); isDrainer && d.Drained() {
				return n, false
			}
			continue
		}
		switch {
		case c == '\r' || c == '\n':
			cons.Putc('\n')
			return n, true
		case c == 0x7f || c == 0x08:
			if n > 0 {
				n--
				cons.Putc(0x08)
				cons.Putc(' ')
				cons.Putc(0x08)
			}
		case c >= 0x20 && c < 0x7f && n < len(buf):
			buf[n] = c
			n++
			cons.Putc(c)
		}
	}
}

// command runs one monitor line and reports whether to keep going.
func (k *Kernel) command(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return true
	}

	switch args[0] {
	case "help":
		k.log.printf("Available commands:\n")
		k.log.printf("  help     - Show this help message\n")
		k.log.printf("  about    - About woflOS\n")
		k.log.printf("  meminfo  - Display memory information\n")
		k.log.printf("  ps       - List processes\n")
		k.log.printf("  echo     - Echo text back\n")
		k.log.printf("  clear    - Clear the screen\n")
		k.log.printf("  boot     - Leave the monitor and start init\n")
	case "about":
		k.log.printf("woflOS: RISC-V 64-bit kernel, supervisor mode, SBI timer\n")
	case "meminfo":
		used, total := k.FrameStats()
		k.log.printf("Physical Memory:\n")
		k.log.printf("  Frames used:      %d\n", used)
		k.log.printf("  Frames total:     %d\n", total)
		k.log.printf("  Frame size:       %d bytes\n", PGSIZE)
	case "ps":
		k.ps()
	case "echo":
		k.log.printf("%s\n", strings.Join(args[1:], " "))
	case "clear":
		k.log.printf("\x1b[2J\x1b[H")
	case "boot":
		return false
	default:
		k.log.printf("Unknown command: %s\n", args[0])
		k.log.printf("Type 'help' for available commands\n")
	}
	return true
}

func (k *Kernel) ps() {
	k.procs.lock.acquire()
	defer k.procs.lock.release()

	k.log.printf("PID  STATE    NAME\n")
	for i := range k.procs.proc {
		p := &k.procs.proc[i]
		if p.state == UNUSED {
			continue
		}
		k.log.printf("%d    %s  %s\n", p.pid, p.state.String(), p.name)
	}
}
