package sim

import (
	"io"

	"github.com/hashicorp/go-hclog"

	"woflos-in-go/kernel"
)

// Config describes a simulated board.
type Config struct {
	RAMSize       uint64 // defaults to 1 MiB
	TimerInterval uint64 // defaults to kernel.TIMEBASE_HZ
	Trace         bool

	// Tee receives a copy of everything the kernel prints.
	Tee    io.Writer
	Logger hclog.Logger
}

// Machine is a booted kernel on a simulated hart. The lower half of RAM
// stands in for the kernel image; the upper half is handed to the frame
// allocator.
type Machine struct {
	CPU     *CPU
	Kernel  *kernel.Kernel
	Console *Console
}

// Boot brings the kernel up on a fresh hart and installs its trap handler.
// No timer is armed and nothing runs in user mode yet.
func Boot(cfg Config) (*Machine, error) {
	if cfg.RAMSize == 0 {
		cfg.RAMSize = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	cons := NewConsole(cfg.Tee)
	cpu := New(Options{
		RAMSize: cfg.RAMSize,
		Console: cons,
		Logger:  cfg.Logger,
	})
	base, size := cpu.RAM()

	k, err := kernel.New(cpu, cons, kernel.Config{
		FrameStart:    base + size/2,
		FrameEnd:      base + size,
		TimerInterval: cfg.TimerInterval,
		Trace:         cfg.Trace,
	})
	if err != nil {
		return nil, err
	}
	cpu.SetTrapHandler(k.Trap)
	cfg.Logger.Debug("booted", "ram", hclog.Fmt("[%#x, %#x)", base, base+size))

	return &Machine{CPU: cpu, Kernel: k, Console: cons}, nil
}

// Start arms the timer and execs image as the first process.
func (m *Machine) Start(name string, image []byte) error {
	m.Kernel.StartTimer()
	return m.Kernel.Exec(name, image)
}

// Monitor feeds input to the console and runs the boot monitor until it
// reads "boot" or the input runs out.
func (m *Machine) Monitor(input string) {
	m.Console.Feed(input)
	m.Kernel.Monitor()
}
