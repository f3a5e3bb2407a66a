// Command trapsim boots the kernel on a simulated RV64 hart and runs one
// of the built-in user programs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"woflos-in-go/kernel"
	"woflos-in-go/sim"
	"woflos-in-go/user"
)

func main() {
	prog := flag.String("prog", "init", "user program: "+strings.Join(programNames(), ", "))
	steps := flag.Uint64("steps", 1000000, "instruction budget, 0 for none")
	interval := flag.Uint64("interval", 0, "timer interval in ticks (0: kernel default)")
	trace := flag.Bool("trace", false, "log every syscall and tick on the console")
	level := flag.String("log-level", "info", "simulator log level")
	inject := flag.String("inject", "", "trap to raise after launch, as scause[:stval]")
	state := flag.String("state", "", "write the final hart state as YAML to this file")
	dump := flag.Bool("dump", false, "print the final registers")
	monitor := flag.String("console", "", "run the boot monitor on this input first (\\n separates commands)")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "trapsim",
		Level:  hclog.LevelFromString(*level),
		Output: os.Stderr,
	})

	build, ok := user.Programs[*prog]
	if !ok {
		logger.Error("unknown program", "prog", *prog)
		os.Exit(2)
	}

	m, err := sim.Boot(sim.Config{
		TimerInterval: *interval,
		Trace:         *trace,
		Tee:           os.Stdout,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("boot failed", "error", err)
		os.Exit(1)
	}
	if *monitor != "" {
		m.Monitor(strings.ReplaceAll(*monitor, `\n`, "\n") + "\n")
	}
	if err := m.Start(*prog, build()); err != nil {
		logger.Error("exec failed", "error", err)
		os.Exit(1)
	}

	if *inject != "" {
		scause, stval, err := parseInject(*inject)
		if err != nil {
			logger.Error("bad -inject", "error", err)
			os.Exit(2)
		}
		if err := m.CPU.Inject(scause, stval); err != nil && !errors.Is(err, sim.ErrHalted) {
			logger.Error("inject failed", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = m.CPU.Run(ctx, *steps)
	switch {
	case errors.Is(err, sim.ErrHalted):
		logger.Info("halted", "time", m.CPU.Time(), "ticks", m.Kernel.Ticks(), "traps", m.CPU.Traps())
	case errors.Is(err, sim.ErrStepLimit):
		logger.Warn("step limit reached", "steps", *steps, "ticks", m.Kernel.Ticks())
	default:
		logger.Error("run stopped", "error", err)
	}

	if err := m.Console.TeeErr(); err != nil {
		logger.Warn("console echo stopped", "error", err)
	}

	if *dump {
		dumpRegs(m.CPU)
	}
	if *state != "" {
		b, err := m.CPU.Snapshot().YAML()
		if err == nil {
			err = os.WriteFile(*state, b, 0o644)
		}
		if err != nil {
			logger.Error("write state", "error", err)
			os.Exit(1)
		}
	}
}

func programNames() []string {
	var names []string
	for name := range user.Programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseInject reads "scause" or "scause:stval"; both accept 0x prefixes.
// A leading 'i' marks an interrupt, so "i5" is the timer.
func parseInject(s string) (scause, stval uint64, err error) {
	cause, val, hasVal := strings.Cut(s, ":")
	intr := strings.HasPrefix(cause, "i")
	scause, err = strconv.ParseUint(strings.TrimPrefix(cause, "i"), 0, 64)
	if err != nil {
		return 0, 0, err
	}
	if intr {
		scause |= kernel.SCAUSE_INTR
	}
	if hasVal {
		stval, err = strconv.ParseUint(val, 0, 64)
	}
	return scause, stval, err
}

func dumpRegs(c *sim.CPU) {
	priv := "S"
	if c.Priv() == sim.PRIV_U {
		priv = "U"
	}
	color.New(color.FgGreen).Printf("pc=0x%016x priv=%s halted=%v\n", c.PC(), priv, c.Halted())
	for n := 1; n < kernel.NREG; n++ {
		color.New(color.FgCyan).Printf("%4s=0x%016x", kernel.RegName(n), c.X(n))
		if n%4 == 0 {
			fmt.Println()
		} else {
			fmt.Print(" ")
		}
	}
	fmt.Println()
	color.New(color.FgYellow).Printf("sstatus=0x%016x sepc=0x%016x scause=0x%016x stval=0x%016x\n",
		c.Sstatus(), c.Sepc(), c.Scause(), c.Stval())
}
