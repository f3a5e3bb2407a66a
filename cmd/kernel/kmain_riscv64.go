package main

import (
	"woflos-in-go/kernel"
	"woflos-in-go/user"
)

//export KMain
func KMain() {
	uart := kernel.NewUART(kernel.UART0)
	uart.Putc('\n')

	k, err := kernel.New(kernel.Machine{}, uart, kernel.Config{
		FrameStart:    kernel.KernelEnd(),
		FrameEnd:      kernel.PHYSTOP,
		TimerInterval: kernel.TIMEBASE_HZ,
	})
	if err != nil {
		for _, c := range []byte("kinit: " + err.Error() + "\n") {
			uart.Putc(c)
		}
		kernel.Machine{}.Halt()
	}
	k.Printf("[OK] woflOS booting...\n")

	k.Printf("trapinithart... ")
	kernel.Install(k)
	k.Printf("OK\n")

	k.Monitor()

	k.StartTimer()

	if err := k.Exec("init", user.Init()); err != nil {
		k.Printf("exec init: %s\n", err.Error())
		kernel.Machine{}.Halt()
	}
}
