package kernel

// Physical memory layout

// qemu -machine virt is set up like this,
// based on qemu's hw/riscv/virt.c:
//
// 00001000 -- boot ROM, provided by qemu
// 02000000 -- CLINT
// 0C000000 -- PLIC
// 10000000 -- uart0
// 80000000 -- OpenSBI, then the kernel at 80200000
// unused RAM after the kernel image.

// the kernel uses physical memory thus:
// 80200000 -- entry code, then kernel text and data
// end -- start of the frame allocator's range
// PHYSTOP -- end RAM used by the kernel

// qemu puts UART registers here in physical memory.
const (
	UART0     = uintptr(0x10000000)
	UART0_IRQ = 10
)

// 16550 registers, as offsets from UART0.
const (
	UART_RHR = 0 // receive holding register (read)
	UART_THR = 0 // transmit holding register (write)
	UART_LSR = 5 // line status register

	LSR_RX_READY = 1 << 0
	LSR_TX_IDLE  = 1 << 5
)

// the kernel expects there to be RAM
// for use by the kernel and user frames
// from physical address 0x80000000 to PHYSTOP.
const (
	KERNBASE = uint64(0x80000000)
	PHYSTOP  = KERNBASE + 128*1024*1024
)

// Largest number of frames the allocator tracks (128MB of 4K frames).
const MAXFRAMES = 32768

// qemu's virt machine advances time at 10MHz.
const TIMEBASE_HZ = 10000000
