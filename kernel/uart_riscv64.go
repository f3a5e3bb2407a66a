package kernel

import "unsafe"

// UART drives the 16550 the virt machine puts at UART0.
type UART struct {
	base uintptr
}

func NewUART(base uintptr) *UART {
	return &UART{base: base}
}

func (u *UART) reg(r uintptr) *byte {
	return (*byte)(unsafe.Pointer(u.base + r))
}

func (u *UART) Putc(c byte) {
	for *u.reg(UART_LSR)&LSR_TX_IDLE == 0 {
	}
	*u.reg(UART_THR) = c
}

func (u *UART) Getc() (byte, bool) {
	if *u.reg(UART_LSR)&LSR_RX_READY == 0 {
		return 0, false
	}
	return *u.reg(UART_RHR), true
}
