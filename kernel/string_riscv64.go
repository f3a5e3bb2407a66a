package kernel

import "unsafe"

func memset(dst uintptr, c byte, n uint64) {
	for i := uint64(0); i < n; i++ {
		*(*byte)(unsafe.Pointer(dst + uintptr(i))) = c
	}
}

func memmove(dst uintptr, src []byte) {
	for i, c := range src {
		*(*byte)(unsafe.Pointer(dst + uintptr(i))) = c
	}
}
