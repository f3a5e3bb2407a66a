package kernel

// StartTimer arms the first timer interrupt and unmasks it.
// After this, every expiry re-arms the next one from clockintr.
func (k *Kernel) StartTimer() {
	k.hw.SetTimer(k.hw.Time() + k.cfg.TimerInterval)
	k.hw.EnableTimer()
	k.log.printf("[OK] Timer interrupt every %d ticks\n", k.cfg.TimerInterval)
}

// clockintr services one supervisor timer interrupt. The SBI call must
// happen on every expiry or the interrupt never fires again.
func (k *Kernel) clockintr() {
	k.ticks++
	if k.cfg.Trace {
		k.log.printf("[TICK] %d\n", k.ticks)
	}
	k.hw.SetTimer(k.hw.Time() + k.cfg.TimerInterval)
}

// Ticks returns the number of timer interrupts taken since boot.
func (k *Kernel) Ticks() uint64 {
	return k.ticks
}
