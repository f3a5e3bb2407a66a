package kernel

import (
	"sync"
	"testing"
)

func TestKallocExhaustion(t *testing.T) {
	var km kmem
	if err := km.kinit(KERNBASE, KERNBASE+4*PGSIZE); err != nil {
		t.Fatal(err)
	}

	seen := make(map[uint64]bool)
	for i := 0; i < 4; i++ {
		pa := km.kalloc()
		if pa == 0 {
			t.Fatalf("kalloc %d failed", i)
		}
		if pa%PGSIZE != 0 || pa < KERNBASE || pa >= KERNBASE+4*PGSIZE {
			t.Fatalf("kalloc returned bad frame %#x", pa)
		}
		if seen[pa] {
			t.Fatalf("frame %#x handed out twice", pa)
		}
		seen[pa] = true
	}
	if pa := km.kalloc(); pa != 0 {
		t.Fatalf("kalloc on exhausted allocator returned %#x", pa)
	}
	if used, total := km.stats(); used != 4 || total != 4 {
		t.Fatalf("Bad stats, expected=4/4, actual=%d/%d", used, total)
	}

	if err := km.kfree(KERNBASE + 2*PGSIZE); err != nil {
		t.Fatal(err)
	}
	if pa := km.kalloc(); pa != KERNBASE+2*PGSIZE {
		t.Fatalf("freed frame not reused, got %#x", pa)
	}
}

func TestKfreeErrors(t *testing.T) {
	var km kmem
	if err := km.kinit(KERNBASE, KERNBASE+2*PGSIZE); err != nil {
		t.Fatal(err)
	}
	pa := km.kalloc()

	for _, bad := range []uint64{pa + 8, KERNBASE - PGSIZE, KERNBASE + 2*PGSIZE} {
		if err := km.kfree(bad); err == nil {
			t.Errorf("kfree(%#x) succeeded", bad)
		}
	}
	if err := km.kfree(pa); err != nil {
		t.Fatal(err)
	}
	if err := km.kfree(pa); err == nil {
		t.Fatal("double kfree succeeded")
	}
}

func TestKinitRounds(t *testing.T) {
	var km kmem
	if err := km.kinit(KERNBASE+1, KERNBASE+3*PGSIZE-1); err != nil {
		t.Fatal(err)
	}
	if km.start != KERNBASE+PGSIZE {
		t.Fatalf("Bad start, expected=%x, actual=%x", KERNBASE+PGSIZE, km.start)
	}
	if _, total := km.stats(); total != 1 {
		t.Fatalf("Bad frame count, expected=1, actual=%d", total)
	}
	if err := km.kinit(KERNBASE+1, KERNBASE+PGSIZE); err == nil {
		t.Fatal("kinit accepted a range without a whole frame")
	}
}

func TestKallocConcurrent(t *testing.T) {
	const frames = 256
	var km kmem
	if err := km.kinit(KERNBASE, KERNBASE+frames*PGSIZE); err != nil {
		t.Fatal(err)
	}

	got := make(chan uint64, frames+8)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				pa := km.kalloc()
				if pa == 0 {
					return
				}
				got <- pa
			}
		}()
	}
	wg.Wait()
	close(got)

	seen := make(map[uint64]bool)
	for pa := range got {
		if seen[pa] {
			t.Fatalf("frame %#x handed out twice", pa)
		}
		seen[pa] = true
	}
	if len(seen) != frames {
		t.Fatalf("Bad frames allocated, expected=%d, actual=%d", frames, len(seen))
	}
}
