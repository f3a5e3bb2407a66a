package sim

import (
	"bytes"
	"io"
	"sync"
)

// Console implements kernel.Console over an in-memory buffer, optionally
// echoing every byte to another writer. The first tee error stops the
// echo and is kept for TeeErr; the buffer keeps everything regardless.
type Console struct {
	mu     sync.Mutex
	out    bytes.Buffer
	in     []byte
	tee    io.Writer
	teeErr error
}

func NewConsole(tee io.Writer) *Console {
	return &Console{tee: tee}
}

func (c *Console) Putc(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.WriteByte(b)
	if c.tee == nil || c.teeErr != nil {
		return
	}
	if _, err := c.tee.Write([]byte{b}); err != nil {
		c.teeErr = err
	}
}

// TeeErr returns the error that stopped the echo, if any.
func (c *Console) TeeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teeErr
}

// Getc returns the next byte queued with Feed, if any.
func (c *Console) Getc() (byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.in) == 0 {
		return 0, false
	}
	b := c.in[0]
	c.in = c.in[1:]
	return b, true
}

// Drained reports whether everything fed so far has been read.
func (c *Console) Drained() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.in) == 0
}

// Feed queues input for Getc.
func (c *Console) Feed(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in = append(c.in, s...)
}

// String returns everything written so far.
func (c *Console) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}
