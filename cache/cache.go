// Package cache implements the per-element frame accumulator: many
// elements (codecs, rotate/scale) need fixed-size frames, but an upstream
// port may deliver arbitrary chunk sizes, so the cache concatenates input
// until a full frame is ready or the stream ends.
package cache

import (
	"gmf-go/errcode"
	"gmf-go/x/mathx"
)

// Cache accumulates bytes into fixed-size frames.
type Cache struct {
	frameSize int
	buf       []byte // bytes not yet consumed
	done      bool

	viewLen  int // length of the outstanding Acquire view
	viewOpen bool
}

// New returns a cache that assembles frames of frameSize bytes.
func New(frameSize int) (*Cache, errcode.Code) {
	if frameSize <= 0 {
		return nil, errcode.InvalidParams
	}
	return &Cache{frameSize: frameSize}, errcode.OK
}

// ReadyForLoad reports whether the cache cannot yet produce a full frame.
func (c *Cache) ReadyForLoad() bool {
	if c.done {
		return false
	}
	return len(c.buf) < c.frameSize
}

// Load appends incoming bytes. done marks that no further bytes will
// arrive (the upstream payload's IsDone).
func (c *Cache) Load(data []byte, done bool) errcode.Code {
	if c.viewOpen {
		return errcode.InvalidParams // must Release before Load
	}
	c.buf = append(c.buf, data...)
	if done {
		c.done = true
	}
	return errcode.OK
}

// View is the result of Acquire: a window over the cache's internal
// buffer, plus whether it represents the final (possibly short) frame of
// the stream.
type View struct {
	Data   []byte
	IsDone bool
}

// Acquire yields a view of up to want bytes: frameSize bytes normally, or
// once the stream has ended and fewer than frameSize bytes remain, the
// remaining tail, with IsDone set.
func (c *Cache) Acquire(want int) (View, errcode.Code) {
	if c.viewOpen {
		return View{}, errcode.InvalidParams
	}
	if want <= 0 {
		return View{}, errcode.InvalidParams
	}
	n := mathx.Min(want, c.frameSize)
	isDone := false
	if n > len(c.buf) {
		if !c.done {
			return View{}, errcode.IoTimeout // not enough buffered yet: CONTINUE
		}
		n = len(c.buf)
		isDone = true
	}
	c.viewLen = n
	c.viewOpen = true
	return View{Data: c.buf[:n], IsDone: isDone}, errcode.OK
}

// Release advances the cache past the consumed bytes of the last Acquire.
// A done stream's final view may be empty (the stream ended exactly on a
// frame boundary); releasing it is still valid.
func (c *Cache) Release() errcode.Code {
	if !c.viewOpen {
		return errcode.InvalidParams
	}
	c.buf = c.buf[c.viewLen:]
	c.viewLen = 0
	c.viewOpen = false
	return errcode.OK
}

// GetCachedSize returns the number of unconsumed buffered bytes.
func (c *Cache) GetCachedSize() int { return len(c.buf) }

// Delete releases the cache's buffer.
func (c *Cache) Delete() { c.buf = nil }

// HasFullFrame reports whether at least one full frame (or, once done, any
// tail) is ready to Acquire without the caller needing to load more first.
func (c *Cache) HasFullFrame() bool {
	if len(c.buf) >= c.frameSize {
		return true
	}
	return c.done && len(c.buf) > 0
}
