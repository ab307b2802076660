package databus

import (
	"context"
	"sync"

	"gmf-go/errcode"
	"gmf-go/x/shmring"
)

// RingBus is the byte-stream variant: a sliding read/write offset over a
// flat capacity, with blocking consumer/producer and abort/done semantics
// layered on top of shmring.Ring's non-blocking span engine.
//
// RingBus assumes exactly one reader goroutine and one writer goroutine,
// matching shmring's SPSC contract; fan-out is built from one bus per
// reader, never one bus shared across readers.
type RingBus struct {
	mu      sync.Mutex
	ring    *shmring.Ring
	cap     int
	done    bool
	aborted bool
	doneCh  chan struct{}
	abortCh chan struct{}

	pendingRead  int
	pendingWrite int
}

// NewRingBus creates a ring of the given capacity (rounded up to a power
// of two by shmring.New).
func NewRingBus(capacity int) *RingBus {
	b := &RingBus{cap: capacity}
	b.resetLocked()
	return b
}

func (b *RingBus) resetLocked() {
	b.ring = shmring.New(b.cap)
	b.done = false
	b.aborted = false
	b.doneCh = make(chan struct{})
	b.abortCh = make(chan struct{})
	b.pendingRead = 0
	b.pendingWrite = 0
}

func (b *RingBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *RingBus) Abort() {
	b.mu.Lock()
	if !b.aborted {
		b.aborted = true
		close(b.abortCh)
	}
	b.mu.Unlock()
}

func (b *RingBus) DoneWrite() {
	b.mu.Lock()
	if !b.done {
		b.done = true
		close(b.doneCh)
	}
	b.mu.Unlock()
}

func (b *RingBus) snapshot() (ring *shmring.Ring, done, aborted bool, doneCh, abortCh chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring, b.done, b.aborted, b.doneCh, b.abortCh
}

func (b *RingBus) AcquireRead(ctx context.Context, want int) ([]byte, errcode.Code) {
	if want <= 0 {
		return nil, errcode.InvalidParams
	}
	for {
		ring, done, aborted, doneCh, abortCh := b.snapshot()
		if aborted {
			return nil, errcode.IoAbort
		}
		if ring.Available() > 0 {
			p1, _ := ring.ReadAcquire()
			if len(p1) > want {
				p1 = p1[:want]
			}
			b.mu.Lock()
			b.pendingRead = len(p1)
			b.mu.Unlock()
			return p1, errcode.IoOK
		}
		if done {
			return nil, errcode.IoDone
		}
		select {
		case <-ring.Readable():
		case <-doneCh:
		case <-abortCh:
			return nil, errcode.IoAbort
		case <-ctx.Done():
			return nil, errcode.IoTimeout
		}
	}
}

func (b *RingBus) ReleaseRead(n int) errcode.Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || n > b.pendingRead {
		return errcode.InvalidParams
	}
	b.ring.ReadRelease(n)
	b.pendingRead = 0
	return errcode.OK
}

func (b *RingBus) AcquireWrite(ctx context.Context, want int) ([]byte, errcode.Code) {
	if want <= 0 {
		return nil, errcode.InvalidParams
	}
	for {
		ring, done, aborted, _, abortCh := b.snapshot()
		if aborted {
			return nil, errcode.IoAbort
		}
		if done {
			// Sticky EOS: no further writes accepted until Reset.
			return nil, errcode.IoDone
		}
		if ring.Space() > 0 {
			p1, _ := ring.WriteAcquire()
			if len(p1) > want {
				p1 = p1[:want]
			}
			b.mu.Lock()
			b.pendingWrite = len(p1)
			b.mu.Unlock()
			return p1, errcode.IoOK
		}
		select {
		case <-ring.Writable():
		case <-abortCh:
			return nil, errcode.IoAbort
		case <-ctx.Done():
			return nil, errcode.IoTimeout
		}
	}
}

func (b *RingBus) ReleaseWrite(n int) errcode.Code {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || n > b.pendingWrite {
		return errcode.InvalidParams
	}
	b.ring.WriteCommit(n)
	b.pendingWrite = 0
	return errcode.OK
}

// Total is the ring's byte capacity. Filled is the occupied byte count
// (readable now); Available is the free byte count (writable now).
func (b *RingBus) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.Cap()
}

func (b *RingBus) Filled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.Available()
}

func (b *RingBus) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.Space()
}
