package databus

import (
	"context"
	"sync"

	"gmf-go/errcode"
	"gmf-go/payload"
)

// PayloadBus is the pointer-queue variant's contract: it transports
// *payload.Payload handles rather than bytes, so two ports on
// different pipelines/threads can hand off a buffer without copying it.
// It does not share databus.Bus's signature (there is no fixed-size byte
// view to acquire) but keeps the same lifecycle verbs.
type PayloadBus interface {
	// PublishPayload blocks until there is queue capacity, the bus is
	// aborted, or ctx expires.
	PublishPayload(ctx context.Context, p *payload.Payload) errcode.Code
	// AcquirePayload blocks until a payload is available, end-of-stream,
	// abort, or ctx expiry.
	AcquirePayload(ctx context.Context) (*payload.Payload, errcode.Code)
	// ReleasePayload acknowledges the last AcquirePayload. Queue capacity
	// is already reclaimed on receive (the channel itself is the slot),
	// so this exists only to keep the acquire/release symmetry other
	// variants rely on; it always returns errcode.OK.
	ReleasePayload() errcode.Code

	DoneWrite()
	Abort()
	Reset()

	Total() int
	Filled() int
	Available() int
}

// PbufBus is a bounded, thread-safe pointer queue.
type PbufBus struct {
	capacity int

	mu      sync.Mutex
	ch      chan *payload.Payload
	done    bool
	aborted bool
	doneCh  chan struct{}
	abortCh chan struct{}
}

func NewPbufBus(capacity int) *PbufBus {
	b := &PbufBus{capacity: capacity}
	b.resetLocked()
	return b
}

func (b *PbufBus) resetLocked() {
	b.ch = make(chan *payload.Payload, b.capacity)
	b.done = false
	b.aborted = false
	b.doneCh = make(chan struct{})
	b.abortCh = make(chan struct{})
}

func (b *PbufBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *PbufBus) Abort() {
	b.mu.Lock()
	if !b.aborted {
		b.aborted = true
		close(b.abortCh)
	}
	b.mu.Unlock()
}

func (b *PbufBus) DoneWrite() {
	b.mu.Lock()
	if !b.done {
		b.done = true
		close(b.doneCh)
	}
	b.mu.Unlock()
}

func (b *PbufBus) PublishPayload(ctx context.Context, p *payload.Payload) errcode.Code {
	b.mu.Lock()
	done, aborted, doneCh, abortCh, ch := b.done, b.aborted, b.doneCh, b.abortCh, b.ch
	b.mu.Unlock()
	if aborted {
		return errcode.IoAbort
	}
	if done {
		return errcode.IoDone
	}
	select {
	case ch <- p:
		return errcode.OK
	case <-abortCh:
		return errcode.IoAbort
	case <-doneCh:
		return errcode.IoDone
	case <-ctx.Done():
		return errcode.IoTimeout
	}
}

func (b *PbufBus) AcquirePayload(ctx context.Context) (*payload.Payload, errcode.Code) {
	b.mu.Lock()
	aborted, ch, abortCh, doneCh := b.aborted, b.ch, b.abortCh, b.doneCh
	b.mu.Unlock()
	if aborted {
		return nil, errcode.IoAbort
	}

	select {
	case p := <-ch:
		return p, errcode.IoOK
	default:
	}

	select {
	case p := <-ch:
		return p, errcode.IoOK
	case <-abortCh:
		return nil, errcode.IoAbort
	case <-doneCh:
		select {
		case p := <-ch:
			return p, errcode.IoOK
		default:
			return nil, errcode.IoDone
		}
	case <-ctx.Done():
		return nil, errcode.IoTimeout
	}
}

func (b *PbufBus) ReleasePayload() errcode.Code { return errcode.OK }

func (b *PbufBus) Total() int { return b.capacity }
func (b *PbufBus) Filled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ch)
}
func (b *PbufBus) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cap(b.ch) - len(b.ch)
}
