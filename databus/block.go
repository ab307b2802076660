package databus

import (
	"context"
	"sync"

	"gmf-go/errcode"
)

// BlockBus is the fixed-capacity slot-array variant: numItems slots of
// itemSize bytes, each slot holding one variable-length message, consumed
// exactly once and in FIFO order. Token channels (freeIdx/readyIdx) carry
// slot ownership between the producer and consumer.
type BlockBus struct {
	itemSize int
	numItems int
	slots    []blockSlot

	mu       sync.Mutex
	freeIdx  chan int
	readyIdx chan int
	done     bool
	aborted  bool
	doneCh   chan struct{}
	abortCh  chan struct{}

	pendingWriteSlot int
	pendingReadSlot  int
}

type blockSlot struct {
	buf   []byte
	valid int
}

func NewBlockBus(numItems, itemSize int) *BlockBus {
	b := &BlockBus{itemSize: itemSize, numItems: numItems}
	b.slots = make([]blockSlot, numItems)
	for i := range b.slots {
		b.slots[i].buf = make([]byte, itemSize)
	}
	b.resetLocked()
	return b
}

func (b *BlockBus) resetLocked() {
	b.freeIdx = make(chan int, b.numItems)
	b.readyIdx = make(chan int, b.numItems)
	for i := 0; i < b.numItems; i++ {
		b.freeIdx <- i
	}
	b.done = false
	b.aborted = false
	b.doneCh = make(chan struct{})
	b.abortCh = make(chan struct{})
	b.pendingWriteSlot = -1
	b.pendingReadSlot = -1
}

func (b *BlockBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *BlockBus) Abort() {
	b.mu.Lock()
	if !b.aborted {
		b.aborted = true
		close(b.abortCh)
	}
	b.mu.Unlock()
}

func (b *BlockBus) DoneWrite() {
	b.mu.Lock()
	if !b.done {
		b.done = true
		close(b.doneCh)
	}
	b.mu.Unlock()
}

func (b *BlockBus) AcquireWrite(ctx context.Context, want int) ([]byte, errcode.Code) {
	b.mu.Lock()
	done, aborted, doneCh, abortCh := b.done, b.aborted, b.doneCh, b.abortCh
	b.mu.Unlock()
	if aborted {
		return nil, errcode.IoAbort
	}
	if done {
		return nil, errcode.IoDone
	}
	select {
	case idx := <-b.freeIdx:
		b.mu.Lock()
		b.pendingWriteSlot = idx
		b.mu.Unlock()
		n := want
		if n > b.itemSize {
			n = b.itemSize
		}
		return b.slots[idx].buf[:n], errcode.IoOK
	case <-abortCh:
		return nil, errcode.IoAbort
	case <-doneCh:
		return nil, errcode.IoDone
	case <-ctx.Done():
		return nil, errcode.IoTimeout
	}
}

func (b *BlockBus) ReleaseWrite(n int) errcode.Code {
	b.mu.Lock()
	idx := b.pendingWriteSlot
	if idx < 0 || n < 0 || n > b.itemSize {
		b.mu.Unlock()
		return errcode.InvalidParams
	}
	b.pendingWriteSlot = -1
	b.slots[idx].valid = n
	b.mu.Unlock()
	b.readyIdx <- idx
	return errcode.OK
}

func (b *BlockBus) AcquireRead(ctx context.Context, want int) ([]byte, errcode.Code) {
	// Abort is sticky: no acquire may succeed after it, even with committed
	// slots still queued, so check it first.
	b.mu.Lock()
	aborted, doneCh, abortCh := b.aborted, b.doneCh, b.abortCh
	b.mu.Unlock()
	if aborted {
		return nil, errcode.IoAbort
	}

	// Fast path: a committed slot is already waiting.
	select {
	case idx := <-b.readyIdx:
		return b.acquireReadSlot(idx, want), errcode.IoOK
	default:
	}

	select {
	case idx := <-b.readyIdx:
		return b.acquireReadSlot(idx, want), errcode.IoOK
	case <-abortCh:
		return nil, errcode.IoAbort
	case <-doneCh:
		// Re-check: a slot may have been committed just before done closed.
		select {
		case idx := <-b.readyIdx:
			return b.acquireReadSlot(idx, want), errcode.IoOK
		default:
			return nil, errcode.IoDone
		}
	case <-ctx.Done():
		return nil, errcode.IoTimeout
	}
}

func (b *BlockBus) acquireReadSlot(idx, want int) []byte {
	b.mu.Lock()
	b.pendingReadSlot = idx
	n := b.slots[idx].valid
	b.mu.Unlock()
	if n > want {
		n = want
	}
	return b.slots[idx].buf[:n]
}

func (b *BlockBus) ReleaseRead(n int) errcode.Code {
	b.mu.Lock()
	idx := b.pendingReadSlot
	if idx < 0 {
		b.mu.Unlock()
		return errcode.InvalidParams
	}
	b.pendingReadSlot = -1
	b.mu.Unlock()
	b.freeIdx <- idx
	return errcode.OK
}

func (b *BlockBus) Total() int { return b.numItems }
func (b *BlockBus) Filled() int {
	return len(b.readyIdx)
}
func (b *BlockBus) Available() int {
	return len(b.freeIdx)
}
