// Package port implements the typed connector that binds an element to a
// neighbour, either by direct payload hand-off (payload_share) or through
// a databus.Bus.
package port

import (
	"context"
	"sync/atomic"

	"gmf-go/errcode"
	"gmf-go/payload"
)

// Direction of a port.
type Direction int

const (
	DirIn Direction = iota
	DirOut
)

// Type is a bitset so an element's declared allowed-type mask can be
// checked with a single AND against the element's capability matrix.
type Type int

const (
	TypeByte  Type = 1 << iota
	TypeBlock Type = 1 << iota
)

// Acquirer is whatever supplies bytes when a port has no bound peer (the
// port's own acquire op): an I/O adapter reading a file or
// socket for the pipeline's first/last element.
type Acquirer interface {
	Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code)
	Release(p *payload.Payload) errcode.Code
}

// Aligner mirrors payload.Aligner; kept local so callers don't need to
// import oal just to call AcquireAlignedOut.
type Aligner interface {
	Malloc(align, n int) []byte
}

// Port is a typed end-point owned by exactly one element.
//
// Fan-out: when more than one OUT port shares one upstream
// payload, RefCount on the shared ref_port tracks outstanding consumers;
// the buffer is dropped only on the last release. Disabling share
// (EnablePayloadShare(false)) forces every release to deep-copy instead of
// participating in the ref-counted hand-off.
type Port struct {
	Dir       Direction
	Typ       Type
	WantSize  int
	WaitTicks int

	acq Acquirer

	peerIn  *Port // for an OUT port: the next element's IN port (payload_share target)
	refPort *Port // the port whose RefCount this port's releases decrement
	refCnt  atomic.Int32

	isShared bool
	selfPay  *payload.Payload // port-owned buffer used when nothing is shared
	inFlight *payload.Payload // the payload currently checked out to the caller
	outAlign int
}

// New returns a port with sharing enabled by default.
func New(dir Direction, typ Type, acq Acquirer) *Port {
	return &Port{Dir: dir, Typ: typ, acq: acq, isShared: true, selfPay: payload.New()}
}

// EnablePayloadShare toggles zero-copy hand-off for OUT ports.
func (p *Port) EnablePayloadShare(on bool) { p.isShared = on }

// SetWaitTicks records n in WaitTicks. No Acquire* call reads it: how long
// an acquire blocks is decided by the ctx passed to it.
func (p *Port) SetWaitTicks(n int) { p.WaitTicks = n }

// SetReader binds this OUT port's downstream IN port (the "reader").
func (p *Port) SetReader(in *Port) { p.peerIn = in }

// SetWriter binds this IN port's upstream OUT port (the "writer").
func (p *Port) SetWriter(out *Port) { out.peerIn = p }

// SetPayload installs a payload directly, bypassing Acquire (used to seed
// a freshly connected port).
func (p *Port) SetPayload(pay *payload.Payload) { p.selfPay = pay }

// CleanPayloadDone clears the done marker on the port's own buffer.
func (p *Port) CleanPayloadDone() {
	if p.selfPay != nil {
		payload.CleanDone(p.selfPay)
	}
}

// Reset clears in-flight state and ref counting, ready for reuse.
func (p *Port) Reset() {
	p.inFlight = nil
	p.refCnt.Store(0)
}

// AcquireIn returns the payload to process: if an upstream OUT port
// shared a payload via ReleaseOut, that payload is returned (ref_count
// already bumped by the writer); otherwise the port pulls fresh bytes via
// its own Acquirer.
func (p *Port) AcquireIn(ctx context.Context, want int) (*payload.Payload, errcode.Code) {
	if p.Dir != DirIn {
		return nil, errcode.InvalidParams
	}
	if p.inFlight != nil {
		return p.inFlight, errcode.OK
	}
	if p.acq == nil {
		return nil, errcode.IoFail
	}
	pay, code := p.acq.Acquire(ctx, want)
	if code != errcode.OK && code != errcode.IoOK {
		return nil, code
	}
	p.inFlight = pay
	return pay, errcode.OK
}

// ReleaseIn returns the payload's ownership after the element consumed it.
// If it came from a shared upstream release, the shared ref_port's count
// is decremented, and only when it reaches zero is the payload handed to
// this IN port's own Acquirer (if any) for release.
func (p *Port) ReleaseIn(pay *payload.Payload) errcode.Code {
	if p.Dir != DirIn {
		return errcode.InvalidParams
	}
	p.inFlight = nil
	if p.refPort != nil {
		if p.refPort.refCnt.Add(-1) <= 0 {
			if p.acq != nil {
				return p.acq.Release(pay)
			}
		}
		return errcode.OK
	}
	if p.acq != nil {
		return p.acq.Release(pay)
	}
	return errcode.OK
}

// AcquireOut prepares a payload to be written into by the element's
// process operator: the port's own payload, grown to at least want bytes,
// whether or not a reader is bound. ReleaseOut then decides whether it is
// handed on with no copy or copied.
func (p *Port) AcquireOut(want int) (*payload.Payload, errcode.Code) {
	if p.Dir != DirOut {
		return nil, errcode.InvalidParams
	}
	if p.isShared && p.peerIn != nil {
		if code := payload.ReallocBuf(p.selfPay, want); code != errcode.OK {
			return nil, code
		}
		return p.selfPay, errcode.OK
	}
	if code := payload.ReallocBuf(p.selfPay, want); code != errcode.OK {
		return nil, code
	}
	return p.selfPay, errcode.OK
}

// AcquireAlignedOut is AcquireOut with a byte-alignment guarantee on the
// returned buffer's backing storage.
func (p *Port) AcquireAlignedOut(alloc Aligner, align, want int) (*payload.Payload, errcode.Code) {
	if p.Dir != DirOut {
		return nil, errcode.InvalidParams
	}
	if code := payload.ReallocAlignedBuf(p.selfPay, alloc, align, want); code != errcode.OK {
		return nil, code
	}
	p.outAlign = align
	return p.selfPay, errcode.OK
}

// ReleaseOut publishes the payload downstream. When sharing is enabled and
// a reader is bound, the downstream IN port's in-flight slot is set
// directly (zero copy) and this port's RefCount is bumped so the buffer
// survives until every fan-out consumer releases it. When sharing is
// disabled, every release deep-copies into a newly allocated payload that
// becomes the reader's in-flight payload. With no reader bound, the
// payload goes to the port's own Acquirer instead.
func (p *Port) ReleaseOut(pay *payload.Payload) errcode.Code {
	if p.Dir != DirOut {
		return errcode.InvalidParams
	}
	if p.peerIn == nil {
		if p.acq != nil {
			return p.acq.Release(pay)
		}
		return errcode.OK
	}
	if p.isShared {
		p.refCnt.Add(1)
		p.peerIn.refPort = p
		p.peerIn.inFlight = pay
		return errcode.OK
	}
	dst, code := payload.NewWithLength(pay.ValidSize)
	if code != errcode.OK {
		return code
	}
	if code := payload.CopyData(dst, pay); code != errcode.OK {
		return code
	}
	p.peerIn.inFlight = dst
	return errcode.OK
}

// RefCount reports the outstanding fan-out consumer count (test/debug use).
func (p *Port) RefCount() int32 { return p.refCnt.Load() }

// SharedRefOutstanding reports whether this IN port still holds a share of
// an upstream OUT port's payload (i.e. a ReleaseIn has not yet brought that
// OUT port's RefCount to zero). An IN port never increments its own
// refCnt (only the OUT port named by refPort does), so callers that need
// to know whether a force-release is still owed must go through refPort,
// not RefCount.
func (p *Port) SharedRefOutstanding() bool {
	return p.refPort != nil && p.refPort.refCnt.Load() > 0
}
