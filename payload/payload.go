// Package payload implements the buffer envelope that carries data
// between ports: a byte range plus validity, an
// end-of-stream marker, a presentation timestamp, and a free-on-drop
// policy bit.
package payload

import "gmf-go/errcode"

// Payload is a unit of data flowing between two ports.
//
// Invariants: ValidSize <= BufLength; IsDone is monotonic per
// logical stream (callers must never clear IsDone once set on a payload
// that continues a stream; CleanDone exists only for recycling a payload
// object for a fresh stream); after Drop the payload must not be touched
// by the dropper again.
type Payload struct {
	Buf       []byte
	BufLength int
	ValidSize int
	IsDone    bool
	PTS       int64
	NeedsFree bool
}

// New returns an empty, bufferless payload (self_payload style: filled in
// later by a bus acquire or explicit Realloc).
func New() *Payload {
	return &Payload{}
}

// NewWithLength allocates n bytes up front and marks the payload as owning
// them (NeedsFree=true).
func NewWithLength(n int) (*Payload, errcode.Code) {
	if n < 0 {
		return nil, errcode.InvalidParams
	}
	p := &Payload{
		Buf:       make([]byte, n),
		BufLength: n,
		NeedsFree: true,
	}
	return p, errcode.OK
}

// CopyData copies src's valid bytes and IsDone flag into dst, growing
// dst's buffer if required. It does not copy PTS or NeedsFree (those are
// policy attributes of the destination's own lifecycle).
func CopyData(dst, src *Payload) errcode.Code {
	if dst == nil || src == nil {
		return errcode.InvalidParams
	}
	if code := ReallocBuf(dst, src.ValidSize); code != errcode.OK {
		return code
	}
	n := copy(dst.Buf, src.Buf[:src.ValidSize])
	dst.ValidSize = n
	dst.IsDone = src.IsDone
	return errcode.OK
}

// ReallocBuf grows p's buffer to at least n bytes. It never shrinks the
// buffer and always preserves ValidSize.
func ReallocBuf(p *Payload, n int) errcode.Code {
	if p == nil || n < 0 {
		return errcode.InvalidParams
	}
	if p.BufLength >= n {
		return errcode.OK
	}
	grown := make([]byte, n)
	copy(grown, p.Buf[:p.ValidSize])
	p.Buf = grown
	p.BufLength = n
	p.NeedsFree = true
	return errcode.OK
}

// Aligner is implemented by an allocator (oal.Allocator satisfies it)
// capable of producing aligned storage.
type Aligner interface {
	Malloc(align, n int) []byte
}

// ReallocAlignedBuf grows p's buffer to at least n bytes, guaranteeing the
// new buffer's address satisfies align-byte alignment. No-op if the
// buffer is already at least n bytes (alignment of the existing buffer is
// not re-checked, matching the "grow only" contract).
func ReallocAlignedBuf(p *Payload, alloc Aligner, align, n int) errcode.Code {
	if p == nil || alloc == nil || n < 0 {
		return errcode.InvalidParams
	}
	if p.BufLength >= n {
		return errcode.OK
	}
	grown := alloc.Malloc(align, n)
	if grown == nil {
		return errcode.OutOfMemory
	}
	copy(grown, p.Buf[:p.ValidSize])
	p.Buf = grown
	p.BufLength = n
	p.NeedsFree = true
	return errcode.OK
}

// SetDone marks the payload as the terminal one of its logical stream.
func SetDone(p *Payload) { p.IsDone = true }

// CleanDone clears the done marker, e.g. when recycling a payload object
// for a new logical stream. Callers must not use this to violate the
// monotonicity invariant within one stream.
func CleanDone(p *Payload) { p.IsDone = false }

// Drop releases the underlying buffer only when the payload owns it
// (NeedsFree), clearing Buf and BufLength so a reused pointer can't
// accidentally read stale data; an unowned buffer is left in place.
// ValidSize is cleared in both cases.
func Drop(p *Payload) {
	if p == nil {
		return
	}
	if p.NeedsFree {
		p.Buf = nil
		p.BufLength = 0
	}
	p.ValidSize = 0
}
