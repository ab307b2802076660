// Package sourcesink implements the two Operators every pipeline needs
// at its edges: Source pulls from a port.Acquirer (an I/O adapter) and
// publishes onto its OUT port; Sink drains an IN port into a
// port.Acquirer. Any camera/LCD/file/HTTP adapter that satisfies the
// acquire/release contract plugs into either side.
package sourcesink

import (
	"context"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/payload"
)

// Source reads fixed-size chunks from IO and writes them to the element's
// OUT port. It sends no REPORT_INFO packet.
type Source struct {
	IO interface {
		Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code)
	}
	ChunkSize int
	Ctx       context.Context
}

func New(io interface {
	Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code)
}, chunkSize int) *Source {
	return &Source{IO: io, ChunkSize: chunkSize, Ctx: context.Background()}
}

func (s *Source) Open(el *element.Element) errcode.Code {
	if el.OutPort() == nil {
		return errcode.JobFail
	}
	return errcode.JobOK
}

func (s *Source) Process(el *element.Element) errcode.Code {
	pay, code := s.IO.Acquire(s.Ctx, s.ChunkSize)
	if code != errcode.OK && code != errcode.IoOK {
		if code == errcode.IoDone {
			return errcode.JobDone
		}
		return errcode.JobFail
	}
	out := el.OutPort()
	outPay, code := out.AcquireOut(pay.ValidSize)
	if code != errcode.OK {
		return errcode.JobFail
	}
	n := copy(outPay.Buf, pay.Buf[:pay.ValidSize])
	outPay.ValidSize = n
	outPay.IsDone = pay.IsDone
	if code := out.ReleaseOut(outPay); code != errcode.OK {
		return errcode.JobFail
	}
	if pay.IsDone {
		return errcode.JobDone
	}
	return errcode.JobOK
}

func (s *Source) Close(el *element.Element) errcode.Code { return errcode.JobOK }

func (s *Source) ReceiveEvent(el *element.Element, pkt event.Packet) errcode.Code {
	return errcode.OK
}

// Sink drains the element's IN port into IO until done.
type Sink struct {
	IO interface {
		Release(p *payload.Payload) errcode.Code
	}
	ChunkSize int
	Ctx       context.Context
}

func NewSink(io interface {
	Release(p *payload.Payload) errcode.Code
}, chunkSize int) *Sink {
	return &Sink{IO: io, ChunkSize: chunkSize, Ctx: context.Background()}
}

func (s *Sink) Open(el *element.Element) errcode.Code {
	if el.InPort() == nil {
		return errcode.JobFail
	}
	return errcode.JobOK
}

func (s *Sink) Process(el *element.Element) errcode.Code {
	in := el.InPort()
	pay, code := in.AcquireIn(s.Ctx, s.ChunkSize)
	if code != errcode.OK {
		return errcode.JobFail
	}
	done := pay.IsDone
	if s.IO != nil {
		s.IO.Release(pay)
	}
	if code := in.ReleaseIn(pay); code != errcode.OK {
		return errcode.JobFail
	}
	if done {
		return errcode.JobDone
	}
	return errcode.JobOK
}

func (s *Sink) Close(el *element.Element) errcode.Code { return errcode.JobOK }

func (s *Sink) ReceiveEvent(el *element.Element, pkt event.Packet) errcode.Code {
	return errcode.OK
}
