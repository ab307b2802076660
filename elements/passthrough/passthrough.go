// Package passthrough implements the simplest possible Operator: copy
// whatever arrives on IN to OUT unchanged. It lets pipeline/task/port
// integration tests exercise a full open/process/close cycle without a
// real audio/video decoder.
package passthrough

import (
	"context"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
)

// Element is a passthrough Operator. ChunkSize controls how many bytes are
// requested from the IN port per Process call.
type Element struct {
	ChunkSize int
	Ctx       context.Context
}

func New(chunkSize int) *Element {
	return &Element{ChunkSize: chunkSize, Ctx: context.Background()}
}

func (e *Element) Open(el *element.Element) errcode.Code {
	if el.InPort() == nil || el.OutPort() == nil {
		return errcode.JobFail
	}
	return errcode.JobOK
}

func (e *Element) Process(el *element.Element) errcode.Code {
	in := el.InPort()
	out := el.OutPort()

	pay, code := in.AcquireIn(e.Ctx, e.ChunkSize)
	if code != errcode.OK {
		return errcode.JobFail
	}

	outPay, code := out.AcquireOut(pay.ValidSize)
	if code != errcode.OK {
		in.ReleaseIn(pay)
		return errcode.JobFail
	}
	n := copy(outPay.Buf, pay.Buf[:pay.ValidSize])
	outPay.ValidSize = n
	outPay.IsDone = pay.IsDone

	if code := out.ReleaseOut(outPay); code != errcode.OK {
		in.ReleaseIn(pay)
		return errcode.JobFail
	}
	done := pay.IsDone
	if code := in.ReleaseIn(pay); code != errcode.OK {
		return errcode.JobFail
	}
	if done {
		return errcode.JobDone
	}
	return errcode.JobOK
}

func (e *Element) Close(el *element.Element) errcode.Code { return errcode.JobOK }

func (e *Element) ReceiveEvent(el *element.Element, pkt event.Packet) errcode.Code {
	return errcode.OK
}
