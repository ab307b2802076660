// Package framer implements a fixed-size frame assembler Operator on top
// of cache.Cache: it accumulates arbitrary-size upstream chunks into
// frameSize-byte frames, returning CONTINUE while a frame is still being
// assembled and TRUNCATE when a single load produced more than one ready
// frame.
package framer

import (
	"context"

	"gmf-go/cache"
	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
)

// Element re-chunks its input stream into FrameSize-byte frames.
type Element struct {
	FrameSize int
	Ctx       context.Context

	cache *cache.Cache
}

// New returns a framer assembling frameSize-byte frames.
func New(frameSize int) (*Element, errcode.Code) {
	c, code := cache.New(frameSize)
	if code != errcode.OK {
		return nil, code
	}
	return &Element{FrameSize: frameSize, Ctx: context.Background(), cache: c}, errcode.OK
}

func (e *Element) Open(el *element.Element) errcode.Code {
	if el.InPort() == nil || el.OutPort() == nil {
		return errcode.JobFail
	}
	return errcode.JobOK
}

// Process loads more input only when the cache cannot yet produce a full
// frame (cache.ReadyForLoad), then emits one frame per call. When the
// just-loaded chunk leaves another full frame already buffered, Process
// returns TRUNCATE so the scheduler re-runs it without acquiring further
// input, draining the cache first.
func (e *Element) Process(el *element.Element) errcode.Code {
	in, out := el.InPort(), el.OutPort()

	if e.cache.ReadyForLoad() {
		pay, code := in.AcquireIn(e.Ctx, e.FrameSize)
		if code != errcode.OK {
			return errcode.JobFail
		}
		loadCode := e.cache.Load(pay.Buf[:pay.ValidSize], pay.IsDone)
		done := pay.IsDone
		if rc := in.ReleaseIn(pay); rc != errcode.OK {
			return errcode.JobFail
		}
		if loadCode != errcode.OK {
			return errcode.JobFail
		}
		if !done && e.cache.ReadyForLoad() {
			return errcode.JobContinue
		}
	}

	view, code := e.cache.Acquire(e.FrameSize)
	if code == errcode.IoTimeout {
		return errcode.JobContinue
	}
	if code != errcode.OK {
		return errcode.JobFail
	}

	outPay, code := out.AcquireOut(len(view.Data))
	if code != errcode.OK {
		e.cache.Release()
		return errcode.JobFail
	}
	n := copy(outPay.Buf, view.Data)
	outPay.ValidSize = n
	outPay.IsDone = view.IsDone
	if code := out.ReleaseOut(outPay); code != errcode.OK {
		e.cache.Release()
		return errcode.JobFail
	}
	if code := e.cache.Release(); code != errcode.OK {
		return errcode.JobFail
	}

	if view.IsDone {
		return errcode.JobDone
	}
	if e.cache.HasFullFrame() {
		return errcode.JobTruncate
	}
	return errcode.JobOK
}

func (e *Element) Close(el *element.Element) errcode.Code {
	e.cache.Delete()
	return errcode.JobOK
}

func (e *Element) ReceiveEvent(el *element.Element, pkt event.Packet) errcode.Code {
	return errcode.OK
}
