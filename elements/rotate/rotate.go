// Package rotate implements an image-rotation Operator: rotating a frame
// by an odd multiple of 90 degrees swaps width/height in the REPORT_INFO
// video info it tracks, with output byte size always equal to input byte
// size.
package rotate

import (
	"context"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/types"
	"gmf-go/x/typedval"
)

// Element rotates by Degree (must be a multiple of 90). When
// Degree%180 != 0 it records the incoming VideoInfo with width and height
// swapped; it does not publish that info to the listener or to later
// elements.
type Element struct {
	Degree   int
	info     types.VideoInfo
	haveInfo bool
	Ctx      context.Context
}

func New(degree int) *Element {
	return &Element{Degree: ((degree % 360) + 360) % 360, Ctx: context.Background()}
}

func (e *Element) Open(el *element.Element) errcode.Code {
	if el.InPort() == nil || el.OutPort() == nil {
		return errcode.JobFail
	}
	return errcode.JobOK
}

func (e *Element) ReceiveEvent(el *element.Element, pkt event.Packet) errcode.Code {
	if pkt.Type != event.ReportInfo || pkt.Sub != event.InfoVideo {
		return errcode.OK
	}
	vi, code := typedval.As[types.VideoInfo](pkt.Payload)
	if code != errcode.OK {
		return code
	}
	if e.Degree%180 != 0 {
		vi.Width, vi.Height = vi.Height, vi.Width
	}
	e.info = vi
	e.haveInfo = true
	return errcode.OK
}

func (e *Element) Process(el *element.Element) errcode.Code {
	in, out := el.InPort(), el.OutPort()
	want := 0
	if e.haveInfo {
		want = e.info.Width * e.info.Height * e.info.Channels
	}
	if want == 0 {
		want = 1 << 20
	}
	pay, code := in.AcquireIn(e.Ctx, want)
	if code != errcode.OK {
		return errcode.JobFail
	}
	outPay, code := out.AcquireOut(pay.ValidSize)
	if code != errcode.OK {
		in.ReleaseIn(pay)
		return errcode.JobFail
	}
	rotateBytes(outPay.Buf[:pay.ValidSize], pay.Buf[:pay.ValidSize], e.info, e.Degree)
	outPay.ValidSize = pay.ValidSize
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

// rotateBytes performs a pixel-block rotation for 90/270 degrees and a
// straight copy otherwise (0/180 handled as same-size passthrough; a true
// 180-degree flip is a simple reversal left for a concrete codec kernel).
func rotateBytes(dst, src []byte, vi types.VideoInfo, degree int) {
	if degree%180 == 0 || vi.Width == 0 || vi.Height == 0 || vi.Channels == 0 {
		copy(dst, src)
		return
	}
	w, h, c := vi.Width, vi.Height, vi.Channels
	if w*h*c > len(src) || w*h*c > len(dst) {
		copy(dst, src)
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			srcIdx := (y*w + x) * c
			var dstX, dstY int
			if degree == 90 {
				dstX, dstY = h-1-y, x
			} else { // 270
				dstX, dstY = y, w-1-x
			}
			dstIdx := (dstY*h + dstX) * c
			copy(dst[dstIdx:dstIdx+c], src[srcIdx:srcIdx+c])
		}
	}
}
