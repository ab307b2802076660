// Package fade implements a linear gain-ramp Operator built on
// x/ramp.StartLinear: each Process call moves the current gain level one
// ramp step toward a target, scaling the passthrough bytes by the
// current level.
package fade

import (
	"context"
	"time"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/method"
	"gmf-go/x/mathx"
	"gmf-go/x/ramp"
)

const topLevel = 1000 // ramp.StartLinear operates on integer levels; 1000 = unity gain

// Element ramps Level from 0 to topLevel (fade-in) or the reverse
// (fade-out) in Steps equal steps, one per Process call, and applies it
// as a linear multiplier to 16-bit PCM samples flowing from IN to OUT.
// Process does not wait between steps; Steps == 0 or DurationMs == 0
// makes Level jump straight to the target.
type Element struct {
	DurationMs uint32
	Steps      uint16
	Level      uint16 // current ramp level, 0..topLevel

	target uint16
	ticker func(d time.Duration) bool

	Ctx context.Context
}

func New(durationMs uint32, steps uint16) *Element {
	return &Element{DurationMs: durationMs, Steps: steps, Ctx: context.Background()}
}

func (e *Element) Open(el *element.Element) errcode.Code {
	if el.InPort() == nil || el.OutPort() == nil {
		return errcode.JobFail
	}
	e.registerMethods(el)
	return errcode.JobOK
}

// StartFadeIn/StartFadeOut set the ramp target to topLevel/0. Process
// then moves Level toward it one step per call, so the element never
// blocks the scheduler for the fade duration; starting a new fade
// mid-ramp retargets it from the current Level.
func (e *Element) StartFadeIn()  { e.target = topLevel }
func (e *Element) StartFadeOut() { e.target = 0 }

func (e *Element) registerMethods(el *element.Element) {
	tbl := el.Methods()
	tbl.Register("fade_in", nil, func(self any, desc []method.Descriptor, buf []byte) errcode.Code {
		self.(*Element).StartFadeIn()
		return errcode.OK
	})
	tbl.Register("fade_out", nil, func(self any, desc []method.Descriptor, buf []byte) errcode.Code {
		self.(*Element).StartFadeOut()
		return errcode.OK
	})
}

func (e *Element) Process(el *element.Element) errcode.Code {
	in, out := el.InPort(), el.OutPort()
	pay, code := in.AcquireIn(e.Ctx, 4096)
	if code != errcode.OK {
		return errcode.JobFail
	}

	if e.Level != e.target {
		// One ramp step per Process call: plan the remaining distance over
		// the steps still left, let StartLinear take its first step, and
		// keep only the first level it sets.
		dist := mathx.Abs(int32(e.target) - int32(e.Level))
		left := uint16(mathx.CeilDiv(uint32(dist)*uint32(e.Steps), uint32(topLevel)))
		left = mathx.Min(left, uint16(dist))
		stepped, moved := false, false
		ramp.StartLinear(e.Level, e.target, topLevel, e.DurationMs, left,
			func(time.Duration) bool { ok := !stepped; stepped = true; return ok },
			func(level uint16) {
				if !moved {
					e.Level, moved = level, true
				}
			})
	}

	outPay, code := out.AcquireOut(pay.ValidSize)
	if code != errcode.OK {
		in.ReleaseIn(pay)
		return errcode.JobFail
	}
	applyGain(outPay.Buf[:pay.ValidSize], pay.Buf[:pay.ValidSize], e.Level, topLevel)
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

func (e *Element) ReceiveEvent(el *element.Element, pkt event.Packet) errcode.Code {
	return errcode.OK
}

// applyGain scales each 16-bit little-endian sample in src by level/top,
// clamping to int16 range.
func applyGain(dst, src []byte, level, top uint16) {
	n := len(src) - len(src)%2
	for i := 0; i < n; i += 2 {
		s := int16(uint16(src[i]) | uint16(src[i+1])<<8)
		scaled := int32(s) * int32(level) / int32(top)
		scaled = mathx.Clamp(scaled, -32768, 32767)
		v := uint16(int16(scaled))
		dst[i] = byte(v)
		dst[i+1] = byte(v >> 8)
	}
	if len(src)%2 == 1 {
		dst[len(src)-1] = src[len(src)-1]
	}
}
