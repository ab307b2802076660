package fade

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/payload"
	"gmf-go/port"
)

type memAcquirer struct {
	chunks   [][]byte
	idx      int
	released [][]byte
}

func (m *memAcquirer) Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code) {
	if m.idx >= len(m.chunks) {
		return nil, errcode.IoDone
	}
	data := m.chunks[m.idx]
	m.idx++
	p, _ := payload.NewWithLength(len(data))
	copy(p.Buf, data)
	p.ValidSize = len(data)
	if m.idx == len(m.chunks) {
		p.IsDone = true
	}
	return p, errcode.OK
}
func (m *memAcquirer) Release(p *payload.Payload) errcode.Code {
	m.released = append(m.released, append([]byte(nil), p.Buf[:p.ValidSize]...))
	return errcode.OK
}

func pcmSample(v int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}

func buildElement(t *testing.T, in *memAcquirer) (*element.Element, *Element) {
	t.Helper()
	el := element.New(element.Descriptor{}, element.Cap{Types: port.TypeByte}, element.Cap{Types: port.TypeByte})
	el.RegisterInPort(port.New(port.DirIn, port.TypeByte, in))
	el.RegisterOutPort(port.New(port.DirOut, port.TypeByte, &memAcquirer{}))
	op := New(100, 10)
	el.Cast(op)
	return el, op
}

func TestOpenRegistersFadeMethods(t *testing.T) {
	el, op := buildElement(t, &memAcquirer{})
	if code := op.Open(el); code != errcode.JobOK {
		t.Fatalf("Open: %v", code)
	}
	names := el.Methods().Names()
	wantNames := map[string]bool{"fade_in": false, "fade_out": false}
	for _, n := range names {
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
		}
	}
	for n, found := range wantNames {
		if !found {
			t.Fatalf("expected method %q to be registered on Open", n)
		}
	}
}

func TestZeroLevelMutesOutput(t *testing.T) {
	sample := pcmSample(1000)
	in := &memAcquirer{chunks: [][]byte{sample}}
	out := &memAcquirer{}
	el := element.New(element.Descriptor{}, element.Cap{Types: port.TypeByte}, element.Cap{Types: port.TypeByte})
	el.RegisterInPort(port.New(port.DirIn, port.TypeByte, in))
	el.RegisterOutPort(port.New(port.DirOut, port.TypeByte, out))
	op := New(100, 10)
	el.Cast(op)
	op.Open(el)
	// Level starts at 0 and target defaults to 0: no fade requested, so the
	// very first Process call should apply full mute.
	if code := op.Process(el); code != errcode.JobDone {
		t.Fatalf("expected JobDone on the single chunk, got %v", code)
	}
	if len(out.released) != 1 || !bytes.Equal(out.released[0], pcmSample(0)) {
		t.Fatalf("expected one muted sample on the OUT port, got %v", out.released)
	}
}

func TestStartFadeInMovesTowardUnityGain(t *testing.T) {
	op := New(100, 10)
	if op.Level != 0 {
		t.Fatalf("expected initial level 0, got %d", op.Level)
	}
	op.StartFadeIn()
	if op.target != topLevel {
		t.Fatalf("expected target topLevel after StartFadeIn, got %d", op.target)
	}
}

func TestStartFadeOutTargetsZero(t *testing.T) {
	op := New(100, 10)
	op.Level = topLevel
	op.target = topLevel
	op.StartFadeOut()
	if op.target != 0 {
		t.Fatalf("expected target 0 after StartFadeOut, got %d", op.target)
	}
}

func TestProcessFailsWhenInAcquireErrors(t *testing.T) {
	in := &memAcquirer{} // no chunks
	el, op := buildElement(t, in)
	op.Open(el)
	if code := op.Process(el); code != errcode.JobFail {
		t.Fatalf("expected JobFail when the in-port has nothing to acquire, got %v", code)
	}
}
