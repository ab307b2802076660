package sourcesink

import (
	"context"
	"testing"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/payload"
	"gmf-go/port"
)

type memIn struct {
	chunks [][]byte
	idx    int
}

func (m *memIn) Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code) {
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

func (m *memIn) Release(p *payload.Payload) errcode.Code { return errcode.OK }

type memOut struct {
	released [][]byte
}

func (m *memOut) Acquire(ctx context.Context, want int) (*payload.Payload, errcode.Code) {
	return payload.NewWithLength(want)
}

func (m *memOut) Release(p *payload.Payload) errcode.Code {
	m.released = append(m.released, append([]byte(nil), p.Buf[:p.ValidSize]...))
	return errcode.OK
}

func TestSourceOpenRequiresOutPort(t *testing.T) {
	el := element.New(element.Descriptor{}, element.Cap{}, element.Cap{})
	src := New(&memIn{}, 4)
	el.Cast(src)
	if code := src.Open(el); code != errcode.JobFail {
		t.Fatalf("expected JobFail with no OUT port, got %v", code)
	}
}

func TestSourcePublishesOntoOutPort(t *testing.T) {
	el := element.New(element.Descriptor{}, element.Cap{}, element.Cap{Types: port.TypeByte})
	out := &memOut{}
	el.RegisterOutPort(port.New(port.DirOut, port.TypeByte, out))
	src := New(&memIn{chunks: [][]byte{[]byte("x")}}, 1)
	el.Cast(src)

	if code := src.Open(el); code != errcode.JobOK {
		t.Fatalf("Open: %v", code)
	}
	if code := src.Process(el); code != errcode.JobDone {
		t.Fatalf("expected JobDone on the final chunk, got %v", code)
	}
	if len(out.released) != 1 || string(out.released[0]) != "x" {
		t.Fatalf("expected the byte to reach the out acquirer, got %v", out.released)
	}
}

func TestSinkOpenRequiresInPort(t *testing.T) {
	el := element.New(element.Descriptor{}, element.Cap{}, element.Cap{})
	snk := NewSink(&memOut{}, 4)
	el.Cast(snk)
	if code := snk.Open(el); code != errcode.JobFail {
		t.Fatalf("expected JobFail with no IN port, got %v", code)
	}
}

func TestSinkDrainsInPortToIO(t *testing.T) {
	el := element.New(element.Descriptor{}, element.Cap{Types: port.TypeByte}, element.Cap{})
	in := &memIn{chunks: [][]byte{[]byte("a"), []byte("b")}}
	el.RegisterInPort(port.New(port.DirIn, port.TypeByte, in))
	out := &memOut{}
	snk := NewSink(out, 1)
	el.Cast(snk)

	snk.Open(el)
	if code := snk.Process(el); code != errcode.JobOK {
		t.Fatalf("expected JobOK on a non-final chunk, got %v", code)
	}
	if code := snk.Process(el); code != errcode.JobDone {
		t.Fatalf("expected JobDone on the final chunk, got %v", code)
	}
	if len(out.released) != 2 {
		t.Fatalf("expected 2 released chunks, got %d", len(out.released))
	}
}
