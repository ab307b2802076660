package payload

import (
	"testing"

	"gmf-go/errcode"
)

func TestNewWithLength(t *testing.T) {
	p, code := NewWithLength(16)
	if code != errcode.OK {
		t.Fatalf("NewWithLength: %v", code)
	}
	if p.BufLength != 16 || len(p.Buf) != 16 {
		t.Fatalf("unexpected buffer size: %d", p.BufLength)
	}
	if !p.NeedsFree {
		t.Fatal("expected NeedsFree true for owned buffer")
	}
}

func TestNewWithLengthRejectsNegative(t *testing.T) {
	if _, code := NewWithLength(-1); code != errcode.InvalidParams {
		t.Fatalf("expected InvalidParams, got %v", code)
	}
}

func TestCopyData(t *testing.T) {
	src, _ := NewWithLength(4)
	copy(src.Buf, []byte{1, 2, 3, 4})
	src.ValidSize = 4
	SetDone(src)

	dst := New()
	if code := CopyData(dst, src); code != errcode.OK {
		t.Fatalf("CopyData: %v", code)
	}
	if dst.ValidSize != 4 || !dst.IsDone {
		t.Fatalf("dst not copied correctly: %+v", dst)
	}
	for i, b := range []byte{1, 2, 3, 4} {
		if dst.Buf[i] != b {
			t.Fatalf("byte %d: got %d want %d", i, dst.Buf[i], b)
		}
	}
}

func TestReallocBufGrowsOnly(t *testing.T) {
	p, _ := NewWithLength(4)
	p.ValidSize = 4
	copy(p.Buf, []byte{9, 9, 9, 9})

	if code := ReallocBuf(p, 2); code != errcode.OK {
		t.Fatalf("shrink request: %v", code)
	}
	if p.BufLength != 4 {
		t.Fatalf("ReallocBuf must never shrink, got %d", p.BufLength)
	}

	if code := ReallocBuf(p, 10); code != errcode.OK {
		t.Fatalf("grow: %v", code)
	}
	if p.BufLength != 10 {
		t.Fatalf("expected grown to 10, got %d", p.BufLength)
	}
	if p.Buf[0] != 9 {
		t.Fatal("ReallocBuf must preserve existing valid bytes")
	}
}

type fakeAligner struct{}

func (fakeAligner) Malloc(align, n int) []byte { return make([]byte, n) }

func TestReallocAlignedBuf(t *testing.T) {
	p := New()
	if code := ReallocAlignedBuf(p, fakeAligner{}, 16, 32); code != errcode.OK {
		t.Fatalf("ReallocAlignedBuf: %v", code)
	}
	if p.BufLength != 32 {
		t.Fatalf("expected 32, got %d", p.BufLength)
	}
}

func TestDropClearsOwnedBuffer(t *testing.T) {
	p, _ := NewWithLength(8)
	p.ValidSize = 8
	Drop(p)
	if p.Buf != nil || p.BufLength != 0 || p.ValidSize != 0 {
		t.Fatalf("expected owned buffer cleared, got %+v", p)
	}
}

func TestDropKeepsUnownedBuffer(t *testing.T) {
	p := New()
	p.Buf = []byte{1, 2, 3}
	p.BufLength = 3
	p.ValidSize = 3
	p.NeedsFree = false
	Drop(p)
	if p.Buf == nil {
		t.Fatal("Drop must not free a buffer the payload doesn't own")
	}
	if p.ValidSize != 0 {
		t.Fatal("Drop must always clear ValidSize")
	}
}

func TestCleanDoneMonotonicityEscape(t *testing.T) {
	p := New()
	SetDone(p)
	if !p.IsDone {
		t.Fatal("SetDone must set IsDone")
	}
	CleanDone(p)
	if p.IsDone {
		t.Fatal("CleanDone must clear IsDone for recycling")
	}
}
