package method

import (
	"encoding/binary"
	"math"
	"testing"

	"gmf-go/errcode"
)

type fakeElement struct {
	gain float64
}

func TestRegisterAndCall(t *testing.T) {
	tbl := NewTable()
	descs := []Descriptor{{Name: "level", Type: ArgFloat64, Size: 8}}
	code := tbl.Register("set_gain", descs, func(self any, desc []Descriptor, buf []byte) errcode.Code {
		el := self.(*fakeElement)
		bits := binary.LittleEndian.Uint64(buf[desc[0].Offset : desc[0].Offset+desc[0].Size])
		el.gain = math.Float64frombits(bits)
		return errcode.OK
	})
	if code != errcode.OK {
		t.Fatalf("Register: %v", code)
	}

	ctx, code := tbl.PrepareExecCtx("set_gain")
	if code != errcode.OK {
		t.Fatalf("PrepareExecCtx: %v", code)
	}

	val := make([]byte, 8)
	binary.LittleEndian.PutUint64(val, math.Float64bits(0.5))
	if code := SetValue(ctx, descs[0], val); code != errcode.OK {
		t.Fatalf("SetValue: %v", code)
	}

	el := &fakeElement{}
	if code := ctx.Call(el); code != errcode.OK {
		t.Fatalf("Call: %v", code)
	}
	if el.gain != 0.5 {
		t.Fatalf("expected gain 0.5, got %v", el.gain)
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	tbl := NewTable()
	tbl.Register("noop", nil, func(self any, desc []Descriptor, buf []byte) errcode.Code { return errcode.OK })
	if code := tbl.Register("noop", nil, func(self any, desc []Descriptor, buf []byte) errcode.Code { return errcode.OK }); code != errcode.InvalidParams {
		t.Fatalf("expected InvalidParams on duplicate registration, got %v", code)
	}
}

func TestPrepareExecCtxUnknownName(t *testing.T) {
	tbl := NewTable()
	if _, code := tbl.PrepareExecCtx("missing"); code != errcode.NotFound {
		t.Fatalf("expected NotFound, got %v", code)
	}
}

func TestNamesPreservesRegistrationOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Register("a", nil, nil)
	tbl.Register("b", nil, nil)
	tbl.Register("c", nil, nil)
	got := tbl.Names()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestParseInvocationTokenizesLikeAShell(t *testing.T) {
	inv, code := ParseInvocation(`set_gain left "0.5 db"`)
	if code != errcode.OK {
		t.Fatalf("ParseInvocation: %v", code)
	}
	if inv.Name != "set_gain" {
		t.Fatalf("Name: %q", inv.Name)
	}
	if len(inv.Args) != 2 || inv.Args[0] != "left" || inv.Args[1] != "0.5 db" {
		t.Fatalf("Args: %v", inv.Args)
	}
}

func TestParseInvocationEmptyLineRejected(t *testing.T) {
	if _, code := ParseInvocation("   "); code != errcode.InvalidParams {
		t.Fatalf("expected InvalidParams for an empty line, got %v", code)
	}
}
