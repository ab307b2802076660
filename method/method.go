// Package method implements the per-element method table: named operator
// entry points plus an argument descriptor scheme clients use to
// pack/unpack call buffers.
//
// ParseInvocation additionally supports a line-oriented method console on
// github.com/google/shlex, letting an operator string like
// `set_gain left 0.5` be tokenized the way a shell would (quoting,
// escaping) without hand-rolling a splitter.
package method

import (
	"fmt"

	"github.com/google/shlex"

	"gmf-go/errcode"
)

// ArgType is the wire type of one packed argument.
type ArgType int

const (
	ArgInt32 ArgType = iota
	ArgInt64
	ArgFloat64
	ArgString
	ArgBytes
)

// Descriptor describes one argument slot within a method's packed buffer.
type Descriptor struct {
	Name   string
	Type   ArgType
	Offset int
	Size   int
}

// Func is the operator body invoked by Table.Call. self is the owning
// element (typed any to avoid an import cycle with package element); buf
// is the packed argument buffer described by desc.
type Func func(self any, desc []Descriptor, buf []byte) errcode.Code

// Entry is one named method.
type Entry struct {
	Name string
	Args []Descriptor
	Fn   Func
	size int // total packed buffer size, sum of descriptor sizes
}

// Table is the ordered set of methods exposed by one element, backed by
// a slice + name index for O(1) lookup since nothing here needs pointer
// stability across mutation the way an intrusive list would.
type Table struct {
	order  []string
	byName map[string]*Entry
}

func NewTable() *Table {
	return &Table{byName: map[string]*Entry{}}
}

// Register adds a method. Duplicate names are rejected with
// errcode.InvalidParams (methods are identified by name; silently
// overwriting one would let a cast step shadow another's wiring).
func (t *Table) Register(name string, args []Descriptor, fn Func) errcode.Code {
	if _, exists := t.byName[name]; exists {
		return errcode.InvalidParams
	}
	size := 0
	for i := range args {
		args[i].Offset = size
		size += args[i].Size
	}
	e := &Entry{Name: name, Args: args, Fn: fn, size: size}
	if t.byName == nil {
		t.byName = map[string]*Entry{}
	}
	t.byName[name] = e
	t.order = append(t.order, name)
	return errcode.OK
}

// Names returns the registered method names in registration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// ExecCtx is the client-held handle produced by PrepareExecCtx: the
// resolved method plus a freshly allocated packed argument buffer.
type ExecCtx struct {
	entry *Entry
	Buf   []byte
}

// PrepareExecCtx resolves name and allocates a zeroed packed buffer sized
// to its argument descriptors.
func (t *Table) PrepareExecCtx(name string) (*ExecCtx, errcode.Code) {
	e, ok := t.byName[name]
	if !ok {
		return nil, errcode.NotFound
	}
	return &ExecCtx{entry: e, Buf: make([]byte, e.size)}, errcode.OK
}

// SetValue writes value's bytes into arg's slot. value must already be
// arg.Size bytes (callers use encoding/binary to produce it; this keeps
// method type-agnostic about encoding).
func SetValue(ctx *ExecCtx, arg Descriptor, value []byte) errcode.Code {
	if len(value) != arg.Size || arg.Offset+arg.Size > len(ctx.Buf) {
		return errcode.InvalidParams
	}
	copy(ctx.Buf[arg.Offset:arg.Offset+arg.Size], value)
	return errcode.OK
}

// ExtractValue reads arg's slot out of the call buffer (post-Func, for
// out-parameters / return values packed into the same buffer).
func ExtractValue(buf []byte, arg Descriptor, out []byte) errcode.Code {
	if len(out) != arg.Size || arg.Offset+arg.Size > len(buf) {
		return errcode.InvalidParams
	}
	copy(out, buf[arg.Offset:arg.Offset+arg.Size])
	return errcode.OK
}

// Call invokes the resolved method's operator.
func (ctx *ExecCtx) Call(self any) errcode.Code {
	return ctx.entry.Fn(self, ctx.entry.Args, ctx.Buf)
}

// ReleaseExecCtx drops the context's buffer. It exists to keep the
// prepare/release pairing; there is nothing to free on a GC host beyond
// letting ctx go out of scope.
func ReleaseExecCtx(ctx *ExecCtx) { _ = ctx }

// Invocation is a parsed method call line: a name and its raw string
// arguments, before any type-specific packing.
type Invocation struct {
	Name string
	Args []string
}

// ParseInvocation tokenizes a line like `set_gain left 0.5` the way a
// shell would (quoting/escaping honored), returning the method name and
// its raw arguments.
func ParseInvocation(line string) (Invocation, errcode.Code) {
	fields, err := shlex.Split(line)
	if err != nil {
		return Invocation{}, errcode.InvalidParams
	}
	if len(fields) == 0 {
		return Invocation{}, errcode.InvalidParams
	}
	return Invocation{Name: fields[0], Args: fields[1:]}, errcode.OK
}

// String renders an Invocation back to a display line (debug/logging use).
func (inv Invocation) String() string {
	return fmt.Sprintf("%s %v", inv.Name, inv.Args)
}
