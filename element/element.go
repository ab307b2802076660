// Package element implements the processing node: the host-side
// bookkeeping (port lists, state, job mask, method table) around a
// concrete Operator, separating scheduling concerns from the
// codec/filter-specific operator bodies.
package element

import (
	"sync"

	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/method"
	"gmf-go/nodelist"
	"gmf-go/port"
)

// State is the element's lifecycle state.
type State int

const (
	StateNone State = iota
	StateInitialized
	StateOpening
	StateRunning
	StatePaused
	StateStopped
	StateFinished
	StateError
)

// JobPhase selects which Operator method a Job invokes.
type JobPhase int

const (
	PhaseOpen JobPhase = iota
	PhaseProcess
	PhaseClose
)

// JobMask bits track pending open/process/close, one bit each.
type JobMask uint8

const (
	JobOpenPending JobMask = 1 << iota
	JobProcessPending
	JobClosePending
)

// Operator is the concrete body injected during cast: the only
// element-specific code a codec/filter/mixer implementation must supply.
type Operator interface {
	Open(el *Element) errcode.Code
	Process(el *Element) errcode.Code
	Close(el *Element) errcode.Code
	ReceiveEvent(el *Element, pkt event.Packet) errcode.Code
}

// Cap describes how many ports of a direction an element accepts and
// which port types it can bind.
type Cap struct {
	Single bool // true: at most one port of this direction; false: multi
	Types  port.Type
}

// Descriptor is the element's identity: a tag and an opaque configuration
// blob.
type Descriptor struct {
	Tag    string
	Config any
}

// Element is one node in a pipeline's chain.
type Element struct {
	mu sync.Mutex

	Desc Descriptor

	InAttr  Cap
	OutAttr Cap

	inPorts  []*port.Port
	outPorts []*port.Port

	state   State
	initial State

	jobMask JobMask
	depends bool // needs a REPORT_INFO before it may open

	op Operator

	methods *method.Table

	// chain links, cross-set by the owning pipeline at construction time.
	next *Element
	prev *Element

	// handle within the owning pipeline's element chain.
	Handle nodelist.Handle
	Name   string
}

// New returns an element in state NONE, not yet cast with an Operator.
func New(desc Descriptor, inAttr, outAttr Cap) *Element {
	return &Element{Desc: desc, InAttr: inAttr, OutAttr: outAttr, methods: method.NewTable()}
}

// Cast binds the concrete Operator body to the skeleton a factory built.
func (e *Element) Cast(op Operator) { e.op = op }

// LinkNext chains n after e, cross-setting the back reference. A nil n
// marks e as the chain's last element.
func (e *Element) LinkNext(n *Element) {
	e.next = n
	if n != nil {
		n.prev = e
	}
}

// NextEl/PrevEl navigate the chain.
func (e *Element) NextEl() *Element { return e.next }
func (e *Element) PrevEl() *Element { return e.prev }

// SetDependent marks the element as needing upstream REPORT_INFO before
// it may leave NONE.
func (e *Element) SetDependent(v bool) { e.depends = v }

// Dependent reports whether the element is waiting on REPORT_INFO.
func (e *Element) Dependent() bool { return e.depends }

// State returns the current lifecycle state.
func (e *Element) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetState overwrites the lifecycle state. The scheduler uses it to record
// terminal transitions (FINISHED, STOPPED, ERROR) that only it can observe.
func (e *Element) SetState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Element) setState(s State) { e.SetState(s) }

// ResetState returns the element to its initial state and clears the job
// mask, for pipeline Reset.
func (e *Element) ResetState() {
	e.mu.Lock()
	e.state = e.initial
	e.jobMask = 0
	e.mu.Unlock()
}

// RegisterInPort adds an IN port, enforcing the capability-port matrix:
// cap.Single rejects a second IN port, and the port's type must intersect
// the element's declared allowed types.
func (e *Element) RegisterInPort(p *port.Port) errcode.Code {
	if code := checkCap(e.InAttr, p.Typ, len(e.inPorts)); code != errcode.OK {
		return code
	}
	e.inPorts = append(e.inPorts, p)
	return errcode.OK
}

// RegisterOutPort mirrors RegisterInPort for OUT ports.
func (e *Element) RegisterOutPort(p *port.Port) errcode.Code {
	if code := checkCap(e.OutAttr, p.Typ, len(e.outPorts)); code != errcode.OK {
		return code
	}
	e.outPorts = append(e.outPorts, p)
	return errcode.OK
}

func checkCap(cap Cap, typ port.Type, existing int) errcode.Code {
	if cap.Single && existing >= 1 {
		return errcode.Unsupported
	}
	if cap.Types != 0 && cap.Types&typ == 0 {
		return errcode.Unsupported
	}
	return errcode.OK
}

// UnregisterInPort/UnregisterOutPort drop a port from the element's list
// (used when tearing down a connect_pipe adapter independently of Close).
func (e *Element) UnregisterInPort(p *port.Port) {
	e.inPorts = removePort(e.inPorts, p)
}
func (e *Element) UnregisterOutPort(p *port.Port) {
	e.outPorts = removePort(e.outPorts, p)
}
func removePort(list []*port.Port, p *port.Port) []*port.Port {
	out := list[:0]
	for _, x := range list {
		if x != p {
			out = append(out, x)
		}
	}
	return out
}

// InPorts/OutPorts expose the registered ports (used by the scheduler and
// by connect_pipe wiring).
func (e *Element) InPorts() []*port.Port  { return e.inPorts }
func (e *Element) OutPorts() []*port.Port { return e.outPorts }

// InPort/OutPort return the first (and, for SINGLE-capability elements,
// only) port of each direction.
func (e *Element) InPort() *port.Port {
	if len(e.inPorts) == 0 {
		return nil
	}
	return e.inPorts[0]
}
func (e *Element) OutPort() *port.Port {
	if len(e.outPorts) == 0 {
		return nil
	}
	return e.outPorts[0]
}

// Open invokes the operator's open, transitioning OPENING -> RUNNING on
// success. An IN port must exist before open. An OUT port may be missing
// only on the chain's last element: a process writing to a null OUT is
// undefined, so a chained element without one fails here with JobFail and
// the scheduler drives the normal ERROR/CLOSE path.
func (e *Element) Open() errcode.Code {
	if e.InPort() == nil {
		return errcode.InvalidParams
	}
	if e.next != nil && e.OutPort() == nil {
		return errcode.JobFail
	}
	e.setState(StateOpening)
	code := e.op.Open(e)
	if code == errcode.JobOK {
		e.setState(StateRunning)
	}
	return code
}

// Process invokes the operator's process step. The caller (task) is
// responsible for interpreting the returned job code into the next
// scheduling action.
func (e *Element) Process() errcode.Code {
	return e.op.Process(e)
}

// Close invokes the operator's close first, then force-releases any IN
// port still holding a share of an upstream OUT port's payload, unlocking
// fan-out peers blocked on the shared buffer.
// An IN port's own ref_count is always zero (only the OUT port named by
// its refPort tracks outstanding fan-out consumers), so the check goes
// through SharedRefOutstanding rather than the port's own RefCount.
func (e *Element) Close() errcode.Code {
	code := e.op.Close(e)
	for _, p := range e.inPorts {
		if p.SharedRefOutstanding() {
			p.ReleaseIn(nil)
		}
	}
	return code
}

// ReceiveEvent forwards a REPORT_INFO/CHANGE_STATE packet to the
// operator, promoting a dependent element NONE -> INITIALIZED on a
// matching REPORT_INFO.
func (e *Element) ReceiveEvent(pkt event.Packet) errcode.Code {
	code := e.op.ReceiveEvent(e, pkt)
	if code == errcode.OK && e.depends && pkt.Type == event.ReportInfo && e.State() == StateNone {
		e.depends = false
		e.setState(StateInitialized)
	}
	return code
}

// JobMask returns the current pending-job bitset.
func (e *Element) JobMask() JobMask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jobMask
}

// SetJobMask overwrites the pending-job bitset.
func (e *Element) SetJobMask(m JobMask) {
	e.mu.Lock()
	e.jobMask = m
	e.mu.Unlock()
}

// ChangeJobMask ORs in (set) or ANDs out (clear) bits.
func (e *Element) ChangeJobMask(bit JobMask, set bool) {
	e.mu.Lock()
	if set {
		e.jobMask |= bit
	} else {
		e.jobMask &^= bit
	}
	e.mu.Unlock()
}

// Methods exposes the element's method table for registration/lookup.
func (e *Element) Methods() *method.Table { return e.methods }
