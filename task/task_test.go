package task

import (
	"sync"
	"testing"
	"time"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/oal"
	"gmf-go/port"
)

type scriptedOp struct {
	processCodes []errcode.Code
	idx          int
	openCode     errcode.Code
	closeCalled  int
}

func (s *scriptedOp) Open(el *element.Element) errcode.Code { return s.openCode }
func (s *scriptedOp) Process(el *element.Element) errcode.Code {
	if s.idx >= len(s.processCodes) {
		return errcode.JobFail
	}
	c := s.processCodes[s.idx]
	s.idx++
	return c
}
func (s *scriptedOp) Close(el *element.Element) errcode.Code {
	s.closeCalled++
	return errcode.JobOK
}
func (s *scriptedOp) ReceiveEvent(el *element.Element, pkt event.Packet) errcode.Code {
	return errcode.OK
}

func newRunningElement(op *scriptedOp) *element.Element {
	el := element.New(element.Descriptor{Tag: "t"}, element.Cap{Types: port.TypeByte}, element.Cap{})
	el.RegisterInPort(port.New(port.DirIn, port.TypeByte, nil))
	el.Cast(op)
	return el
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

type stateRecorder struct {
	mu     sync.Mutex
	states []event.State
}

func (r *stateRecorder) record(el *element.Element, s event.State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) snapshot() []event.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.State, len(r.states))
	copy(out, r.states)
	return out
}

func TestOpenOKEnqueuesProcessAndEmitsRunning(t *testing.T) {
	rec := &stateRecorder{}
	tk := New(rec.record, nil)
	op := &scriptedOp{openCode: errcode.JobOK, processCodes: []errcode.Code{errcode.JobDone}}
	el := newRunningElement(op)

	tk.Enqueue(el, element.PhaseOpen)
	tk.Bind(oal.NewHostThread(), oal.ThreadConfig{Name: "test"})

	waitFor(t, func() bool { return op.closeCalled > 0 })
	tk.Destroy()

	states := rec.snapshot()
	if len(states) < 2 || states[0] != event.StateRunning {
		t.Fatalf("expected StateRunning first, got %v", states)
	}
	if states[len(states)-1] != event.StateFinished {
		t.Fatalf("expected StateFinished as the last emitted state, got %v", states)
	}
	if el.State() != element.StateFinished {
		t.Fatalf("expected the element itself to record FINISHED, got %v", el.State())
	}
}

func TestOpenFailureEmitsErrorAndCloses(t *testing.T) {
	rec := &stateRecorder{}
	tk := New(rec.record, nil)
	op := &scriptedOp{openCode: errcode.JobFail}
	el := newRunningElement(op)

	tk.Enqueue(el, element.PhaseOpen)
	tk.Bind(oal.NewHostThread(), oal.ThreadConfig{Name: "test"})

	waitFor(t, func() bool { return op.closeCalled > 0 })
	tk.Destroy()

	states := rec.snapshot()
	if len(states) == 0 || states[0] != event.StateError {
		t.Fatalf("expected StateError emitted on open failure, got %v", states)
	}
	if el.State() != element.StateError {
		t.Fatalf("expected the element itself to record ERROR, got %v", el.State())
	}
}

func TestProcessContinueReschedulesWithoutTerminalState(t *testing.T) {
	rec := &stateRecorder{}
	tk := New(rec.record, nil)
	op := &scriptedOp{
		openCode:     errcode.JobOK,
		processCodes: []errcode.Code{errcode.JobContinue, errcode.JobContinue, errcode.JobDone},
	}
	el := newRunningElement(op)

	tk.Enqueue(el, element.PhaseOpen)
	tk.Bind(oal.NewHostThread(), oal.ThreadConfig{Name: "test"})

	waitFor(t, func() bool { return op.closeCalled > 0 })
	tk.Destroy()

	if op.idx != 3 {
		t.Fatalf("expected all 3 scripted process codes consumed, got %d", op.idx)
	}
	states := rec.snapshot()
	if len(states) != 2 || states[0] != event.StateRunning || states[1] != event.StateFinished {
		t.Fatalf("expected only RUNNING then FINISHED across the CONTINUE reschedules, got %v", states)
	}
}

func TestProcessFailEmitsErrorAndCloses(t *testing.T) {
	rec := &stateRecorder{}
	tk := New(rec.record, nil)
	op := &scriptedOp{openCode: errcode.JobOK, processCodes: []errcode.Code{errcode.JobFail}}
	el := newRunningElement(op)

	tk.Enqueue(el, element.PhaseOpen)
	tk.Bind(oal.NewHostThread(), oal.ThreadConfig{Name: "test"})

	waitFor(t, func() bool { return op.closeCalled > 0 })
	tk.Destroy()

	states := rec.snapshot()
	found := false
	for _, s := range states {
		if s == event.StateError {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected StateError among emitted states, got %v", states)
	}
}

func TestPauseSuspendsLoopUntilResume(t *testing.T) {
	rec := &stateRecorder{}
	tk := New(rec.record, nil)
	op := &scriptedOp{openCode: errcode.JobOK, processCodes: []errcode.Code{errcode.JobContinue, errcode.JobDone}}
	el := newRunningElement(op)

	tk.Pause()
	tk.Enqueue(el, element.PhaseOpen)
	tk.Bind(oal.NewHostThread(), oal.ThreadConfig{Name: "test"})

	time.Sleep(30 * time.Millisecond)
	if op.closeCalled != 0 {
		t.Fatal("expected no progress while paused")
	}

	tk.Resume()
	waitFor(t, func() bool { return op.closeCalled > 0 })
	tk.Destroy()
}

func TestPendingReportsQueueState(t *testing.T) {
	tk := New(nil, nil)
	if tk.Pending() {
		t.Fatal("expected an empty queue to report not-pending")
	}
	el := newRunningElement(&scriptedOp{openCode: errcode.JobOK})
	tk.Enqueue(el, element.PhaseOpen)
	if !tk.Pending() {
		t.Fatal("expected a queued job to report pending")
	}
}
