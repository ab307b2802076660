// Package pipeline implements the element chain and its lifecycle:
// ordered construction from the registry, job loading,
// run/pause/resume/stop/destroy, and REPORT_INFO fan-out along the chain.
// Pipeline-level state is published retained and de-chattered, so a
// listener only sees transitions.
package pipeline

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"gmf-go/databus"
	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/nodelist"
	"gmf-go/oal"
	"gmf-go/port"
	"gmf-go/registry"
	"gmf-go/task"
)

// Pipeline is an ordered chain of elements sharing one task and event
// router, plus optional IN/OUT I/O adapters at its edges.
type Pipeline struct {
	pool *registry.Pool

	chain    *nodelist.List[*element.Element]
	byName   map[string]*element.Element
	elements []*element.Element // chain order, cached for ReportInfo/LoadingJobs

	inIO  port.Acquirer
	outIO port.Acquirer

	Router *event.Router
	task   *task.Task

	listener func(pkt event.Packet)

	mu        sync.Mutex
	lastState event.State // last published pipeline-level state, for de-chatter
}

// New resolves in_io, each named element, and out_io from pool, links
// them into a chain with cross-set reader/writer pointers, and returns
// the pipeline.
func New(pool *registry.Pool, name, inIOTag string, elNames []string, outIOTag string) (*Pipeline, errcode.Code) {
	p := &Pipeline{
		pool:   pool,
		chain:  nodelist.New[*element.Element](),
		byName: map[string]*element.Element{},
		Router: event.New(name),
	}
	p.task = task.New(p.onElementState, nil)

	if inIOTag != "" {
		io, code := pool.BuildIO(inIOTag, "")
		if code != errcode.OK {
			return nil, code
		}
		p.inIO = io
	}
	if outIOTag != "" {
		io, code := pool.BuildIO(outIOTag, "")
		if code != errcode.OK {
			return nil, code
		}
		p.outIO = io
	}

	for _, tag := range elNames {
		el, code := pool.Build(tag, nil)
		if code != errcode.OK {
			return nil, code
		}
		el.Name = tag
		el.Handle = p.chain.PushBack(el)
		p.byName[tag] = el
		p.elements = append(p.elements, el)
	}

	// Link the chain and cross-set reader/writer pointers where both
	// ports already exist. A chained element still missing its OUT port
	// when the task runs is rejected by its own Open with JobFail, so the
	// failure surfaces as the normal ERROR event rather than a
	// construction error.
	for i := 0; i < len(p.elements)-1; i++ {
		p.elements[i].LinkNext(p.elements[i+1])
		wirePorts(p.elements[i], p.elements[i+1])
	}

	return p, errcode.OK
}

// wirePorts cross-sets cur's OUT port and next's IN port when both are
// registered; a half-wired pair is left alone until both sides exist.
func wirePorts(cur, next *element.Element) {
	curOut, nextIn := cur.OutPort(), next.InPort()
	if curOut != nil && nextIn != nil {
		curOut.SetReader(nextIn)
		nextIn.SetWriter(curOut)
	}
}

// Task returns the pipeline's scheduler. Run binds it onto an oal.Thread
// through task.Task.Bind; a caller may also bind it directly.
func (p *Pipeline) Task() *task.Task { return p.task }

// SetEvent installs the upward lifecycle listener.
func (p *Pipeline) SetEvent(fn func(pkt event.Packet)) { p.listener = fn }

// SetInURI/SetOutURI reconfigure the bound I/O adapters' target;
// concrete Acquirer implementations interpret the URI.
func (p *Pipeline) SetInURI(uri string) errcode.Code {
	if setter, ok := p.inIO.(interface{ SetURI(string) errcode.Code }); ok {
		return setter.SetURI(uri)
	}
	return errcode.Unsupported
}
func (p *Pipeline) SetOutURI(uri string) errcode.Code {
	if setter, ok := p.outIO.(interface{ SetURI(string) errcode.Code }); ok {
		return setter.SetURI(uri)
	}
	return errcode.Unsupported
}

// Reset returns every element to its initial state and clears the task's
// stop/pause latches so a completed or errored pipeline can run again.
func (p *Pipeline) Reset() {
	for _, el := range p.elements {
		el.ResetState()
	}
	p.task.Reset()
	p.mu.Lock()
	p.lastState = event.StateNone
	p.mu.Unlock()
}

// terminal reports whether every element has reached a terminal state,
// in which case run/pause/resume/stop are idempotent no-ops.
func (p *Pipeline) terminal() bool {
	if len(p.elements) == 0 {
		return false
	}
	for _, el := range p.elements {
		switch el.State() {
		case element.StateStopped, element.StateFinished, element.StateError:
		default:
			return false
		}
	}
	return true
}

// State returns the last published pipeline-level lifecycle state.
func (p *Pipeline) State() event.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastState
}

// LoadingJobs walks all elements and emits one OPEN per element, honoring
// dependency chains: a dependent element stays in NONE until a matching
// REPORT_INFO arrives.
func (p *Pipeline) LoadingJobs() {
	// Ports are often registered after New (the host binds I/O adapters
	// onto built elements), so wire the chain again before queueing opens.
	for i := 0; i < len(p.elements)-1; i++ {
		wirePorts(p.elements[i], p.elements[i+1])
	}
	for _, el := range p.elements {
		if el.Dependent() {
			continue
		}
		el.ChangeJobMask(element.JobOpenPending, true)
		p.task.Enqueue(el, element.PhaseOpen)
	}
}

// Run binds the task onto thread, starts its loop, and publishes
// STARTED. Jobs must already be queued via LoadingJobs. A no-op returning
// OK on an already-terminal pipeline; use Reset first to run again.
func (p *Pipeline) Run(thread oal.Thread, cfg oal.ThreadConfig) errcode.Code {
	if p.terminal() {
		return errcode.OK
	}
	p.notifyState(event.StateStarted)
	p.task.Bind(thread, cfg)
	return errcode.OK
}

// Pause suspends the task at the next job boundary and publishes PAUSED.
// Idempotent no-op on a terminal pipeline.
func (p *Pipeline) Pause() errcode.Code {
	if p.terminal() {
		return errcode.OK
	}
	p.task.Pause()
	p.notifyState(event.StatePaused)
	return errcode.OK
}

// Resume clears the pause latch. Idempotent no-op on a terminal pipeline.
func (p *Pipeline) Resume() errcode.Code {
	if p.terminal() {
		return errcode.OK
	}
	p.task.Resume()
	p.notifyState(event.StateRunning)
	return errcode.OK
}

// Stop aborts each bus passed in buses, so in-flight acquires on them
// unblock with IoAbort, then stops the task. A bus not passed is not
// aborted: the pipeline keeps no list of the buses behind its ports.
// Idempotent no-op on a terminal pipeline.
func (p *Pipeline) Stop(buses ...databus.Bus) errcode.Code {
	if p.terminal() {
		return errcode.OK
	}
	for _, b := range buses {
		b.Abort()
	}
	p.task.Stop()
	return errcode.OK
}

// Destroy joins the task thread and every supplied bus-owning goroutine
// via errgroup, letting a connect_pipe adapter's own goroutine be joined
// in the same call.
func (p *Pipeline) Destroy(extra ...func() error) error {
	var g errgroup.Group
	g.Go(func() error {
		p.task.Destroy()
		return nil
	})
	for _, fn := range extra {
		g.Go(fn)
	}
	return g.Wait()
}

// GetElByName looks up a chained element by its registration name.
func (p *Pipeline) GetElByName(name string) (*element.Element, errcode.Code) {
	el, ok := p.byName[name]
	if !ok {
		return nil, errcode.NotFound
	}
	return el, errcode.OK
}

// RegElPort registers a port on a named element.
func (p *Pipeline) RegElPort(elName string, prt *port.Port) errcode.Code {
	el, code := p.GetElByName(elName)
	if code != errcode.OK {
		return code
	}
	if prt.Dir == port.DirIn {
		return el.RegisterInPort(prt)
	}
	return el.RegisterOutPort(prt)
}

// ConnectPipe registers an OUT port over outAcq on the source element and
// an IN port over inAcq on the destination element. It creates no bus and
// does not link the two ports to each other: whatever transport joins the
// two pipelines is the one outAcq and inAcq share.
func ConnectPipe(srcPipe *Pipeline, srcEl string, outAcq port.Acquirer, dstPipe *Pipeline, dstEl string, inAcq port.Acquirer) errcode.Code {
	src, code := srcPipe.GetElByName(srcEl)
	if code != errcode.OK {
		return code
	}
	dst, code := dstPipe.GetElByName(dstEl)
	if code != errcode.OK {
		return code
	}
	outPort := port.New(port.DirOut, port.TypeBlock, outAcq)
	inPort := port.New(port.DirIn, port.TypeBlock, inAcq)
	if code := src.RegisterOutPort(outPort); code != errcode.OK {
		return code
	}
	if code := dst.RegisterInPort(inPort); code != errcode.OK {
		return code
	}
	return errcode.OK
}

// ReportInfo invokes each element's event receiver in chain order,
// short-circuiting on fatal rejection. A dependent element that was
// waiting in NONE and gets promoted to INITIALIZED by this REPORT_INFO is
// scheduled for its own OPEN job here, since LoadingJobs only enqueued
// the non-dependent elements up front.
func (p *Pipeline) ReportInfo(kind event.InfoKind, payload any, size int) errcode.Code {
	receivers := make([]event.Receiver, len(p.elements))
	wasDependent := make([]bool, len(p.elements))
	for i, el := range p.elements {
		receivers[i] = el
		wasDependent[i] = el.Dependent()
	}

	code := event.DeliverReportInfo(receivers, event.Packet{Sub: kind, Payload: payload, PayloadSize: size})

	for i, el := range p.elements {
		if wasDependent[i] && !el.Dependent() && el.State() == element.StateInitialized {
			el.ChangeJobMask(element.JobOpenPending, true)
			p.task.Enqueue(el, element.PhaseOpen)
		}
	}

	return code
}

func (p *Pipeline) onElementState(el *element.Element, s event.State) {
	if p.listener != nil {
		p.listener(event.Packet{From: el.Name, Type: event.ChangeState, Payload: s})
	}
	p.notifyState(s)
}

// notifyState publishes a pipeline-level state, suppressing a republish
// of an unchanged one so listeners see transitions, not chatter.
func (p *Pipeline) notifyState(s event.State) {
	p.mu.Lock()
	if p.lastState == s {
		p.mu.Unlock()
		return
	}
	p.lastState = s
	p.mu.Unlock()

	p.Router.PublishState(s)
	if p.listener != nil {
		p.listener(event.Packet{From: "pipeline", Type: event.ChangeState, Payload: s})
	}
}
