// Package task implements the per-pipeline job scheduler: one goroutine
// draining a prioritized job queue, interpreting each element's
// open/process/close return code into the next job to enqueue. Pause and
// stop latches take effect at job boundaries, never mid-element.
package task

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/event"
	"gmf-go/oal"
)

// Job is one scheduled unit of work: an element, a phase, and an
// optional argument.
type Job struct {
	El       *element.Element
	Phase    element.JobPhase
	Argument any // e.g. the terminal state a CLOSE job follows
	priority int // lower runs first: Open < Process < Close
	seq      int64
}

type jobHeap []*Job

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)        { *h = append(*h, x.(*Job)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	*h = old[:n-1]
	return j
}

func phasePriority(phase element.JobPhase) int {
	switch phase {
	case element.PhaseOpen:
		return 0
	case element.PhaseProcess:
		return 1
	default: // PhaseClose
		return 2
	}
}

// StateCallback is invoked as elements transition, letting a pipeline
// relay CHANGE_STATE onto its event.Router.
type StateCallback func(el *element.Element, s event.State)

// Task runs one pipeline's job queue on a dedicated goroutine.
type Task struct {
	mu      sync.Mutex
	jobs    jobHeap
	seq     int64
	wake    chan struct{}
	onState StateCallback
	logger  oal.Logger

	paused  atomic.Bool
	stopped atomic.Bool
	done    chan struct{}

	thread oal.Thread
}

// New returns a Task bound to a state-change callback and logger.
func New(onState StateCallback, logger oal.Logger) *Task {
	if logger == nil {
		logger = oal.DefaultLogger{}
	}
	t := &Task{onState: onState, logger: logger, wake: make(chan struct{}, 1), done: make(chan struct{})}
	heap.Init(&t.jobs)
	return t
}

// Enqueue adds a job and wakes the loop.
func (t *Task) Enqueue(el *element.Element, phase element.JobPhase) {
	t.EnqueueWithArg(el, phase, nil)
}

// EnqueueWithArg is Enqueue plus a job argument, used to carry the
// terminal state a CLOSE job should report once run.
func (t *Task) EnqueueWithArg(el *element.Element, phase element.JobPhase, arg any) {
	t.mu.Lock()
	t.seq++
	heap.Push(&t.jobs, &Job{El: el, Phase: phase, Argument: arg, priority: phasePriority(phase), seq: t.seq})
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Task) popJob() (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.jobs.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&t.jobs).(*Job), true
}

// Bind starts the scheduler loop on thread, which must support Start
// with a context-aware entry point (stack size, priority, core affinity,
// and name all live in oal.ThreadConfig). A Task may be
// re-bound after Destroy (a pipeline reset-then-run cycle); each Bind gets
// a fresh completion channel.
func (t *Task) Bind(thread oal.Thread, cfg oal.ThreadConfig) {
	t.done = make(chan struct{})
	t.thread = thread
	thread.Start(cfg, t.run)
}

func (t *Task) run(ctx context.Context) {
	defer close(t.done)
	for {
		if t.stopped.Load() {
			return
		}
		if t.paused.Load() {
			select {
			case <-ctx.Done():
				return
			case <-t.wake:
			}
			continue
		}
		job, ok := t.popJob()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-t.wake:
			}
			continue
		}
		t.runJob(job)
	}
}

func (t *Task) runJob(job *Job) {
	el := job.El
	switch job.Phase {
	case element.PhaseOpen:
		code := el.Open()
		if code == errcode.JobOK {
			t.notify(el, event.StateRunning)
			t.Enqueue(el, element.PhaseProcess)
			return
		}
		el.SetState(element.StateError)
		t.notify(el, event.StateError)
		t.EnqueueWithArg(el, element.PhaseClose, event.StateError)

	case element.PhaseProcess:
		code := el.Process()
		switch code {
		case errcode.JobOK, errcode.JobContinue, errcode.JobTruncate:
			// TRUNCATE re-runs Process without another acquire; the
			// element's own Process body is responsible for draining its
			// cache first, so scheduling is identical to CONTINUE here.
			t.Enqueue(el, element.PhaseProcess)
		case errcode.JobDone:
			el.SetState(element.StateFinished)
			t.notify(el, event.StateFinished)
			t.EnqueueWithArg(el, element.PhaseClose, event.StateFinished)
		default: // JobFail or anything unrecognized
			el.SetState(element.StateError)
			t.notify(el, event.StateError)
			t.EnqueueWithArg(el, element.PhaseClose, event.StateError)
		}

	case element.PhaseClose:
		el.Close()
		el.ChangeJobMask(element.JobClosePending, false)
		if job.Argument == nil {
			// A CLOSE with no recorded terminal state came from an external
			// stop rather than the element's own DONE/FAIL path.
			el.SetState(element.StateStopped)
			t.notify(el, event.StateStopped)
		}
	}
}

func (t *Task) notify(el *element.Element, s event.State) {
	if t.onState != nil {
		t.onState(el, s)
	}
}

// Pause suspends the loop at the next job boundary (never mid-process).
func (t *Task) Pause() { t.paused.Store(true) }

// Resume clears the pause latch and wakes the loop.
func (t *Task) Resume() {
	t.paused.Store(false)
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Stop marks the loop for exit; the caller is expected to have already
// called Abort on every bound bus so in-flight acquires unblock.
func (t *Task) Stop() {
	t.stopped.Store(true)
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Destroy stops the underlying thread and waits for the loop to exit.
func (t *Task) Destroy() {
	if t.thread != nil {
		t.thread.Stop()
	}
	<-t.done
}

// Reset clears the stop and pause latches so a re-bound thread can run
// the queue again after a completed or stopped cycle.
func (t *Task) Reset() {
	t.stopped.Store(false)
	t.paused.Store(false)
}

// Pending reports whether any job remains queued.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobs.Len() > 0
}
