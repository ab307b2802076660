// Package event implements the event fabric: lifecycle notifications
// routed upward to a pipeline's listener over a retained bus topic, and
// REPORT_INFO packets routed downstream through an element chain.
//
// The two directions route differently on purpose. Lifecycle state is
// pub/sub over a retained topic so a listener attached late still sees
// the current state. REPORT_INFO is not pub/sub at all: it needs strict
// element-order delivery with short-circuit on rejection, which a fan-out
// cannot express, so Router delivers that direction by direct sequential
// call.
package event

import (
	"sync"

	"gmf-go/bus"
	"gmf-go/errcode"
)

// PacketType distinguishes the two travel directions plus user-defined tags.
type PacketType int

const (
	ChangeState PacketType = iota
	ReportInfo
	UserEvent
)

// InfoKind distinguishes REPORT_INFO sub-kinds.
type InfoKind int

const (
	InfoNone InfoKind = iota
	InfoSound
	InfoVideo
	InfoFile
)

// State is a lifecycle state published via ChangeState packets.
type State int

const (
	StateNone State = iota
	StateStarted
	StateRunning
	StatePaused
	StateStopped
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "STARTED"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateStopped:
		return "STOPPED"
	case StateFinished:
		return "FINISHED"
	case StateError:
		return "ERROR"
	default:
		return "NONE"
	}
}

// Packet is the common envelope for both directions.
type Packet struct {
	From        string
	Type        PacketType
	Sub         InfoKind
	Payload     any
	PayloadSize int
}

// Receiver is implemented by an element for REPORT_INFO propagation:
// each downstream element is called in turn and may either update its
// pending config or reject the transition.
type Receiver interface {
	ReceiveEvent(pkt Packet) errcode.Code
}

// Router multiplexes one pipeline's lifecycle topic plus direct
// downstream REPORT_INFO delivery.
type Router struct {
	b    *bus.Bus
	name string

	mu   sync.Mutex
	subs []*bus.Subscription
}

// New creates a Router for a pipeline identified by name, used as the
// lifecycle topic key.
func New(name string) *Router {
	return &Router{b: bus.NewBus(4), name: name}
}

func (r *Router) lifecycleTopic() bus.Topic { return bus.T("pipeline", r.name, "lifecycle") }

// PublishState emits a retained ChangeState packet on the lifecycle
// topic, so a listener subscribing after the fact still observes the
// latest state.
func (r *Router) PublishState(s State) {
	pkt := Packet{From: r.name, Type: ChangeState, Payload: s}
	r.b.Publish(&bus.Message{Topic: r.lifecycleTopic(), Payload: pkt, Retained: true})
}

// SubscribeLifecycle returns a subscription a pipeline listener can range
// over for CHANGE_STATE packets.
func (r *Router) SubscribeLifecycle() *bus.Subscription {
	sub := r.b.Subscribe(r.lifecycleTopic())
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return sub
}

// DeliverReportInfo delivers pkt to each Receiver in order, stopping at
// the first rejection (any code other than errcode.OK).
func DeliverReportInfo(receivers []Receiver, pkt Packet) errcode.Code {
	pkt.Type = ReportInfo
	for _, rcv := range receivers {
		if rcv == nil {
			continue
		}
		if code := rcv.ReceiveEvent(pkt); code != errcode.OK {
			return code
		}
	}
	return errcode.OK
}

// Close tears down every subscription handed out by SubscribeLifecycle.
func (r *Router) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
