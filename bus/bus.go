// Package bus is the retained-topic message channel under the event
// fabric: each pipeline publishes its lifecycle state onto one topic, and
// retention means a listener attached after a transition still observes
// the latest state. Topics are flat strings with no pattern matching,
// because every publisher and subscriber names its topic exactly.
package bus

import (
	"strings"
	"sync"
)

var defaultQLen = 3

// Topic identifies one message stream, e.g. "pipeline/p1/lifecycle".
type Topic string

// T joins path segments into a Topic.
func T(segments ...string) Topic {
	return Topic(strings.Join(segments, "/"))
}

// Message is one published unit. A Retained message with a nil Payload
// clears the retained slot for its topic.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

// Subscription is one listener's queue on a topic.
type Subscription struct {
	topic  Topic
	ch     chan *Message
	bus    *Bus
	closed bool
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }

// Unsubscribe detaches the subscription and closes its channel.
func (s *Subscription) Unsubscribe() { s.bus.unsubscribe(s) }

// Bus routes messages by exact topic.
type Bus struct {
	mu       sync.Mutex
	qLen     int
	subs     map[Topic][]*Subscription
	retained map[Topic]*Message
}

// NewBus returns a Bus with the given per-subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = defaultQLen
	}
	return &Bus{
		qLen:     queueLen,
		subs:     map[Topic][]*Subscription{},
		retained: map[Topic]*Message{},
	}
}

// Publish routes msg to every subscription on its topic and updates
// retained storage. Delivery never blocks the publisher: a full
// subscription queue sheds its oldest message first, so a slow listener
// sees the newest states, which is what lifecycle observation needs.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	if msg.Retained {
		if msg.Payload == nil {
			delete(b.retained, msg.Topic)
		} else {
			b.retained[msg.Topic] = msg
		}
	}
	subs := append([]*Subscription(nil), b.subs[msg.Topic]...)
	b.mu.Unlock()

	for _, sub := range subs {
		deliver(sub.ch, msg)
	}
}

// Subscribe attaches a queue to topic. The topic's retained message, if
// any, is delivered before anything published later.
func (b *Bus) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan *Message, b.qLen), bus: b}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	rm := b.retained[topic]
	b.mu.Unlock()

	if rm != nil {
		deliver(sub.ch, rm)
	}
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	list := b.subs[sub.topic]
	for i, s := range list {
		if s == sub {
			b.subs[sub.topic] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.topic]) == 0 {
		delete(b.subs, sub.topic)
	}
	wasClosed := sub.closed
	sub.closed = true
	b.mu.Unlock()

	if !wasClosed {
		close(sub.ch)
	}
}

// deliver makes at most two attempts: send, and if the queue is full,
// shed the oldest message and send again. The channel may be closed by a
// concurrent Unsubscribe, so delivery is best-effort.
func deliver(ch chan *Message, m *Message) {
	defer func() { _ = recover() }()
	select {
	case ch <- m:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- m:
	default:
	}
}
