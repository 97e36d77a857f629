// Package events is a small in-process topic bus carrying sensor events from
// trigger handlers to their consumers. Topics are slash-separated paths such
// as "tmp007/0x40/sample". Subscriber queues are bounded and drop their oldest
// entry when full, so publishers never block.
package events

import (
	"strings"
	"sync"
)

// Topic is a parsed slash-separated path.
type Topic []string

// T splits a topic string.
func T(s string) Topic { return strings.Split(s, "/") }

func (t Topic) String() string { return strings.Join(t, "/") }

// Event is one publication. A retained event is kept at its topic and handed
// to later subscribers; a retained event with a nil Payload clears it.
type Event struct {
	Topic    Topic
	Payload  any
	Retained bool
}

type Subscription struct {
	topic Topic
	ch    chan *Event
	bus   *Bus
}

func (s *Subscription) Topic() Topic          { return s.topic }
func (s *Subscription) Events() <-chan *Event { return s.ch }
func (s *Subscription) Unsubscribe()          { s.bus.unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Event
}

// Bus routes events to subscribers of the exact topic.
type Bus struct {
	mu    sync.Mutex
	root  node
	qLen  int
	drops uint64
}

// New creates a bus whose subscriptions queue up to queueLen events.
func New(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{qLen: queueLen}
}

// walk returns the node for t, creating the path when create is set.
func (b *Bus) walk(t Topic, create bool) *node {
	n := &b.root
	for _, seg := range t {
		child, ok := n.children[seg]
		if !ok {
			if !create {
				return nil
			}
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			child = &node{}
			n.children[seg] = child
		}
		n = child
	}
	return n
}

func (b *Bus) Subscribe(t Topic) *Subscription {
	sub := &Subscription{topic: t, ch: make(chan *Event, b.qLen), bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.walk(t, true)
	n.subs = append(n.subs, sub)
	if n.retained != nil {
		sub.ch <- n.retained
	}
	return sub
}

// Publish delivers ev to current subscribers of its topic.
func (b *Bus) Publish(ev *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.walk(ev.Topic, ev.Retained)
	if n == nil {
		return
	}
	for _, sub := range n.subs {
		select {
		case sub.ch <- ev:
			continue
		default:
		}
		// Full: evict the oldest. The subscriber may drain concurrently, so
		// neither step may block.
		select {
		case <-sub.ch:
			b.drops++
		default:
		}
		select {
		case sub.ch <- ev:
		default:
			b.drops++
		}
	}
	if ev.Retained {
		if ev.Payload == nil {
			n.retained = nil
		} else {
			n.retained = ev
		}
	}
}

// Retained returns the event retained at t, if any.
func (b *Bus) Retained(t Topic) (*Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.walk(t, false)
	if n == nil || n.retained == nil {
		return nil, false
	}
	return n.retained, true
}

// Drops counts events discarded from full subscriber queues.
func (b *Bus) Drops() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drops
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.walk(sub.topic, false)
	if n == nil {
		return
	}
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			close(sub.ch)
			break
		}
	}
}
