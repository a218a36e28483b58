package api

import (
	"sync"
)

// Event is a message fanned out to stream subscribers.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

const (
	TopicSnapshot = "snapshot"
	TopicAlert    = "alert"
)

type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil { b.subs[topic] = map[chan Event]struct{}{} }
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[topic]; m != nil {
		delete(m, ch)
		if len(m) == 0 { delete(b.subs, topic) }
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(topic string, evt Event) {
	b.mu.Lock()
	m := b.subs[topic]
	for ch := range m {
		select { case ch <- evt: default: }
	}
	b.mu.Unlock()
}
