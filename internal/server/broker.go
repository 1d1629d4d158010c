package server

import (
	"encoding/json"
	"sync"
)

// sseMessage is one encoded event waiting to be written to a stream.
type sseMessage struct {
	Name string
	Data []byte
}

// Broker is an in-process pub/sub for SSE events, keyed by play session ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan sseMessage]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan sseMessage]struct{}),
	}
}

// Subscribe returns a channel that receives the events published on topic.
func (b *Broker) Subscribe(topic string) chan sseMessage {
	ch := make(chan sseMessage, 64)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan sseMessage]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the topic's subscribers.
func (b *Broker) Unsubscribe(topic string, ch chan sseMessage) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// Subscribers returns how many streams listen on topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Publish sends event to all subscribers of topic. The SSE event name comes
// from the event's EventName method, if it has one.
func (b *Broker) Publish(topic string, event any) {
	name := "message"
	if n, ok := event.(interface{ EventName() string }); ok {
		name = n.EventName()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	msg := sseMessage{Name: name, Data: data}

	b.mu.RLock()
	for ch := range b.subs[topic] {
		select {
		case ch <- msg:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
