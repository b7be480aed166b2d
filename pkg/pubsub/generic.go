package pubsub

import (
	"sync"
)

// subscriberBuffer is how many messages a slow subscriber may lag behind
// before further messages to it are dropped.
const subscriberBuffer = 16

type PubSub[T any] struct {
	mu   sync.Mutex
	subs map[string][]chan T
}

func NewPubSub[T any]() *PubSub[T] {
	return &PubSub[T]{
		subs: make(map[string][]chan T),
	}
}

func (ps *PubSub[T]) Subscribe(topic string) <-chan T {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ch := make(chan T, subscriberBuffer)
	ps.subs[topic] = append(ps.subs[topic], ch)
	return ch
}

// Unsubscribe removes ch from topic and closes it.
func (ps *PubSub[T]) Unsubscribe(topic string, ch <-chan T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	subs := ps.subs[topic]
	for i, c := range subs {
		if c == ch {
			close(c)
			ps.subs[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(ps.subs[topic]) == 0 {
		delete(ps.subs, topic)
	}
}

// Publish never blocks: a subscriber whose buffer is full misses data.
func (ps *PubSub[T]) Publish(topic string, data T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
		default:
		}
	}
}

func (ps *PubSub[T]) Subscribers(topic string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.subs[topic])
}
