package bus

import (
	"context"
	"log"
	"sync"
)

// MessageBus decouples the webhook receiver from the event processor and the
// processor from the comment poster. Both channels are buffered; a full
// inbound buffer backpressures the HTTP handler rather than dropping events.
type MessageBus struct {
	Inbound  chan Event
	Outbound chan OutboundComment

	mu          sync.RWMutex
	subscribers map[string]func(OutboundComment)
}

func NewMessageBus(bufSize int) *MessageBus {
	return &MessageBus{
		Inbound:     make(chan Event, bufSize),
		Outbound:    make(chan OutboundComment, bufSize),
		subscribers: make(map[string]func(OutboundComment)),
	}
}

// SubscribeOutbound registers a named consumer for outbound comments.
func (b *MessageBus) SubscribeOutbound(name string, fn func(OutboundComment)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[name] = fn
}

// DispatchOutbound fans outbound comments to every subscriber until the
// context is cancelled.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			subs := make([]func(OutboundComment), 0, len(b.subscribers))
			for _, fn := range b.subscribers {
				subs = append(subs, fn)
			}
			b.mu.RUnlock()
			if len(subs) == 0 {
				log.Printf("[bus] outbound comment dropped: no subscribers")
				continue
			}
			for _, fn := range subs {
				fn(msg)
			}
		case <-ctx.Done():
			return
		}
	}
}
