// Package realtime implements the live-sync channel: after an admin mutates
// content, every connected page (other admin tabs, the public landing page)
// receives the topic that changed and refetches its data. This is a
// best-effort refresh signal, not a delivery-guaranteed event stream;
// subscribers always reload full state rather than applying deltas, so
// dropped or reordered messages are harmless.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Message is the shape of one live-sync notification.
type Message struct {
	Topic string `json:"topic"` // e.g. "content:testimonials", "settings:promo"
}

// Broker is the central hub for managing SSE client connections.
type Broker struct {
	mu      sync.RWMutex
	nextID  int64
	clients map[int64]chan []byte
	log     *zap.Logger
}

func NewBroker(log *zap.Logger) *Broker {
	return &Broker{
		clients: make(map[int64]chan []byte),
		log:     log,
	}
}

// Subscribe registers a new client connection and returns its id together
// with the channel its messages arrive on.
func (b *Broker) Subscribe() (int64, chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan []byte, 10)
	b.clients[id] = ch
	b.log.Debug("live-sync client connected", zap.Int64("client", id))
	return id, ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(ch)
		b.log.Debug("live-sync client disconnected", zap.Int64("client", id))
	}
}

// Publish broadcasts a topic to every connected client. Sends are
// non-blocking: a client whose buffer is full simply misses this signal and
// will catch up on its next refetch.
func (b *Broker) Publish(topic string) {
	payload, err := json.Marshal(Message{Topic: topic})
	if err != nil {
		b.log.Error("could not marshal live-sync message", zap.Error(err))
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.clients {
		select {
		case ch <- payload:
		default:
			b.log.Debug("live-sync channel full, dropping message", zap.Int64("client", id), zap.String("topic", topic))
		}
	}
}

// ClientCount reports how many clients are currently connected.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
