package realtime

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func TestBroker(t *testing.T) {
	t.Run("publish reaches all subscribers", func(t *testing.T) {
		b := NewBroker(zap.NewNop())
		_, ch1 := b.Subscribe()
		_, ch2 := b.Subscribe()

		b.Publish("content:testimonials")

		for i, ch := range []chan []byte{ch1, ch2} {
			select {
			case raw := <-ch:
				var msg Message
				if err := json.Unmarshal(raw, &msg); err != nil {
					t.Fatalf("client %d: bad payload: %v", i, err)
				}
				if msg.Topic != "content:testimonials" {
					t.Errorf("client %d: topic = %q", i, msg.Topic)
				}
			default:
				t.Fatalf("client %d received nothing", i)
			}
		}
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		b := NewBroker(zap.NewNop())
		id, ch := b.Subscribe()
		b.Unsubscribe(id)

		if _, open := <-ch; open {
			t.Error("channel still open after Unsubscribe")
		}
		if b.ClientCount() != 0 {
			t.Errorf("ClientCount = %d, want 0", b.ClientCount())
		}

		// A second unsubscribe must be a harmless no-op.
		b.Unsubscribe(id)
	})

	t.Run("slow client does not block publish", func(t *testing.T) {
		b := NewBroker(zap.NewNop())
		b.Subscribe() // never drained

		// More messages than the channel buffer holds; Publish must not hang.
		for i := 0; i < 50; i++ {
			b.Publish("settings:promo")
		}
	})
}
