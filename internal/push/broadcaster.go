// Package push fans a notification out to every stored browser subscription
// through the Web Push protocol (VAPID). The subscriber list is self-healing:
// endpoints the provider reports gone are pruned on the spot.
package push

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/tlehoux/promofunnel/internal/database"
)

// Notification is the payload shown by the service worker.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Broadcaster sends Web Push notifications to all stored subscriptions.
type Broadcaster struct {
	db      *database.Service
	subject string
	public  string
	private string
	client  webpush.HTTPClient // injectable for tests
	log     *zap.Logger
}

func NewBroadcaster(db *database.Service, subject, vapidPublic, vapidPrivate string, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		db:      db,
		subject: subject,
		public:  vapidPublic,
		private: vapidPrivate,
		client:  &http.Client{},
		log:     log,
	}
}

// Broadcast sends the notification to every subscription and waits for all
// sends to finish. The returned count is the number of subscribers the
// message was dispatched to, not the number of confirmed deliveries: Web Push
// gives no delivery receipt, so callers must not read it as one.
//
// A 404 or 410 from the provider means the browser dropped the subscription;
// that row is deleted. Any other send failure is logged and swallowed so one
// bad subscriber cannot fail the whole broadcast.
func (b *Broadcaster) Broadcast(n Notification) (int, error) {
	subs, err := b.db.GetPushSubscriptions(b.db.DB())
	if err != nil {
		return 0, err
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *database.PushSubscription) {
			defer wg.Done()
			b.sendOne(sub, payload)
		}(sub)
	}
	wg.Wait()

	return len(subs), nil
}

func (b *Broadcaster) sendOne(sub *database.PushSubscription, payload []byte) {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      b.subject,
		VAPIDPublicKey:  b.public,
		VAPIDPrivateKey: b.private,
		TTL:             60 * 60 * 24,
		HTTPClient:      b.client,
	})
	if err != nil {
		b.log.Warn("push send failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if endpointGone(resp.StatusCode) {
		// The browser unsubscribed or the subscription expired: prune it.
		err := b.db.Write(func(tx *sql.Tx) error {
			return b.db.DeletePushSubscriptionByEndpoint(tx, sub.Endpoint)
		})
		if err != nil {
			b.log.Warn("could not prune dead subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
			return
		}
		b.log.Info("pruned dead push subscription", zap.String("endpoint", sub.Endpoint))
		return
	}

	if resp.StatusCode >= 400 {
		b.log.Warn("push provider rejected send",
			zap.String("endpoint", sub.Endpoint), zap.Int("status", resp.StatusCode))
	}
}

// endpointGone reports whether the provider status means the subscription no
// longer exists.
func endpointGone(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}
