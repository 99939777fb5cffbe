package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStore(t *testing.T) {
	t.Run("get after set", func(t *testing.T) {
		s := NewStore()
		s.Set("/api/public/home", []byte(`{"ok":true}`), "content:testimonials", "settings:promo")

		data, ok := s.Get("/api/public/home")
		if !ok {
			t.Fatal("entry missing after Set")
		}
		if string(data) != `{"ok":true}` {
			t.Errorf("payload = %s", data)
		}
	})

	t.Run("tag invalidation drops dependent entries only", func(t *testing.T) {
		s := NewStore()
		s.Set("/home", []byte("a"), "content:testimonials")
		s.Set("/videos", []byte("b"), "content:videos")

		if removed := s.InvalidateTags("content:testimonials"); removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}
		if _, ok := s.Get("/home"); ok {
			t.Error("/home still cached after its tag was invalidated")
		}
		if _, ok := s.Get("/videos"); !ok {
			t.Error("/videos dropped although its tag was untouched")
		}
	})

	t.Run("path invalidation", func(t *testing.T) {
		s := NewStore()
		s.Set("/home", []byte("a"), "content:testimonials")

		if removed := s.InvalidatePaths("/home", "/missing"); removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}
		if s.Len() != 0 {
			t.Errorf("Len = %d, want 0", s.Len())
		}
	})

	t.Run("re-set detaches old tags", func(t *testing.T) {
		s := NewStore()
		s.Set("/home", []byte("a"), "content:old")
		s.Set("/home", []byte("b"), "content:new")

		if removed := s.InvalidateTags("content:old"); removed != 0 {
			t.Errorf("stale tag still attached, removed = %d", removed)
		}
		if data, _ := s.Get("/home"); string(data) != "b" {
			t.Errorf("payload = %s, want b", data)
		}
	})

	t.Run("unknown tag is a no-op", func(t *testing.T) {
		s := NewStore()
		if removed := s.InvalidateTags("nope"); removed != 0 {
			t.Errorf("removed = %d, want 0", removed)
		}
	})
}

func TestRevalidator(t *testing.T) {
	t.Run("local invalidation without a peer", func(t *testing.T) {
		store := NewStore()
		store.Set("/home", []byte("x"), "content:videos")

		r := NewRevalidator(store, "", "", zap.NewNop())
		r.ContentChanged("content:videos")

		if _, ok := store.Get("/home"); ok {
			t.Error("entry survived ContentChanged")
		}
	})

	t.Run("peer is notified with the shared secret", func(t *testing.T) {
		received := make(chan *http.Request, 1)
		peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			received <- req.Clone(req.Context())
			w.WriteHeader(http.StatusOK)
		}))
		defer peer.Close()

		r := NewRevalidator(NewStore(), peer.URL, "s3cret", zap.NewNop())
		r.ContentChanged("content:videos")

		select {
		case req := <-received:
			if got := req.Header.Get("Authorization"); got != "Bearer s3cret" {
				t.Errorf("Authorization = %q", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("peer never notified")
		}
	})

	t.Run("apply handles tags and paths", func(t *testing.T) {
		store := NewStore()
		store.Set("/home", []byte("x"), "content:videos")
		store.Set("/promo", []byte("y"), "settings:promo")

		r := NewRevalidator(store, "", "", zap.NewNop())
		removed := r.Apply(RevalidateRequest{Tags: []string{"content:videos"}, Paths: []string{"/promo"}})
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}
	})
}
