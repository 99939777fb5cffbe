package cache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RevalidateRequest is the wire format of the cross-deployment revalidation
// webhook: which tags and paths should be dropped.
type RevalidateRequest struct {
	Tags  []string `json:"tags,omitempty"`
	Paths []string `json:"paths,omitempty"`
}

// Revalidator bridges admin content mutations to cache invalidation. Every
// mutation invalidates the local store; when a peer URL and shared secret are
// configured it also notifies the peer deployment so its cache drops the same
// entries.
type Revalidator struct {
	store   *Store
	peerURL string
	secret  string
	client  *http.Client
	log     *zap.Logger
}

func NewRevalidator(store *Store, peerURL, secret string, log *zap.Logger) *Revalidator {
	return &Revalidator{
		store:   store,
		peerURL: peerURL,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// Store exposes the underlying cache for read-through handlers.
func (r *Revalidator) Store() *Store {
	return r.store
}

// ContentChanged is called after any successful admin content mutation. The
// local invalidation is synchronous; the peer notification runs in the
// background because a slow or dead peer must never delay the admin response.
func (r *Revalidator) ContentChanged(tags ...string) {
	removed := r.store.InvalidateTags(tags...)
	r.log.Debug("cache invalidated", zap.Strings("tags", tags), zap.Int("removed", removed))

	if r.peerURL == "" || r.secret == "" {
		return
	}
	go r.notifyPeer(RevalidateRequest{Tags: tags})
}

// Apply performs an invalidation request received from a peer (or issued
// locally through the admin endpoint).
func (r *Revalidator) Apply(req RevalidateRequest) int {
	removed := 0
	if len(req.Tags) > 0 {
		removed += r.store.InvalidateTags(req.Tags...)
	}
	if len(req.Paths) > 0 {
		removed += r.store.InvalidatePaths(req.Paths...)
	}
	return removed
}

func (r *Revalidator) notifyPeer(reqBody RevalidateRequest) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		r.log.Error("could not marshal revalidation request", zap.Error(err))
		return
	}

	req, err := http.NewRequest(http.MethodPost, r.peerURL, bytes.NewReader(payload))
	if err != nil {
		r.log.Error("could not build revalidation request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.secret)

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("revalidation webhook failed", zap.String("url", r.peerURL), zap.Error(err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Warn("revalidation webhook rejected", zap.String("url", r.peerURL), zap.Int("status", resp.StatusCode))
	}
}
