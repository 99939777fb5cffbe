package api

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tlehoux/promofunnel/internal/auth"
	"github.com/tlehoux/promofunnel/internal/cache"
	"github.com/tlehoux/promofunnel/internal/config"
	"github.com/tlehoux/promofunnel/internal/database"
	"github.com/tlehoux/promofunnel/internal/email"
	"github.com/tlehoux/promofunnel/internal/push"
	"github.com/tlehoux/promofunnel/internal/realtime"
)

const testSecret = "test-jwt-secret"
const testRevalidateSecret = "test-revalidate-secret"

// newTestServer builds a fully wired server on a throwaway database, with
// email disabled and no revalidation peer.
func newTestServer(t *testing.T) (*Server, *chi.Mux, *database.Service) {
	t.Helper()

	log := zap.NewNop()

	db, err := database.NewService(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	frontendURL, _ := url.Parse("http://localhost:3000")
	cfg := &config.Config{
		JwtSecret:         testSecret,
		RevalidateSecret:  testRevalidateSecret,
		FrontendURL:       frontendURL.String(),
		ParsedFrontendURL: frontendURL,
		UploadPath:        t.TempDir(),
	}

	server := NewServer(
		cfg,
		db,
		cache.NewRevalidator(cache.NewStore(), "", testRevalidateSecret, log),
		realtime.NewBroker(log),
		push.NewBroadcaster(db, "mailto:test@localhost", "", "", log),
		email.NewService(email.SMTPServerConfig{}),
		log,
	)

	router := chi.NewRouter()
	server.RegisterRoutes(router)
	return server, router, db
}

// adminToken mints a session token the adminOnly middleware accepts.
func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateSessionToken(1, "admin@test.fr", "Admin", "admin", testSecret)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	return token
}

func doJSON(t *testing.T, router *chi.Mux, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestTrackEvent(t *testing.T) {
	_, router, db := newTestServer(t)

	t.Run("records an enriched event", func(t *testing.T) {
		raw, _ := json.Marshal(map[string]interface{}{
			"type":      "page_view",
			"sessionId": "sess-1",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/605.1")
		req.Header.Set("Referer", "https://instagram.com/some-post")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["success"] != true {
			t.Errorf("success = %v, want true", body["success"])
		}

		id := int64(body["eventId"].(float64))
		event, err := db.GetEventByID(db.DB(), id)
		if err != nil {
			t.Fatalf("GetEventByID: %v", err)
		}
		if event.Device != "mobile" {
			t.Errorf("device = %q, want mobile", event.Device)
		}
		if event.Browser != "Safari" {
			t.Errorf("browser = %q, want Safari", event.Browser)
		}
		if event.Source.String != "https://instagram.com/some-post" {
			t.Errorf("source = %q, want the referer", event.Source.String)
		}
	})

	t.Run("rejects a missing type", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/track", "", map[string]string{"sessionId": "s"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects an unparsable body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAdminAuth(t *testing.T) {
	_, router, db := newTestServer(t)

	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := db.SeedDefaultAdmin("admin@test.fr", hash, "Admin"); err != nil {
		t.Fatalf("SeedDefaultAdmin: %v", err)
	}

	t.Run("login sets the session cookie", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/admin/login", "", map[string]string{
			"email":    "admin@test.fr",
			"password": "correct-horse",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		var sessionCookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == sessionCookieName {
				sessionCookie = c
			}
		}
		if sessionCookie == nil || sessionCookie.Value == "" {
			t.Fatal("no session cookie set")
		}
		if !sessionCookie.HttpOnly {
			t.Error("session cookie is not HttpOnly")
		}

		claims, err := auth.ValidateSessionToken(sessionCookie.Value, testSecret)
		if err != nil {
			t.Fatalf("cookie does not hold a valid token: %v", err)
		}
		if claims.Email != "admin@test.fr" {
			t.Errorf("claims email = %q", claims.Email)
		}
	})

	t.Run("wrong password is a 401", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/admin/login", "", map[string]string{
			"email":    "admin@test.fr",
			"password": "wrong",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown email answers like a wrong password", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/admin/login", "", map[string]string{
			"email":    "nobody@test.fr",
			"password": "whatever",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("admin routes reject anonymous requests", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/admin/stats", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestTestimonialModeration(t *testing.T) {
	_, router, _ := newTestServer(t)
	token := adminToken(t)

	// A public submission starts inactive.
	rec := doJSON(t, router, http.MethodPost, "/api/testimonials", "", map[string]interface{}{
		"name":     "Karim",
		"text":     "J'ai gagné 500€ dès la première semaine",
		"rating":   5,
		"isActive": true, // the client cannot self-approve
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["testimonial"].(map[string]interface{})
	if created["isActive"] != false {
		t.Fatalf("public submission isActive = %v, want false", created["isActive"])
	}
	id := int64(created["id"].(float64))

	// It does not appear on the landing page yet.
	rec = doJSON(t, router, http.MethodGet, "/api/public/home", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("home status = %d", rec.Code)
	}
	home := decodeBody(t, rec)
	if got := len(home["testimonials"].([]interface{})); got != 0 {
		t.Fatalf("landing page shows %d testimonials before approval", got)
	}

	// The moderation list does show it.
	rec = doJSON(t, router, http.MethodGet, "/api/admin/testimonials", token, nil)
	if got := len(decodeBody(t, rec)["testimonials"].([]interface{})); got != 1 {
		t.Fatalf("moderation list has %d entries, want 1", got)
	}

	// Approving it makes it public.
	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/testimonials/%d", id), token, map[string]interface{}{
		"name":     "Karim",
		"text":     "J'ai gagné 500€ dès la première semaine",
		"rating":   5,
		"isActive": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/public/home", "", nil)
	home = decodeBody(t, rec)
	if got := len(home["testimonials"].([]interface{})); got != 1 {
		t.Fatalf("landing page shows %d testimonials after approval, want 1", got)
	}
}

func TestPublicHomeCaching(t *testing.T) {
	server, router, _ := newTestServer(t)
	token := adminToken(t)

	first := doJSON(t, router, http.MethodGet, "/api/public/home", "", nil)
	if first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first hit X-Cache = %q, want MISS", first.Header().Get("X-Cache"))
	}
	second := doJSON(t, router, http.MethodGet, "/api/public/home", "", nil)
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second hit X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}

	// A content mutation drops the cached payload.
	rec := doJSON(t, router, http.MethodPut, "/api/admin/promo-code", token, map[string]string{"code": "BONUS200"})
	if rec.Code != http.StatusOK {
		t.Fatalf("promo code status = %d: %s", rec.Code, rec.Body.String())
	}
	if server.revalidator.Store().Len() != 0 {
		t.Fatal("cache still holds entries after a content mutation")
	}

	third := doJSON(t, router, http.MethodGet, "/api/public/home", "", nil)
	if third.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("post-mutation hit X-Cache = %q, want MISS", third.Header().Get("X-Cache"))
	}
	if !strings.Contains(third.Body.String(), "BONUS200") {
		t.Error("rebuilt payload does not carry the new promo code")
	}
}

func TestRevalidateEndpoint(t *testing.T) {
	server, router, _ := newTestServer(t)

	seed := func() {
		server.revalidator.Store().Set("/api/public/home", []byte("{}"), topicPromo)
	}

	t.Run("wrong secret is a 401 and invalidates nothing", func(t *testing.T) {
		seed()
		rec := doJSON(t, router, http.MethodPost, "/api/admin/revalidate", "wrong-secret", map[string]interface{}{
			"tags": []string{topicPromo},
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if server.revalidator.Store().Len() != 1 {
			t.Error("cache was invalidated despite the bad secret")
		}
	})

	t.Run("missing header is a 401", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/admin/revalidate", "", map[string]interface{}{
			"tags": []string{topicPromo},
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("correct secret invalidates by tag", func(t *testing.T) {
		seed()
		rec := doJSON(t, router, http.MethodPost, "/api/admin/revalidate", testRevalidateSecret, map[string]interface{}{
			"tags": []string{topicPromo},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if server.revalidator.Store().Len() != 0 {
			t.Error("cache entry survived revalidation")
		}
	})
}

func TestSubscribeTwice(t *testing.T) {
	_, router, db := newTestServer(t)

	payload := map[string]interface{}{
		"endpoint": "https://push.example.com/sub/abc",
		"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
	}

	rec := doJSON(t, router, http.MethodPost, "/api/subscribe", "", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first subscribe status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/subscribe", "", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate subscribe status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	count, err := db.CountPushSubscriptions(db.DB())
	if err != nil {
		t.Fatalf("CountPushSubscriptions: %v", err)
	}
	if count != 1 {
		t.Errorf("subscription count = %d, want 1", count)
	}
}

func TestExportLeadsCSV(t *testing.T) {
	_, router, _ := newTestServer(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/users", token, map[string]string{
		"email":  "lead@test.fr",
		"phone":  "+33 6 12 34 56 78",
		"source": "instagram, story", // the comma must survive the round trip
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lead status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/admin/export/users", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("re-parsing exported CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("CSV has %d rows, want header + 1", len(records))
	}
	row := records[1]
	if row[0] != "lead@test.fr" {
		t.Errorf("email column = %q", row[0])
	}
	if row[3] != "instagram, story" {
		t.Errorf("comma-containing source did not round-trip: %q", row[3])
	}
}

func TestBroadcastLifecycle(t *testing.T) {
	_, router, db := newTestServer(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/broadcast", token, map[string]string{
		"message": "Nouveau code promo disponible !",
		"level":   "success",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("broadcast status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["notification"].(map[string]interface{})
	id := int64(created["id"].(float64))

	// Server-originated events carry the column defaults, never empty strings.
	stored, err := db.GetEventByID(db.DB(), id)
	if err != nil {
		t.Fatalf("GetEventByID: %v", err)
	}
	if stored.Device != "desktop" || stored.Browser != "unknown" {
		t.Errorf("broadcast stored with device=%q browser=%q", stored.Device, stored.Browser)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/notifications/active", "", nil)
	notifications := decodeBody(t, rec)["notifications"].([]interface{})
	if len(notifications) != 1 {
		t.Fatalf("active notifications = %d, want 1", len(notifications))
	}
	first := notifications[0].(map[string]interface{})
	if first["message"] != "Nouveau code promo disponible !" {
		t.Errorf("message = %v", first["message"])
	}
	if first["level"] != "success" {
		t.Errorf("level = %v", first["level"])
	}
	if first["read"] != false {
		t.Errorf("read = %v, want false", first["read"])
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", id), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/notifications/active", "", nil)
	notifications = decodeBody(t, rec)["notifications"].([]interface{})
	if notifications[0].(map[string]interface{})["read"] != true {
		t.Error("broadcast not marked read")
	}

	// The read endpoint only reaches broadcasts; tracked events stay immutable.
	var tracked *database.Event
	err = db.Write(func(tx *sql.Tx) error {
		tracked, err = db.InsertEvent(tx, &database.Event{
			Type:     database.EventPageView,
			Device:   "mobile",
			Browser:  "Chrome",
			Metadata: `{"page":"/"}`,
		})
		return err
	})
	if err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", tracked.ID), "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("mark read on tracked event status = %d, want 404", rec.Code)
	}
}

func TestScreenshotVisibilityFlags(t *testing.T) {
	_, router, _ := newTestServer(t)
	token := adminToken(t)

	allOff := false
	raw, _ := json.Marshal(map[string]interface{}{
		"name":        "Sarah",
		"message":     "Incroyable, merci !",
		"amount":      "750€",
		"time":        "14:32",
		"imageUrl":    "/public/uploads/win.png",
		"showName":    allOff,
		"showMessage": allOff,
		"showAmount":  allOff,
		"showTime":    allOff,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/screenshots", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	// The public payload must carry only the image for this entry: every
	// text field is hidden.
	rec = doJSON(t, router, http.MethodGet, "/api/public/home", "", nil)
	screenshots := decodeBody(t, rec)["screenshots"].([]interface{})
	if len(screenshots) != 1 {
		t.Fatalf("public screenshots = %d, want 1", len(screenshots))
	}
	entry := screenshots[0].(map[string]interface{})
	for _, hidden := range []string{"name", "message", "amount", "time"} {
		if _, present := entry[hidden]; present {
			t.Errorf("hidden field %q is present in the public payload", hidden)
		}
	}
	if entry["imageUrl"] != "/public/uploads/win.png" {
		t.Errorf("imageUrl = %v", entry["imageUrl"])
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	_, router, _ := newTestServer(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPut, "/api/admin/settings", token, map[string]string{
		settingTutorialVideoID: "dQw4w9WgXcQ",
		settingMemberAvatars:   `["/public/uploads/a.png","/public/uploads/b.png"]`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set settings status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/admin/settings", token, nil)
	settings := decodeBody(t, rec)["settings"].(map[string]interface{})
	if settings[settingTutorialVideoID] != "dQw4w9WgXcQ" {
		t.Errorf("tutorial video id = %v", settings[settingTutorialVideoID])
	}

	// The public payload surfaces both values.
	rec = doJSON(t, router, http.MethodGet, "/api/public/home", "", nil)
	home := decodeBody(t, rec)
	if home["tutorialVideoId"] != "dQw4w9WgXcQ" {
		t.Errorf("public tutorialVideoId = %v", home["tutorialVideoId"])
	}
	if avatars := home["memberAvatars"].([]interface{}); len(avatars) != 2 {
		t.Errorf("memberAvatars = %v", home["memberAvatars"])
	}
}

func TestSignupCreatesLeadAndEvent(t *testing.T) {
	_, router, db := newTestServer(t)
	token := adminToken(t)

	// An active promo code gets stamped on the lead.
	rec := doJSON(t, router, http.MethodPut, "/api/admin/promo-code", token, map[string]string{"code": "WELCOME50"})
	if rec.Code != http.StatusOK {
		t.Fatalf("promo code status = %d", rec.Code)
	}

	raw, _ := json.Marshal(map[string]string{"email": "new@test.fr", "phone": "0612345678"})
	req := httptest.NewRequest(http.MethodPost, "/api/signup", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}

	lead := decodeBody(t, rec)["lead"].(map[string]interface{})
	if lead["promoCode"] != "WELCOME50" {
		t.Errorf("lead promoCode = %v, want WELCOME50", lead["promoCode"])
	}
	if lead["device"] != "desktop" {
		t.Errorf("lead device = %v", lead["device"])
	}
	if lead["status"] != "new" {
		t.Errorf("lead status = %v", lead["status"])
	}

	t.Run("rejects a bad email", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/signup", "", map[string]string{"email": "not-an-email"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	events, err := db.GetAllEvents(db.DB())
	if err != nil {
		t.Fatalf("GetAllEvents: %v", err)
	}
	var signupClicks int
	for _, e := range events {
		if e.Type == database.EventSignupClick {
			signupClicks++
		}
	}
	if signupClicks != 1 {
		t.Errorf("signup_click events = %d, want 1", signupClicks)
	}
}

func TestUpdateLead(t *testing.T) {
	_, router, _ := newTestServer(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPost, "/api/admin/users", token, map[string]string{
		"email":  "prospect@test.fr",
		"status": "new",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["user"].(map[string]interface{})
	id := int64(created["id"].(float64))

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", id), token, map[string]string{
		"email":  "prospect@test.fr",
		"status": "contacted",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody(t, rec)["user"].(map[string]interface{})
	if updated["status"] != "contacted" {
		t.Errorf("status = %v, want contacted", updated["status"])
	}

	t.Run("keeps the status when the body omits it", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", id), token, map[string]string{
			"email": "prospect@test.fr",
			"phone": "+33612345678",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)["user"].(map[string]interface{})
		if body["status"] != "contacted" {
			t.Errorf("status = %v, want contacted", body["status"])
		}
		if body["phone"] != "+33612345678" {
			t.Errorf("phone = %v", body["phone"])
		}
	})

	t.Run("answers 404 for an unknown lead", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/api/admin/users/9999", token, map[string]string{
			"email":  "prospect@test.fr",
			"status": "converted",
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestMutationErrorsKeepTheirStatus(t *testing.T) {
	_, router, db := newTestServer(t)
	token := adminToken(t)

	rec := doJSON(t, router, http.MethodPut, "/api/admin/videos/1", token, map[string]interface{}{
		"title": "Tuto retrait",
		"url":   "https://cdn.test.fr/tuto.mp4",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing row status = %d, want 404: %s", rec.Code, rec.Body.String())
	}

	// A database failure is not a missing row.
	db.Close()
	rec = doJSON(t, router, http.MethodPut, "/api/admin/videos/1", token, map[string]interface{}{
		"title": "Tuto retrait",
		"url":   "https://cdn.test.fr/tuto.mp4",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("closed database status = %d, want 500: %s", rec.Code, rec.Body.String())
	}
}

func TestGoogleCallback(t *testing.T) {
	t.Run("answers 503 when sign-in is not configured", func(t *testing.T) {
		server, _, _ := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/auth/google/callback?state=x&code=y", nil)
		req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "x"})
		rec := httptest.NewRecorder()
		server.handleGoogleCallback(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("rejects a state mismatch", func(t *testing.T) {
		server, _, _ := newTestServer(t)
		server.oauth = &oauth2.Config{ClientID: "id", ClientSecret: "secret"}

		req := httptest.NewRequest(http.MethodGet, "/api/admin/auth/google/callback?state=other&code=y", nil)
		req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "x"})
		rec := httptest.NewRecorder()
		server.handleGoogleCallback(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("reports a failed token exchange", func(t *testing.T) {
		server, _, _ := newTestServer(t)

		stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid_grant", http.StatusBadRequest)
		}))
		defer stub.Close()
		server.oauth = &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: stub.URL, TokenURL: stub.URL},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/admin/auth/google/callback?state=x&code=y", nil)
		req.AddCookie(&http.Cookie{Name: "oauthstate", Value: "x"})
		rec := httptest.NewRecorder()
		server.handleGoogleCallback(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestNewServerBuildsOauthFromConfig(t *testing.T) {
	server, _, db := newTestServer(t)
	if server.oauth != nil {
		t.Error("oauth configured without credentials")
	}

	log := zap.NewNop()
	cfg := *server.config
	cfg.GoogleOauthClientID = "client-id"
	cfg.GoogleOauthClientSecret = "client-secret"
	cfg.GoogleOauthRedirectURL = "http://localhost:8080/api/admin/auth/google/callback"

	configured := NewServer(
		&cfg,
		db,
		cache.NewRevalidator(cache.NewStore(), "", testRevalidateSecret, log),
		realtime.NewBroker(log),
		push.NewBroadcaster(db, "mailto:test@localhost", "", "", log),
		email.NewService(email.SMTPServerConfig{}),
		log,
	)
	if configured.oauth == nil {
		t.Fatal("oauth not built from credentials")
	}
	if configured.oauth.RedirectURL != cfg.GoogleOauthRedirectURL {
		t.Errorf("redirect URL = %q", configured.oauth.RedirectURL)
	}
}
