package database

import (
	"database/sql"
	"time"
)

// Event types recorded by the tracking endpoint and the admin broadcast action.
const (
	EventPageView      = "page_view"
	EventCodeCopy      = "code_copy"
	EventDownloadClick = "download_click"
	EventSignupClick   = "signup_click"
	EventBroadcast     = "broadcast"
)

// Event represents a record in the 'events' table. Events are immutable once
// created, except for metadata patches (e.g. marking a broadcast as read).
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Source    sql.NullString `json:"source"`
	Device    string         `json:"device"`
	Browser   string         `json:"browser"`
	Country   sql.NullString `json:"country"`
	SessionID sql.NullString `json:"sessionId"`
	Metadata  string         `json:"metadata"` // free-form JSON object, "{}" when empty
	CreatedAt time.Time      `json:"createdAt"`
}

// Lead represents a record in the 'leads' table: a visitor who went through
// the signup funnel, manually added or captured by the public signup endpoint.
type Lead struct {
	ID        int64          `json:"id"`
	Email     string         `json:"email"`
	Phone     sql.NullString `json:"phone"`
	PromoCode sql.NullString `json:"promoCode"`
	Source    sql.NullString `json:"source"`
	Device    sql.NullString `json:"device"`
	Browser   sql.NullString `json:"browser"`
	Country   sql.NullString `json:"country"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Testimonial represents a record in the 'testimonials' table.
// IsActive=false means pending moderation, not soft-deleted: public
// submissions start inactive and only appear on the landing page once an
// admin approves them.
type Testimonial struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Text      string         `json:"text"`
	Date      sql.NullString `json:"date"`
	Source    sql.NullString `json:"source"`
	ImageURL  sql.NullString `json:"imageUrl"`
	Rating    int            `json:"rating"`
	IsActive  bool           `json:"isActive"`
	SortOrder int            `json:"order"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Screenshot represents a record in the 'winning_screenshots' table: a
// winnings capture shown in the social-proof carousel. The four Show*
// visibility flags default to true; with all of them off only the raw image
// is rendered.
type Screenshot struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Message     string         `json:"message"`
	Amount      string         `json:"amount"`
	Time        string         `json:"time"`
	ImageURL    sql.NullString `json:"imageUrl"`
	Type        string         `json:"type"`
	IsActive    bool           `json:"isActive"`
	SortOrder   int            `json:"order"`
	ShowName    bool           `json:"showName"`
	ShowMessage bool           `json:"showMessage"`
	ShowAmount  bool           `json:"showAmount"`
	ShowTime    bool           `json:"showTime"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Video represents a record in the 'videos' table.
type Video struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	URL          string         `json:"url"`
	ThumbnailURL sql.NullString `json:"thumbnailUrl"`
	IsActive     bool           `json:"isActive"`
	IsTutorial   bool           `json:"isTutorial"`
	SortOrder    int            `json:"order"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// PromoCode represents a record in the 'promo_codes' table. A partial unique
// index guarantees at most one row has is_active=1 at any time.
type PromoCode struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	IsActive bool   `json:"isActive"`
}

// Setting is a generic key/value record for small singleton values
// (tutorial video id, member avatar list as a JSON array of URLs, seed flags).
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PushSubscription represents a record in the 'push_subscriptions' table:
// one browser push opt-in. Rows are deleted when the push provider reports
// the endpoint gone.
type PushSubscription struct {
	ID       int64  `json:"id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Admin represents a record in the 'admins' table.
type Admin struct {
	ID           int64          `json:"id"`
	Email        string         `json:"email"`
	PasswordHash sql.NullString `json:"-"` // Omit from JSON responses for security
	Name         string         `json:"name"`
	Role         string         `json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
}
