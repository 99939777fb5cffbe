package api

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tlehoux/promofunnel/internal/database"
)

// nullableString converts a sql.NullString into a *string so JSON renders
// `null` instead of the {String, Valid} wrapper.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// TestimonialResponse is the public DTO for a testimonial.
type TestimonialResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Date      *string   `json:"date"`
	Source    *string   `json:"source"`
	ImageURL  *string   `json:"imageUrl"`
	Rating    int       `json:"rating"`
	IsActive  bool      `json:"isActive"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTestimonialResponse(t *database.Testimonial) TestimonialResponse {
	return TestimonialResponse{
		ID:        t.ID,
		Name:      t.Name,
		Text:      t.Text,
		Date:      nullableString(t.Date),
		Source:    nullableString(t.Source),
		ImageURL:  nullableString(t.ImageURL),
		Rating:    t.Rating,
		IsActive:  t.IsActive,
		Order:     t.SortOrder,
		CreatedAt: t.CreatedAt,
	}
}

func toTestimonialResponseList(testimonials []*database.Testimonial) []TestimonialResponse {
	responseList := make([]TestimonialResponse, len(testimonials))
	for i, t := range testimonials {
		responseList[i] = toTestimonialResponse(t)
	}
	return responseList
}

// ScreenshotResponse is the public DTO for a winning screenshot. The text
// fields honor the per-field visibility flags: a hidden field is omitted from
// the JSON entirely, so a screenshot with every flag off renders as just its
// image.
type ScreenshotResponse struct {
	ID        int64     `json:"id"`
	Name      *string   `json:"name,omitempty"`
	Message   *string   `json:"message,omitempty"`
	Amount    *string   `json:"amount,omitempty"`
	Time      *string   `json:"time,omitempty"`
	ImageURL  *string   `json:"imageUrl"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"isActive"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toScreenshotResponse(sc *database.Screenshot) ScreenshotResponse {
	resp := ScreenshotResponse{
		ID:        sc.ID,
		ImageURL:  nullableString(sc.ImageURL),
		Type:      sc.Type,
		IsActive:  sc.IsActive,
		Order:     sc.SortOrder,
		CreatedAt: sc.CreatedAt,
		UpdatedAt: sc.UpdatedAt,
	}
	if sc.ShowName {
		resp.Name = &sc.Name
	}
	if sc.ShowMessage {
		resp.Message = &sc.Message
	}
	if sc.ShowAmount {
		resp.Amount = &sc.Amount
	}
	if sc.ShowTime {
		resp.Time = &sc.Time
	}
	return resp
}

func toScreenshotResponseList(screenshots []*database.Screenshot) []ScreenshotResponse {
	responseList := make([]ScreenshotResponse, len(screenshots))
	for i, sc := range screenshots {
		responseList[i] = toScreenshotResponse(sc)
	}
	return responseList
}

// AdminScreenshotResponse is the admin DTO: all fields plus the raw
// visibility flags, since the dashboard edits them.
type AdminScreenshotResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Message     string    `json:"message"`
	Amount      string    `json:"amount"`
	Time        string    `json:"time"`
	ImageURL    *string   `json:"imageUrl"`
	Type        string    `json:"type"`
	IsActive    bool      `json:"isActive"`
	Order       int       `json:"order"`
	ShowName    bool      `json:"showName"`
	ShowMessage bool      `json:"showMessage"`
	ShowAmount  bool      `json:"showAmount"`
	ShowTime    bool      `json:"showTime"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toAdminScreenshotResponse(sc *database.Screenshot) AdminScreenshotResponse {
	return AdminScreenshotResponse{
		ID:          sc.ID,
		Name:        sc.Name,
		Message:     sc.Message,
		Amount:      sc.Amount,
		Time:        sc.Time,
		ImageURL:    nullableString(sc.ImageURL),
		Type:        sc.Type,
		IsActive:    sc.IsActive,
		Order:       sc.SortOrder,
		ShowName:    sc.ShowName,
		ShowMessage: sc.ShowMessage,
		ShowAmount:  sc.ShowAmount,
		ShowTime:    sc.ShowTime,
		CreatedAt:   sc.CreatedAt,
		UpdatedAt:   sc.UpdatedAt,
	}
}

func toAdminScreenshotResponseList(screenshots []*database.Screenshot) []AdminScreenshotResponse {
	responseList := make([]AdminScreenshotResponse, len(screenshots))
	for i, sc := range screenshots {
		responseList[i] = toAdminScreenshotResponse(sc)
	}
	return responseList
}

// VideoResponse is the DTO for a video.
type VideoResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	IsActive     bool      `json:"isActive"`
	IsTutorial   bool      `json:"isTutorial"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toVideoResponse(v *database.Video) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		Title:        v.Title,
		URL:          v.URL,
		ThumbnailURL: nullableString(v.ThumbnailURL),
		IsActive:     v.IsActive,
		IsTutorial:   v.IsTutorial,
		Order:        v.SortOrder,
		CreatedAt:    v.CreatedAt,
	}
}

func toVideoResponseList(videos []*database.Video) []VideoResponse {
	responseList := make([]VideoResponse, len(videos))
	for i, v := range videos {
		responseList[i] = toVideoResponse(v)
	}
	return responseList
}

// LeadResponse is the admin DTO for a captured lead.
type LeadResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	PromoCode *string   `json:"promoCode"`
	Source    *string   `json:"source"`
	Device    *string   `json:"device"`
	Browser   *string   `json:"browser"`
	Country   *string   `json:"country"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toLeadResponse(l *database.Lead) LeadResponse {
	return LeadResponse{
		ID:        l.ID,
		Email:     l.Email,
		Phone:     nullableString(l.Phone),
		PromoCode: nullableString(l.PromoCode),
		Source:    nullableString(l.Source),
		Device:    nullableString(l.Device),
		Browser:   nullableString(l.Browser),
		Country:   nullableString(l.Country),
		Status:    l.Status,
		CreatedAt: l.CreatedAt,
	}
}

func toLeadResponseList(leads []*database.Lead) []LeadResponse {
	responseList := make([]LeadResponse, len(leads))
	for i, l := range leads {
		responseList[i] = toLeadResponse(l)
	}
	return responseList
}

// BroadcastResponse is the DTO for an active broadcast notification. The
// message and level live in the event's metadata blob.
type BroadcastResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toBroadcastResponse(e *database.Event) BroadcastResponse {
	resp := BroadcastResponse{ID: e.ID, Level: "info", CreatedAt: e.CreatedAt}

	var metadata struct {
		Message string `json:"message"`
		Level   string `json:"level"`
		Read    bool   `json:"read"`
	}
	if err := json.Unmarshal([]byte(e.Metadata), &metadata); err == nil {
		resp.Message = metadata.Message
		if metadata.Level != "" {
			resp.Level = metadata.Level
		}
		resp.Read = metadata.Read
	}
	return resp
}

func toBroadcastResponseList(events []*database.Event) []BroadcastResponse {
	responseList := make([]BroadcastResponse, len(events))
	for i, e := range events {
		responseList[i] = toBroadcastResponse(e)
	}
	return responseList
}
