// Package analytics is the read side of the event store: on-demand aggregate
// queries backing the admin dashboard. Events are fetched as minimal facts
// and bucketed in Go, with day boundaries computed on the local calendar.
package analytics

import (
	"time"

	"github.com/tlehoux/promofunnel/internal/database"
)

// Service computes dashboard aggregates over the event store.
type Service struct {
	db *database.Service
}

func New(db *database.Service) *Service {
	return &Service{db: db}
}

// PeriodCounts holds per-type event counts for one period.
type PeriodCounts struct {
	PageViews      int64 `json:"pageViews"`
	CodeCopies     int64 `json:"codeCopies"`
	DownloadClicks int64 `json:"downloadClicks"`
	SignupClicks   int64 `json:"signupClicks"`
}

// Total sums the funnel steps of one period.
func (p PeriodCounts) Total() int64 {
	return p.PageViews + p.CodeCopies + p.DownloadClicks + p.SignupClicks
}

// Stats is the headline dashboard payload: today vs yesterday, conversion
// rates and day-over-day growth. Rates are integer-percentage strings.
type Stats struct {
	Today     PeriodCounts `json:"today"`
	Yesterday PeriodCounts `json:"yesterday"`

	CopyRate     string `json:"copyRate"`     // code copies / page views
	DownloadRate string `json:"downloadRate"` // download clicks / page views
	SignupRate   string `json:"signupRate"`   // signup clicks / page views

	ViewsGrowth  string `json:"viewsGrowth"`
	SignupGrowth string `json:"signupGrowth"`

	Subscribers int64 `json:"subscribers"` // current push subscriber count
}

// Stats computes the headline numbers relative to `now`. "Today" is the local
// calendar day containing now, "yesterday" the one before it.
func (s *Service) Stats(now time.Time) (*Stats, error) {
	todayStart := startOfDay(now)
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	tomorrowStart := todayStart.AddDate(0, 0, 1)

	today, err := s.countPeriod(todayStart, tomorrowStart)
	if err != nil {
		return nil, err
	}
	yesterday, err := s.countPeriod(yesterdayStart, todayStart)
	if err != nil {
		return nil, err
	}

	subscribers, err := s.db.CountPushSubscriptions(s.db.DB())
	if err != nil {
		return nil, err
	}

	return &Stats{
		Today:        today,
		Yesterday:    yesterday,
		CopyRate:     ConversionRate(today.CodeCopies, today.PageViews),
		DownloadRate: ConversionRate(today.DownloadClicks, today.PageViews),
		SignupRate:   ConversionRate(today.SignupClicks, today.PageViews),
		ViewsGrowth:  GrowthRate(yesterday.PageViews, today.PageViews),
		SignupGrowth: GrowthRate(yesterday.SignupClicks, today.SignupClicks),
		Subscribers:  subscribers,
	}, nil
}

func (s *Service) countPeriod(from, to time.Time) (PeriodCounts, error) {
	var counts PeriodCounts
	for _, c := range []struct {
		eventType string
		dest      *int64
	}{
		{database.EventPageView, &counts.PageViews},
		{database.EventCodeCopy, &counts.CodeCopies},
		{database.EventDownloadClick, &counts.DownloadClicks},
		{database.EventSignupClick, &counts.SignupClicks},
	} {
		n, err := s.db.CountEventsBetween(s.db.DB(), c.eventType, from, to)
		if err != nil {
			return counts, err
		}
		*c.dest = n
	}
	return counts, nil
}

// DailyPoint is one calendar day in the 7-day series.
type DailyPoint struct {
	Date           string `json:"date"` // "2006-01-02"
	PageViews      int64  `json:"pageViews"`
	CodeCopies     int64  `json:"codeCopies"`
	DownloadClicks int64  `json:"downloadClicks"`
	SignupClicks   int64  `json:"signupClicks"`
}

// HourlyPoint is one hour in the trailing 24-hour series.
type HourlyPoint struct {
	Hour  string `json:"hour"` // "15h"
	Total int64  `json:"total"`
}

// Overview is the detailed analytics payload: continuous (zero-filled)
// time series plus device and browser breakdowns over the last 7 days.
type Overview struct {
	Daily    []DailyPoint     `json:"daily"`
	Hourly   []HourlyPoint    `json:"hourly"`
	Devices  map[string]int64 `json:"devices"`
	Browsers map[string]int64 `json:"browsers"`
}

// Overview aggregates the last seven local calendar days (including today)
// and the trailing 24 hours relative to `now`.
func (s *Service) Overview(now time.Time) (*Overview, error) {
	const days = 7
	windowStart := startOfDay(now).AddDate(0, 0, -(days - 1))

	facts, err := s.db.GetEventFactsSince(s.db.DB(), windowStart)
	if err != nil {
		return nil, err
	}

	// Pre-fill the series so quiet days and hours still appear as zeros.
	daily := make([]DailyPoint, days)
	dailyIndex := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := windowStart.AddDate(0, 0, i).Format("2006-01-02")
		daily[i] = DailyPoint{Date: date}
		dailyIndex[date] = i
	}

	hourly := make([]HourlyPoint, 24)
	hourStart := now.Truncate(time.Hour).Add(-23 * time.Hour)
	hourlyIndex := make(map[int64]int, 24)
	for i := 0; i < 24; i++ {
		h := hourStart.Add(time.Duration(i) * time.Hour)
		hourly[i] = HourlyPoint{Hour: h.Local().Format("15") + "h"}
		hourlyIndex[h.Unix()] = i
	}

	devices := map[string]int64{}
	browsers := map[string]int64{}

	for _, f := range facts {
		local := f.CreatedAt.Local()

		if i, ok := dailyIndex[local.Format("2006-01-02")]; ok {
			switch f.Type {
			case database.EventPageView:
				daily[i].PageViews++
			case database.EventCodeCopy:
				daily[i].CodeCopies++
			case database.EventDownloadClick:
				daily[i].DownloadClicks++
			case database.EventSignupClick:
				daily[i].SignupClicks++
			}
		}

		if i, ok := hourlyIndex[f.CreatedAt.Truncate(time.Hour).Unix()]; ok {
			hourly[i].Total++
		}

		devices[f.Device]++
		browsers[f.Browser]++
	}

	return &Overview{
		Daily:    daily,
		Hourly:   hourly,
		Devices:  devices,
		Browsers: browsers,
	}, nil
}

// startOfDay returns midnight of the local calendar day containing t.
func startOfDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}
