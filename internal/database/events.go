package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// --- Event Queries ---

// InsertEvent persists a new tracked event. The creation timestamp is always
// set server-side so that range queries compare values written by this
// process, never client clocks.
func (s *Service) InsertEvent(db DBorTx, event *Event) (*Event, error) {
	if event.Metadata == "" {
		event.Metadata = "{}"
	}
	// Server-originated events (broadcasts) carry no user agent; stamp the
	// column defaults instead of binding empty strings over them.
	if event.Device == "" {
		event.Device = "desktop"
	}
	if event.Browser == "" {
		event.Browser = "unknown"
	}
	// Timestamps are stored as text by the driver, so every value bound here
	// or in a range query below must be in the same zone (UTC) for
	// lexicographic comparison to match chronological order.
	createdAt := event.CreatedAt.UTC()
	if event.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT INTO events (type, source, device, browser, country, session_id, metadata, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	res, err := db.Exec(query,
		event.Type, event.Source, event.Device, event.Browser,
		event.Country, event.SessionID, event.Metadata, createdAt,
	)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetEventByID(db, id)
}

func (s *Service) GetEventByID(db DBorTx, id int64) (*Event, error) {
	query := `SELECT id, type, source, device, browser, country, session_id, metadata, created_at
			  FROM events WHERE id = ?;`
	event := &Event{}
	err := db.QueryRow(query, id).Scan(
		&event.ID, &event.Type, &event.Source, &event.Device, &event.Browser,
		&event.Country, &event.SessionID, &event.Metadata, &event.CreatedAt,
	)
	return event, err
}

// GetBroadcastsSince returns all broadcast events created after the cutoff,
// newest first. Used by the public floating-notification endpoint with a
// 24-hour window.
func (s *Service) GetBroadcastsSince(db DBorTx, cutoff time.Time) ([]*Event, error) {
	query := `SELECT id, type, source, device, browser, country, session_id, metadata, created_at
			  FROM events
			  WHERE type = ? AND created_at >= ?
			  ORDER BY created_at DESC;`

	rows, err := db.Query(query, EventBroadcast, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		if err := rows.Scan(
			&event.ID, &event.Type, &event.Source, &event.Device, &event.Browser,
			&event.Country, &event.SessionID, &event.Metadata, &event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PatchEventMetadata merges the given keys into a broadcast event's metadata
// JSON (e.g. marking it read). Events are otherwise immutable, and only the
// broadcast type accepts a patch: the endpoint driving this is public, so
// tracked funnel events must stay out of reach.
func (s *Service) PatchEventMetadata(tx *sql.Tx, id int64, patch map[string]interface{}) error {
	var raw string
	err := tx.QueryRow(`SELECT metadata FROM events WHERE id = ? AND type = ?;`, id, EventBroadcast).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	metadata := map[string]interface{}{}
	if raw != "" {
		// A corrupt blob is replaced rather than failing the patch.
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			metadata = map[string]interface{}{}
		}
	}
	for k, v := range patch {
		metadata[k] = v
	}

	merged, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("could not marshal metadata: %w", err)
	}

	res, err := tx.Exec(`UPDATE events SET metadata = ? WHERE id = ?;`, string(merged), id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEventsBetween counts events of one type in the half-open interval
// [from, to).
func (s *Service) CountEventsBetween(db DBorTx, eventType string, from, to time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM events WHERE type = ? AND created_at >= ? AND created_at < ?;`
	var count int64
	err := db.QueryRow(query, eventType, from.UTC(), to.UTC()).Scan(&count)
	return count, err
}

// EventFact is the minimal projection used by the analytics aggregator:
// everything needed to bucket an event, nothing more.
type EventFact struct {
	Type      string
	Device    string
	Browser   string
	CreatedAt time.Time
}

// GetEventFactsSince streams the facts for all non-broadcast events created
// after the cutoff. The aggregation itself happens in the analytics package;
// keeping the bucketing in Go avoids coupling day-boundary arithmetic to the
// SQLite date functions and their timezone handling.
func (s *Service) GetEventFactsSince(db DBorTx, cutoff time.Time) ([]EventFact, error) {
	query := `SELECT type, device, browser, created_at
			  FROM events
			  WHERE type != ? AND created_at >= ?
			  ORDER BY created_at;`

	rows, err := db.Query(query, EventBroadcast, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []EventFact
	for rows.Next() {
		var f EventFact
		if err := rows.Scan(&f.Type, &f.Device, &f.Browser, &f.CreatedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// GetAllEvents returns every stored event, newest first. Only used by the
// admin CSV export.
func (s *Service) GetAllEvents(db DBorTx) ([]*Event, error) {
	query := `SELECT id, type, source, device, browser, country, session_id, metadata, created_at
			  FROM events ORDER BY created_at DESC;`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		if err := rows.Scan(
			&event.ID, &event.Type, &event.Source, &event.Device, &event.Browser,
			&event.Country, &event.SessionID, &event.Metadata, &event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
