package database

import (
	"database/sql"
	"strings"
)

// --- Push Subscription Queries ---

// CreatePushSubscription stores a browser push opt-in. Subscribing the same
// endpoint twice is not an error: the unique-constraint violation is treated
// as "already subscribed" and the existing row wins.
func (s *Service) CreatePushSubscription(tx *sql.Tx, sub *PushSubscription) (created bool, err error) {
	query := `INSERT INTO push_subscriptions (endpoint, p256dh, auth) VALUES (?, ?, ?);`
	_, err = tx.Exec(query, sub.Endpoint, sub.P256dh, sub.Auth)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) GetPushSubscriptions(db DBorTx) ([]*PushSubscription, error) {
	rows, err := db.Query(`SELECT id, endpoint, p256dh, auth FROM push_subscriptions;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*PushSubscription
	for rows.Next() {
		sub := &PushSubscription{}
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Service) CountPushSubscriptions(db DBorTx) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM push_subscriptions;`).Scan(&count)
	return count, err
}

// DeletePushSubscriptionByEndpoint prunes a subscription whose endpoint the
// push provider reported gone. Deleting an already-removed endpoint is a no-op.
func (s *Service) DeletePushSubscriptionByEndpoint(tx *sql.Tx, endpoint string) error {
	_, err := tx.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?;`, endpoint)
	return err
}

// isUniqueViolation matches the SQLite unique-constraint error without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
