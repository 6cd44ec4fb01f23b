package database

import (
	"fmt"
)

var _ NotificationRepository = (*notificationRepository)(nil)

// notificationRepository tracks which (recipient, listing) pairs have been
// mailed. The unique key on (recipient, pet_id, species) is the dedup key
// that keeps notifications idempotent across scheduler runs and restarts.
type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// WasSent reports whether a notification record exists for the pair.
func (r *notificationRepository) WasSent(recipient string, petID int64, species string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM sent_notifications
			WHERE recipient = $1 AND pet_id = $2 AND species = $3
		)
	`, recipient, petID, species).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification record: %w", err)
	}
	return exists, nil
}

// RecordSent inserts the bookkeeping row for a successful dispatch. Called
// only after the transport accepted the message, so a failed send leaves the
// pair eligible for retry on the next cycle. A conflicting row means a
// re-notification was allowed by policy: the counter and last-sent move, the
// first-sent timestamp stays.
func (r *notificationRepository) RecordSent(recipient string, petID int64, species string) error {
	_, err := r.db.Exec(`
		INSERT INTO sent_notifications (recipient, pet_id, species, first_sent_at, last_sent_at, send_count)
		VALUES ($1, $2, $3, NOW(), NOW(), 1)
		ON CONFLICT (recipient, pet_id, species) DO UPDATE SET
			last_sent_at = NOW(),
			send_count = sent_notifications.send_count + 1
	`, recipient, petID, species)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// GetNotificationCount returns the total number of notification records.
func (r *notificationRepository) GetNotificationCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sent_notifications").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get notification count: %w", err)
	}
	return count, nil
}
