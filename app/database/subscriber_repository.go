package database

import (
	"fmt"
)

var _ SubscriberRepository = (*subscriberRepository)(nil)

// subscriberRepository stores notification recipients. Addresses are
// normalized by the caller before they reach this layer.
type subscriberRepository struct {
	db *DB
}

func NewSubscriberRepository(db *DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

// AddSubscriber inserts a recipient and reports whether a new row was
// created. An existing address is not an error.
func (r *subscriberRepository) AddSubscriber(email, source string) (bool, error) {
	if source == "" {
		source = "web"
	}

	result, err := r.db.Exec(`
		INSERT INTO subscribers (email, source)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, email, source)
	if err != nil {
		return false, fmt.Errorf("failed to add subscriber: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}

	return inserted > 0, nil
}

// GetSubscriberEmails returns all subscriber addresses.
func (r *subscriberRepository) GetSubscriberEmails() ([]string, error) {
	rows, err := r.db.Query("SELECT email FROM subscribers ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}

	return emails, nil
}

// GetSubscriberCount returns the total number of subscribers.
func (r *subscriberRepository) GetSubscriberCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subscribers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscriber count: %w", err)
	}
	return count, nil
}
