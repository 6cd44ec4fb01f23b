package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/badbayesian/puppy-ping/app/listing"
)

var _ LinkRepository = (*linkRepository)(nil)

// linkRepository handles database operations for cached links and per-source
// listing status rows.
type linkRepository struct {
	db *DB
}

func NewLinkRepository(db *DB) LinkRepository {
	return &linkRepository{db: db}
}

// CountActive returns the number of currently active status rows for a source.
func (r *linkRepository) CountActive(source string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM listing_status
		WHERE source = $1 AND is_active = true
	`, source).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active links: %w", err)
	}
	return count, nil
}

// ReconcileBatch merges one source's observed links into cached_links and
// listing_status in a single transaction: every link in the batch is upserted
// active, every other row of the source is deactivated. Returns the links
// that transitioned from absent or inactive to active.
//
// last_active_at records the last time a link was seen active; deactivation
// leaves it untouched.
func (r *linkRepository) ReconcileBatch(source, species string, links []string) ([]string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var newlyVisible []string

	for _, link := range links {
		var wasActive bool
		err := tx.QueryRow(`
			SELECT is_active FROM listing_status WHERE id = $1
		`, listing.StatusID(source, link)).Scan(&wasActive)
		if err == sql.ErrNoRows {
			wasActive = false
		} else if err != nil {
			return nil, fmt.Errorf("failed to check prior status: %w", err)
		}

		if !wasActive {
			newlyVisible = append(newlyVisible, link)
		}

		_, err = tx.Exec(`
			INSERT INTO cached_links (id, source, link, last_fetch, is_active, last_active_at)
			VALUES ($1, $2, $3, $4, true, $4)
			ON CONFLICT (id) DO UPDATE SET
				source = EXCLUDED.source,
				last_fetch = EXCLUDED.last_fetch,
				is_active = true,
				last_active_at = EXCLUDED.last_active_at
		`, listing.LinkID(link), source, link, now)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert cached link: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO listing_status (id, source, link, species, last_fetch, is_active, last_active_at)
			VALUES ($1, $2, $3, $4, $5, true, $5)
			ON CONFLICT (id) DO UPDATE SET
				species = EXCLUDED.species,
				last_fetch = EXCLUDED.last_fetch,
				is_active = true,
				last_active_at = EXCLUDED.last_active_at
		`, listing.StatusID(source, link), source, link, species, now)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert listing status: %w", err)
		}
	}

	_, err = tx.Exec(`
		UPDATE listing_status
		SET is_active = false
		WHERE source = $1 AND is_active = true AND NOT (link = ANY($2))
	`, source, pq.Array(links))
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate absent status rows: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE cached_links
		SET is_active = false
		WHERE source = $1 AND is_active = true AND NOT (link = ANY($2))
	`, source, pq.Array(links))
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate absent cached links: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	return newlyVisible, nil
}

// GetActiveLinks returns the currently active status rows for a source.
func (r *linkRepository) GetActiveLinks(source string) ([]ListingStatus, error) {
	rows, err := r.db.Query(`
		SELECT id, source, link, species, last_fetch, is_active, last_active_at
		FROM listing_status
		WHERE source = $1 AND is_active = true
		ORDER BY link
	`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get active links: %w", err)
	}
	defer rows.Close()

	var statuses []ListingStatus
	for rows.Next() {
		var status ListingStatus
		err := rows.Scan(
			&status.ID, &status.Source, &status.Link, &status.Species,
			&status.LastFetch, &status.IsActive, &status.LastActiveAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status rows: %w", err)
	}

	return statuses, nil
}

// GetLinkCount returns the total number of links ever observed.
func (r *linkRepository) GetLinkCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM cached_links").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get link count: %w", err)
	}
	return count, nil
}
