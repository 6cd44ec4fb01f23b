package database

import (
	"encoding/json"
	"fmt"

	"github.com/badbayesian/puppy-ping/app/listing"
)

var _ SnapshotRepository = (*snapshotRepository)(nil)

// snapshotRepository handles the append-only listing history. Snapshots are
// written unconditionally each run, even when the profile is unchanged;
// consumers compute "latest" by taking the max scraped_at per listing.
type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// StoreSnapshot appends one history row for a parsed profile. The conflict
// target only deduplicates two writes of the same listing within the same
// instant; rows are never updated or deleted.
func (r *snapshotRepository) StoreSnapshot(source string, profile listing.Profile) error {
	ratings, err := json.Marshal(profile.Ratings)
	if err != nil {
		return fmt.Errorf("failed to marshal ratings: %w", err)
	}
	media, err := json.Marshal(profile.Media)
	if err != nil {
		return fmt.Errorf("failed to marshal media: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO listing_snapshots (
			pet_id, species, source, url, name, breed, gender, age_raw,
			age_months, weight_lbs, location, status, ratings, description,
			media, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (pet_id, species, scraped_at) DO NOTHING
	`, profile.PetID, profile.Species, source, profile.URL, profile.Name,
		profile.Breed, profile.Gender, profile.AgeRaw, profile.AgeMonths,
		profile.WeightLbs, profile.Location, profile.Status, ratings,
		profile.Description, media, profile.ScrapedAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	return nil
}

// GetLatestActive returns the newest snapshot per listing identity for the
// source's currently active links.
func (r *snapshotRepository) GetLatestActive(source string, limit int) ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT ON (p.pet_id, p.species)
		       p.id, p.pet_id, p.species, p.source, p.url,
		       COALESCE(p.name, ''), COALESCE(p.breed, ''), COALESCE(p.gender, ''),
		       COALESCE(p.age_raw, ''), p.age_months, p.weight_lbs,
		       COALESCE(p.location, ''), COALESCE(p.status, ''),
		       COALESCE(p.ratings, '{}'), COALESCE(p.description, ''),
		       COALESCE(p.media, '{}'), p.scraped_at
		FROM listing_snapshots p
		JOIN listing_status s
		  ON s.link = p.url
		 AND s.source = p.source
		 AND s.is_active = true
		WHERE p.source = $1
		ORDER BY p.pet_id, p.species, p.scraped_at DESC
		LIMIT $2
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snapshot Snapshot
		err := rows.Scan(
			&snapshot.ID, &snapshot.PetID, &snapshot.Species, &snapshot.Source,
			&snapshot.URL, &snapshot.Name, &snapshot.Breed, &snapshot.Gender,
			&snapshot.AgeRaw, &snapshot.AgeMonths, &snapshot.WeightLbs,
			&snapshot.Location, &snapshot.Status, &snapshot.Ratings,
			&snapshot.Description, &snapshot.Media, &snapshot.ScrapedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}

// GetSnapshotCount returns the total number of history rows.
func (r *snapshotRepository) GetSnapshotCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM listing_snapshots").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot count: %w", err)
	}
	return count, nil
}
