package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/badbayesian/puppy-ping/app/listing"
)

func TestSnapshotRepository_StoreSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	age := 4.0
	profile := listing.Profile{
		PetID:     12345,
		Species:   "dog",
		URL:       "https://example.org/showdog/12345",
		Name:      "Biscuit",
		AgeMonths: &age,
		Ratings:   map[string]*int{},
		ScrapedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO listing_snapshots`).
		WithArgs(int64(12345), "dog", "paws_chicago", profile.URL, "Biscuit",
			"", "", "", 4.0, nil, "", "", sqlmock.AnyArg(), "", sqlmock.AnyArg(),
			sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.StoreSnapshot("paws_chicago", profile); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSnapshotRepository_GetLatestActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	columns := []string{"id", "pet_id", "species", "source", "url", "name", "breed",
		"gender", "age_raw", "age_months", "weight_lbs", "location", "status",
		"ratings", "description", "media", "scraped_at"}

	mock.ExpectQuery(`SELECT DISTINCT ON`).
		WithArgs("paws_chicago", 100).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), int64(12345), "dog", "paws_chicago",
				"https://example.org/showdog/12345", "Biscuit", "Terrier Mix",
				"Female", "4 months", 4.0, 12.0, "Chicago", "Available",
				[]byte(`{"children":3}`), "A sweet puppy", []byte(`{"images":[]}`),
				time.Now().UTC()))

	snapshots, err := repo.GetLatestActive("paws_chicago", 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].PetID != 12345 || snapshots[0].Name != "Biscuit" {
		t.Errorf("Unexpected snapshot: %+v", snapshots[0])
	}
}

func TestSnapshotRepository_GetSnapshotCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSnapshotRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM listing_snapshots`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	count, err := repo.GetSnapshotCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 9 {
		t.Errorf("Expected 9, got %d", count)
	}
}
