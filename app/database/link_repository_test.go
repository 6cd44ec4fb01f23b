package database

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/badbayesian/puppy-ping/app/listing"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return &DB{mockDB}, mock
}

func TestLinkRepository_CountActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM listing_status`).
		WithArgs("paws_chicago").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountActive("paws_chicago")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 7 {
		t.Errorf("Expected 7 active links, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestLinkRepository_ReconcileBatch_NewLink(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	link := "https://example.org/showdog/1"
	statusID := listing.StatusID("paws_chicago", link)
	linkID := listing.LinkID(link)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_active FROM listing_status WHERE id = \$1`).
		WithArgs(statusID).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"})) // no rows: never seen
	mock.ExpectExec(`INSERT INTO cached_links`).
		WithArgs(linkID, "paws_chicago", link, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO listing_status`).
		WithArgs(statusID, "paws_chicago", link, "dog", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE listing_status`).
		WithArgs("paws_chicago", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE cached_links`).
		WithArgs("paws_chicago", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	newlyVisible, err := repo.ReconcileBatch("paws_chicago", "dog", []string{link})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(newlyVisible) != 1 || newlyVisible[0] != link {
		t.Errorf("Expected new link to be reported newly visible, got %v", newlyVisible)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestLinkRepository_ReconcileBatch_ActiveLinkNotReported(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	link := "https://example.org/showdog/2"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_active FROM listing_status WHERE id = \$1`).
		WithArgs(listing.StatusID("wright_way", link)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))
	mock.ExpectExec(`INSERT INTO cached_links`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO listing_status`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE listing_status`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE cached_links`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	newlyVisible, err := repo.ReconcileBatch("wright_way", "dog", []string{link})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(newlyVisible) != 0 {
		t.Errorf("Expected no newly visible links, got %v", newlyVisible)
	}
}

func TestLinkRepository_ReconcileBatch_InactiveLinkReported(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	link := "https://example.org/showdog/3"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_active FROM listing_status WHERE id = \$1`).
		WithArgs(listing.StatusID("paws_chicago", link)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO cached_links`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO listing_status`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE listing_status`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE cached_links`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	newlyVisible, err := repo.ReconcileBatch("paws_chicago", "dog", []string{link})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(newlyVisible) != 1 {
		t.Errorf("Expected reactivated link to be reported newly visible, got %v", newlyVisible)
	}
}

func TestLinkRepository_ReconcileBatch_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	link := "https://example.org/showdog/4"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_active FROM listing_status WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}))
	mock.ExpectExec(`INSERT INTO cached_links`).
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	if _, err := repo.ReconcileBatch("paws_chicago", "dog", []string{link}); err == nil {
		t.Error("Expected error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestLinkRepository_GetLinkCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cached_links`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.GetLinkCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("Expected 42, got %d", count)
	}
}
