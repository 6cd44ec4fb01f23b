package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNotificationRepository_WasSent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@example.com", int64(12345), "dog").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	sent, err := repo.WasSent("a@example.com", 12345, "dog")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !sent {
		t.Error("Expected WasSent to report true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestNotificationRepository_WasSent_NoRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@example.com", int64(12345), "dog").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	sent, err := repo.WasSent("a@example.com", 12345, "dog")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sent {
		t.Error("Expected WasSent to report false")
	}
}

func TestNotificationRepository_RecordSent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(`INSERT INTO sent_notifications`).
		WithArgs("a@example.com", int64(12345), "dog").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.RecordSent("a@example.com", 12345, "dog"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestNotificationRepository_GetNotificationCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sent_notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.GetNotificationCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3, got %d", count)
	}
}
