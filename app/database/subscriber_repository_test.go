package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSubscriberRepository_AddSubscriber_New(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriberRepository(db)

	mock.ExpectExec(`INSERT INTO subscribers`).
		WithArgs("a@example.com", "paws_chicago").
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := repo.AddSubscriber("a@example.com", "paws_chicago")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !inserted {
		t.Error("Expected new subscriber to report inserted")
	}
}

func TestSubscriberRepository_AddSubscriber_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriberRepository(db)

	mock.ExpectExec(`INSERT INTO subscribers`).
		WithArgs("a@example.com", "paws_chicago").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.AddSubscriber("a@example.com", "paws_chicago")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate subscriber to report not inserted")
	}
}

func TestSubscriberRepository_AddSubscriber_DefaultSource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriberRepository(db)

	// An omitted source falls back to "web", matching the column default
	mock.ExpectExec(`INSERT INTO subscribers`).
		WithArgs("a@example.com", "web").
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := repo.AddSubscriber("a@example.com", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !inserted {
		t.Error("Expected subscriber with default source to report inserted")
	}
}

func TestSubscriberRepository_GetSubscriberEmails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriberRepository(db)

	mock.ExpectQuery(`SELECT email FROM subscribers`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("a@example.com").
			AddRow("b@example.com"))

	emails, err := repo.GetSubscriberEmails()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(emails) != 2 || emails[0] != "a@example.com" {
		t.Errorf("Unexpected emails: %v", emails)
	}
}
