package database

import (
	"github.com/badbayesian/puppy-ping/app/listing"
)

type LinkRepository interface {
	CountActive(source string) (int, error)
	ReconcileBatch(source, species string, links []string) ([]string, error)
	GetActiveLinks(source string) ([]ListingStatus, error)
	GetLinkCount() (int, error)
}

type SnapshotRepository interface {
	StoreSnapshot(source string, profile listing.Profile) error
	GetLatestActive(source string, limit int) ([]Snapshot, error)
	GetSnapshotCount() (int, error)
}

type NotificationRepository interface {
	WasSent(recipient string, petID int64, species string) (bool, error)
	RecordSent(recipient string, petID int64, species string) error
	GetNotificationCount() (int, error)
}

type SubscriberRepository interface {
	AddSubscriber(email, source string) (bool, error)
	GetSubscriberEmails() ([]string, error)
	GetSubscriberCount() (int, error)
}
