package database

import (
	"encoding/json"
	"time"
)

// CachedLink is one row per unique link ever observed, independent of species.
type CachedLink struct {
	ID           int64 // Deterministic hash of the link
	Source       string
	Link         string
	LastFetch    time.Time
	IsActive     bool
	LastActiveAt *time.Time
}

// ListingStatus mirrors CachedLink but is keyed by (source, link) and carries
// the species; it is the per-source current active set projection.
type ListingStatus struct {
	ID           int64 // Deterministic hash of source + link
	Source       string
	Link         string
	Species      string
	LastFetch    time.Time
	IsActive     bool
	LastActiveAt *time.Time
}

// Snapshot is one immutable history row per (listing identity, run).
type Snapshot struct {
	ID          int64
	PetID       int64
	Species     string
	Source      string
	URL         string
	Name        string
	Breed       string
	Gender      string
	AgeRaw      string
	AgeMonths   *float64
	WeightLbs   *float64
	Location    string
	Status      string
	Ratings     json.RawMessage
	Description string
	Media       json.RawMessage
	ScrapedAt   time.Time
}

// Notification tracks send bookkeeping for one (recipient, listing identity,
// species) pair; the uniqueness key is what makes notification idempotent
// across runs.
type Notification struct {
	ID          int64
	Recipient   string
	PetID       int64
	Species     string
	FirstSentAt time.Time
	LastSentAt  time.Time
	SendCount   int
}

// Subscriber is one notification recipient.
type Subscriber struct {
	ID        int64
	Email     string
	Source    string
	CreatedAt time.Time
}
