package ingest

import (
	"context"

	"github.com/badbayesian/puppy-ping/app/listing"
)

// Provider is the contract every scrape source satisfies: enumerate the
// currently-live profile links, and parse one profile. Failures fetching a
// single profile must not prevent other links of the same batch from being
// fetched; the caller isolates them.
type Provider interface {
	FetchLinks(ctx context.Context) ([]string, error)
	FetchProfile(ctx context.Context, link string) (listing.Profile, error)
}
