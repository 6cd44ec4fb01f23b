package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/badbayesian/puppy-ping/app/database"
	"github.com/badbayesian/puppy-ping/app/ingest"
	"github.com/badbayesian/puppy-ping/app/listing"
	"github.com/badbayesian/puppy-ping/app/notify"
	"github.com/badbayesian/puppy-ping/app/sources"
)

// CycleOutcome classifies how a scrape cycle ended.
type CycleOutcome string

const (
	OutcomeOK       CycleOutcome = "ok"
	OutcomeRejected CycleOutcome = "rejected"
	OutcomeFailed   CycleOutcome = "failed"
)

type ScrapeSourceTask struct {
	Task
	SourceConfig *sources.Config
	provider     ingest.Provider
	reconciler   *listing.Reconciler
	snapshotRepo database.SnapshotRepository
	notifier     *notify.Notifier
	report       func(sourceName string, outcome CycleOutcome, newlyVisible int)
}

func NewScrapeSourceTask(sourceName string, sourceConfig *sources.Config, provider ingest.Provider,
	reconciler *listing.Reconciler, snapshotRepo database.SnapshotRepository, notifier *notify.Notifier,
	report func(sourceName string, outcome CycleOutcome, newlyVisible int)) *ScrapeSourceTask {
	return &ScrapeSourceTask{
		Task:         NewTask(TaskTypeScrapeSource, sourceName),
		SourceConfig: sourceConfig,
		provider:     provider,
		reconciler:   reconciler,
		snapshotRepo: snapshotRepo,
		notifier:     notifier,
		report:       report,
	}
}

// Execute runs one scrape cycle: discover links, fetch profiles, reconcile
// the batch against persisted state, snapshot every resolved profile, and
// notify recipients about newly visible listings. A guard rejection leaves
// persisted state untouched and is not retried.
func (t *ScrapeSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	links, err := t.fetchLinks(ctx)
	if err != nil {
		t.recordOutcome(OutcomeFailed, 0)
		return fmt.Errorf("failed to fetch links: %w", err)
	}

	profiles := t.fetchProfiles(ctx, links)

	newlyVisible, err := t.reconciler.Reconcile(t.SourceName, t.SourceConfig.Species,
		links, t.SourceConfig.Settings.GuardFraction)
	if err != nil {
		if errors.Is(err, listing.ErrBatchRejected) {
			t.recordOutcome(OutcomeRejected, 0)
		} else {
			t.recordOutcome(OutcomeFailed, 0)
		}
		return err
	}

	snapshotErrors := 0
	for _, profile := range profiles {
		if err := t.snapshotRepo.StoreSnapshot(t.SourceName, profile); err != nil {
			slog.Error("Failed to store snapshot", "source", t.SourceName,
				"pet_id", profile.PetID, "error", err)
			snapshotErrors++
		}
	}

	digests := 0
	newProfiles := resolveProfiles(newlyVisible, profiles)
	if len(newProfiles) > 0 {
		digests, err = t.notifier.Run(t.SourceName, t.SourceConfig.Settings.MaxAgeMonths, newProfiles)
		if err != nil {
			slog.Warn("Notification run finished with errors", "source", t.SourceName, "error", err)
		}
	}

	t.recordOutcome(OutcomeOK, len(newlyVisible))

	slog.Info("Task completed",
		"type", "ScrapeSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"links", len(links),
		"profiles", len(profiles),
		"newly_visible", len(newlyVisible),
		"snapshot_errors", snapshotErrors,
		"digests", digests)

	return nil
}

func (t *ScrapeSourceTask) fetchLinks(ctx context.Context) ([]string, error) {
	timeoutCtx, cancel := t.requestContext(ctx)
	defer cancel()

	return t.provider.FetchLinks(timeoutCtx)
}

// fetchProfiles resolves each link into a full profile. A single failed page
// must not sink the cycle, so failures are logged and skipped; the link still
// participates in reconciliation.
func (t *ScrapeSourceTask) fetchProfiles(ctx context.Context, links []string) map[string]listing.Profile {
	profiles := make(map[string]listing.Profile, len(links))
	for _, link := range links {
		profile, err := t.fetchProfile(ctx, link)
		if err != nil {
			slog.Warn("Failed to fetch profile", "source", t.SourceName, "link", link, "error", err)
			continue
		}
		profiles[link] = profile
	}
	return profiles
}

func (t *ScrapeSourceTask) fetchProfile(ctx context.Context, link string) (listing.Profile, error) {
	timeoutCtx, cancel := t.requestContext(ctx)
	defer cancel()

	return t.provider.FetchProfile(timeoutCtx, link)
}

func (t *ScrapeSourceTask) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(t.SourceConfig.Settings.Timeout)*time.Second)
}

func (t *ScrapeSourceTask) recordOutcome(outcome CycleOutcome, newlyVisible int) {
	if t.report != nil {
		t.report(t.SourceName, outcome, newlyVisible)
	}
}

func resolveProfiles(links []string, profiles map[string]listing.Profile) []listing.Profile {
	resolved := make([]listing.Profile, 0, len(links))
	for _, link := range links {
		if profile, ok := profiles[link]; ok {
			resolved = append(resolved, profile)
		}
	}
	return resolved
}
