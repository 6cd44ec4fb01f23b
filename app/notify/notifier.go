package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/badbayesian/puppy-ping/app/database"
	"github.com/badbayesian/puppy-ping/app/listing"
)

// Notifier fans new listings out to recipients as digest emails. Each
// (recipient, pet, species) pair is recorded after a successful delivery so
// pets are announced at most once per recipient, across process restarts.
type Notifier struct {
	notificationRepo database.NotificationRepository
	subscriberRepo   database.SubscriberRepository
	mailer           Mailer
	staticRecipients []string
	renotify         bool
}

func NewNotifier(notificationRepo database.NotificationRepository, subscriberRepo database.SubscriberRepository,
	mailer Mailer, staticRecipients []string, renotify bool) *Notifier {
	return &Notifier{
		notificationRepo: notificationRepo,
		subscriberRepo:   subscriberRepo,
		mailer:           mailer,
		staticRecipients: SanitizeEmails(staticRecipients),
		renotify:         renotify,
	}
}

// Run sends a digest of the given newly visible profiles to every recipient
// who has not been notified about them yet. Profiles older than maxAgeMonths
// are skipped when the limit is positive. Returns the number of digests
// delivered.
func (n *Notifier) Run(source string, maxAgeMonths float64, profiles []listing.Profile) (int, error) {
	eligible := filterByAge(profiles, maxAgeMonths)
	if len(eligible) == 0 {
		return 0, nil
	}

	recipients, err := n.recipients()
	if err != nil {
		return 0, fmt.Errorf("failed to load recipients: %w", err)
	}
	if len(recipients) == 0 {
		slog.Debug("No notification recipients configured", "source", source)
		return 0, nil
	}

	sent := 0
	var lastErr error
	for _, recipient := range recipients {
		pending, err := n.pendingFor(recipient, eligible)
		if err != nil {
			slog.Error("Failed to check notification history", "recipient", recipient, "error", err)
			lastErr = err
			continue
		}
		if len(pending) == 0 {
			continue
		}

		msg := BuildDigest(pending, time.Now())
		if err := n.mailer.Send(recipient, msg); err != nil {
			slog.Error("Failed to send notification digest", "recipient", recipient,
				"source", source, "profiles", len(pending), "error", err)
			lastErr = err
			continue
		}

		for _, p := range pending {
			if err := n.notificationRepo.RecordSent(recipient, p.PetID, p.Species); err != nil {
				slog.Error("Failed to record sent notification", "recipient", recipient,
					"pet_id", p.PetID, "error", err)
				lastErr = err
			}
		}

		slog.Info("Sent notification digest", "recipient", recipient,
			"source", source, "profiles", len(pending))
		sent++
	}

	return sent, lastErr
}

// recipients merges statically configured addresses with stored subscribers,
// deduped while preserving order.
func (n *Notifier) recipients() ([]string, error) {
	subscribed, err := n.subscriberRepo.GetSubscriberEmails()
	if err != nil {
		return nil, err
	}
	merged := make([]string, 0, len(n.staticRecipients)+len(subscribed))
	merged = append(merged, n.staticRecipients...)
	merged = append(merged, subscribed...)
	return SanitizeEmails(merged), nil
}

// pendingFor returns the profiles the recipient has not been told about.
// With renotify enabled, every profile is pending and the dedup table only
// tracks send counts.
func (n *Notifier) pendingFor(recipient string, profiles []listing.Profile) ([]listing.Profile, error) {
	if n.renotify {
		return profiles, nil
	}

	var pending []listing.Profile
	for _, p := range profiles {
		wasSent, err := n.notificationRepo.WasSent(recipient, p.PetID, p.Species)
		if err != nil {
			return nil, err
		}
		if !wasSent {
			pending = append(pending, p)
		}
	}
	return pending, nil
}

func filterByAge(profiles []listing.Profile, maxAgeMonths float64) []listing.Profile {
	if maxAgeMonths <= 0 {
		return profiles
	}
	var eligible []listing.Profile
	for _, p := range profiles {
		if p.YoungerThan(maxAgeMonths) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}
