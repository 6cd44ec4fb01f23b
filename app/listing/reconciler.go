package listing

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrBatchRejected marks a scrape batch that failed the sanity guard. No
// persisted state is touched when a batch is rejected.
var ErrBatchRejected = errors.New("scrape batch rejected by sanity guard")

// DefaultGuardFraction is the minimum batch size relative to the previously
// recorded active count. A transient scrape failure (blocked request, empty
// page) must not be read as "all listings vanished".
const DefaultGuardFraction = 0.5

// LinkStore is the persistence surface the reconciler needs. Implemented by
// database.LinkRepository.
type LinkStore interface {
	CountActive(source string) (int, error)
	ReconcileBatch(source, species string, links []string) ([]string, error)
}

// Reconciler merges one source's scrape batch into the persisted link/status
// state. Reconciliation for a given source is mutually exclusive: overlapping
// cycles serialize per source so interleaved upserts cannot corrupt the
// active/inactive determination.
type Reconciler struct {
	store LinkStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(store LinkStore) *Reconciler {
	return &Reconciler{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *Reconciler) sourceLock(source string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[source]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[source] = lock
	}
	return lock
}

// Reconcile applies one batch of observed links for a source and returns the
// links that transitioned from absent or inactive to active. guardFraction
// <= 0 falls back to DefaultGuardFraction.
func (r *Reconciler) Reconcile(source, species string, links []string, guardFraction float64) ([]string, error) {
	lock := r.sourceLock(source)
	lock.Lock()
	defer lock.Unlock()

	if guardFraction <= 0 {
		guardFraction = DefaultGuardFraction
	}

	if len(links) == 0 {
		return nil, fmt.Errorf("%w: empty batch for source %q", ErrBatchRejected, source)
	}

	activeCount, err := r.store.CountActive(source)
	if err != nil {
		return nil, fmt.Errorf("failed to count active links: %w", err)
	}

	if activeCount > 0 && float64(len(links)) < guardFraction*float64(activeCount) {
		return nil, fmt.Errorf("%w: batch size %d below %.0f%% of %d previously active links for source %q",
			ErrBatchRejected, len(links), guardFraction*100, activeCount, source)
	}

	newlyVisible, err := r.store.ReconcileBatch(source, species, SortLinks(links))
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile batch: %w", err)
	}

	slog.Debug("Batch reconciled", "source", source, "batch_size", len(links),
		"previously_active", activeCount, "newly_visible", len(newlyVisible))

	return newlyVisible, nil
}
