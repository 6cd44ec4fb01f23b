package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/badbayesian/puppy-ping/app/database"
	"github.com/badbayesian/puppy-ping/app/ingest"
	"github.com/badbayesian/puppy-ping/app/listing"
	"github.com/badbayesian/puppy-ping/app/notify"
	"github.com/badbayesian/puppy-ping/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// SourceStats summarizes scrape cycle outcomes for one source.
type SourceStats struct {
	LastRunAt       *time.Time   `json:"last_run_at,omitempty"`
	LastOutcome     CycleOutcome `json:"last_outcome,omitempty"`
	LastNewlyListed int          `json:"last_newly_listed"`
	Completed       int          `json:"completed"`
	Rejected        int          `json:"rejected"`
	Failed          int          `json:"failed"`
}

type Scheduler struct {
	configCache  *sources.ConfigCache
	registry     *ingest.Registry
	reconciler   *listing.Reconciler
	snapshotRepo database.SnapshotRepository
	notifier     *notify.Notifier
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface

	mu      sync.Mutex
	nextRun map[string]time.Time
	stats   map[string]*SourceStats
}

func NewScheduler(configCache *sources.ConfigCache, registry *ingest.Registry,
	reconciler *listing.Reconciler, snapshotRepo database.SnapshotRepository,
	notifier *notify.Notifier, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache:  configCache,
		registry:     registry,
		reconciler:   reconciler,
		snapshotRepo: snapshotRepo,
		notifier:     notifier,
		interval:     interval,
		workerCount:  workerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 100),
		nextRun:      make(map[string]time.Time),
		stats:        make(map[string]*SourceStats),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueScrape schedules an immediate scrape cycle for one source,
// bypassing the refresh interval. Used by the HTTP API.
func (s *Scheduler) EnqueueScrape(sourceName string) error {
	sourceConfig, err := s.configCache.GetConfig(sourceName)
	if err != nil {
		return err
	}

	task, err := s.newScrapeTask(sourceConfig)
	if err != nil {
		return err
	}

	s.markScheduled(sourceConfig)
	return s.EnqueueTask(task)
}

// Stats returns a copy of per-source cycle statistics.
func (s *Scheduler) Stats() map[string]SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	statsCopy := make(map[string]SourceStats, len(s.stats))
	for name, stats := range s.stats {
		statsCopy[name] = *stats
	}
	return statsCopy
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Processing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		if !sourceConfig.Settings.Enabled {
			slog.Debug("Source disabled, skipping ScrapeSourceTask", "source", sourceConfig.Name)
			continue
		}

		s.enqueueScrapeTask(sourceConfig)
	}
}

func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	now := time.Now().UTC()
	for _, sourceConfig := range sourceConfigs {
		if next, ok := s.nextRunFor(sourceConfig.Name); ok && next.After(now) {
			slog.Debug("Source not due for refresh yet", "source", sourceConfig.Name, "next_run_at", next)
			continue
		}
		s.enqueueScrapeTask(sourceConfig)
	}
}

func (s *Scheduler) enqueueScrapeTask(sourceConfig *sources.Config) {
	task, err := s.newScrapeTask(sourceConfig)
	if err != nil {
		slog.Warn("Failed to build ScrapeSourceTask", "source", sourceConfig.Name, "error", err)
		return
	}

	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue ScrapeSourceTask", "source", sourceConfig.Name, "error", err)
		return
	}

	s.markScheduled(sourceConfig)
}

func (s *Scheduler) newScrapeTask(sourceConfig *sources.Config) (TaskInterface, error) {
	provider, err := s.registry.Get(sourceConfig.Name)
	if err != nil {
		return nil, err
	}
	return NewScrapeSourceTask(sourceConfig.Name, sourceConfig, provider,
		s.reconciler, s.snapshotRepo, s.notifier, s.recordOutcome), nil
}

// markScheduled advances the source's next run time as soon as a task is
// queued, so failed cycles wait for the retry path instead of re-queueing on
// every tick.
func (s *Scheduler) markScheduled(sourceConfig *sources.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRun[sourceConfig.Name] = time.Now().UTC().
		Add(time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second)
}

func (s *Scheduler) nextRunFor(sourceName string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.nextRun[sourceName]
	return next, ok
}

func (s *Scheduler) recordOutcome(sourceName string, outcome CycleOutcome, newlyVisible int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, ok := s.stats[sourceName]
	if !ok {
		stats = &SourceStats{}
		s.stats[sourceName] = stats
	}

	now := time.Now().UTC()
	stats.LastRunAt = &now
	stats.LastOutcome = outcome
	stats.LastNewlyListed = newlyVisible

	switch outcome {
	case OutcomeOK:
		stats.Completed++
	case OutcomeRejected:
		stats.Rejected++
	case OutcomeFailed:
		stats.Failed++
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		// A guard rejection is a verdict on the batch, not a transient
		// fault. Re-running the same cycle would fetch the same batch.
		if errors.Is(err, listing.ErrBatchRejected) {
			slog.Warn("Scrape batch rejected, waiting for next cycle", "source", task.GetSourceName())
			return
		}

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// The retry goroutine joins the WaitGroup so Stop() cannot
			// close the queue underneath a pending re-enqueue.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				timer := time.NewTimer(retryDelay)
				defer timer.Stop()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
				case <-timer.C:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
