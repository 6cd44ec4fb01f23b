package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to manage background scrape
// cycles: queue management, worker pool control, manual triggering, and
// monitoring.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueScrape(sourceName string) error
	Stats() map[string]SourceStats
}
