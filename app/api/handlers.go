package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/badbayesian/puppy-ping/app/database"
	"github.com/badbayesian/puppy-ping/app/notify"
	"github.com/badbayesian/puppy-ping/app/sources"
	"github.com/badbayesian/puppy-ping/app/tasks"
)

func NewHandler(configCache *sources.ConfigCache, linkRepo database.LinkRepository,
	snapshotRepo database.SnapshotRepository, notificationRepo database.NotificationRepository,
	subscriberRepo database.SubscriberRepository, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		linkRepo:         linkRepo,
		snapshotRepo:     snapshotRepo,
		notificationRepo: notificationRepo,
		subscriberRepo:   subscriberRepo,
		configCache:      configCache,
		scheduler:        scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if linkCount, err := h.linkRepo.GetLinkCount(); err == nil {
		health["links"] = linkCount
	}
	if snapshotCount, err := h.snapshotRepo.GetSnapshotCount(); err == nil {
		health["snapshots"] = snapshotCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sources":   h.scheduler.Stats(),
	}

	if linkCount, err := h.linkRepo.GetLinkCount(); err == nil {
		stats["links"] = linkCount
	}
	if snapshotCount, err := h.snapshotRepo.GetSnapshotCount(); err == nil {
		stats["snapshots"] = snapshotCount
	}
	if notificationCount, err := h.notificationRepo.GetNotificationCount(); err == nil {
		stats["notifications"] = notificationCount
	}
	if subscriberCount, err := h.subscriberRepo.GetSubscriberCount(); err == nil {
		stats["subscribers"] = subscriberCount
	}

	c.JSON(http.StatusOK, stats)
}

// APIListListings returns the latest snapshot of each active listing for a
// source.
func (h *Handler) APIListListings(c *gin.Context) {
	source := c.Query("source")
	if source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source parameter"})
		return
	}

	sourceConfig, err := h.configCache.GetConfig(source)
	if err != nil {
		slog.Error("Source configuration not found", "source", source, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	limit := sourceConfig.Settings.MaxListings
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	snapshots, err := h.snapshotRepo.GetLatestActive(source, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_active", "source", source, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	listings := make([]map[string]interface{}, 0, len(snapshots))
	for _, snapshot := range snapshots {
		listings = append(listings, snapshotToJSON(snapshot))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"source":   source,
		"listings": listings,
		"total":    len(listings),
	})
}

// APISubscribe registers a notification recipient.
func (h *Handler) APISubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email field"})
		return
	}

	email := notify.SanitizeEmail(req.Email)
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	if req.Source != "" {
		if _, err := h.configCache.GetConfig(req.Source); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
			return
		}
	}

	inserted, err := h.subscriberRepo.AddSubscriber(email, req.Source)
	if err != nil {
		slog.Error("Database error", "operation", "add_subscriber", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"success":    true,
		"email":      email,
		"subscribed": inserted,
	})
}

// APIScrapeSource triggers an immediate scrape cycle for one source.
func (h *Handler) APIScrapeSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	if err := h.scheduler.EnqueueScrape(name); err != nil {
		slog.Error("Error enqueueing scrape task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue scrape task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Scrape task enqueued",
		"source":  name,
	})
}

// APIGetSourceLinks returns the currently active links for one source.
func (h *Handler) APIGetSourceLinks(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	statuses, err := h.linkRepo.GetActiveLinks(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_active_links", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	links := make([]map[string]interface{}, 0, len(statuses))
	for _, status := range statuses {
		links = append(links, map[string]interface{}{
			"link":           status.Link,
			"species":        status.Species,
			"last_fetch":     status.LastFetch.UTC().Format(time.RFC3339),
			"last_active_at": status.LastActiveAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"source": name,
		"links":  links,
		"total":  len(links),
	})
}

// APIListSources summarizes every configured source.
func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()
	stats := h.scheduler.Stats()

	sourceInfos := make([]map[string]interface{}, 0, len(configs))
	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":             sourceConfig.Name,
			"species":          sourceConfig.Species,
			"enabled":          sourceConfig.Settings.Enabled,
			"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
			"guard_fraction":   sourceConfig.Settings.GuardFraction,
			"max_age_months":   sourceConfig.Settings.MaxAgeMonths,
		}

		if activeCount, err := h.linkRepo.CountActive(sourceConfig.Name); err == nil {
			sourceInfo["active_links"] = activeCount
		}
		if sourceStats, ok := stats[sourceConfig.Name]; ok {
			sourceInfo["cycles"] = sourceStats
		}

		sourceInfos = append(sourceInfos, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sourceInfos,
		"total":   len(sourceInfos),
	})
}

func snapshotToJSON(snapshot database.Snapshot) map[string]interface{} {
	entry := map[string]interface{}{
		"pet_id":      snapshot.PetID,
		"species":     snapshot.Species,
		"source":      snapshot.Source,
		"url":         snapshot.URL,
		"name":        snapshot.Name,
		"breed":       snapshot.Breed,
		"gender":      snapshot.Gender,
		"age_raw":     snapshot.AgeRaw,
		"age_months":  snapshot.AgeMonths,
		"weight_lbs":  snapshot.WeightLbs,
		"location":    snapshot.Location,
		"status":      snapshot.Status,
		"description": snapshot.Description,
		"scraped_at":  snapshot.ScrapedAt.UTC().Format(time.RFC3339),
	}

	var ratings map[string]*int
	if err := json.Unmarshal(snapshot.Ratings, &ratings); err == nil {
		entry["ratings"] = ratings
	}

	var media map[string]interface{}
	if err := json.Unmarshal(snapshot.Media, &media); err == nil {
		entry["media"] = media
	}

	return entry
}
