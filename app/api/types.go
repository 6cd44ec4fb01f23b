package api

import (
	"github.com/badbayesian/puppy-ping/app/database"
	"github.com/badbayesian/puppy-ping/app/sources"
	"github.com/badbayesian/puppy-ping/app/tasks"
)

type Handler struct {
	linkRepo         database.LinkRepository
	snapshotRepo     database.SnapshotRepository
	notificationRepo database.NotificationRepository
	subscriberRepo   database.SubscriberRepository
	configCache      *sources.ConfigCache
	scheduler        tasks.TaskSchedulerInterface
}

type subscribeRequest struct {
	Email  string `json:"email" binding:"required"`
	Source string `json:"source"`
}
