package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Moderation
var (
	WarnsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_warns_issued_total",
		Help: "Total number of warnings recorded",
	})
	AutoBans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_auto_bans_total",
		Help: "Total number of bans triggered by the warn threshold",
	})
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_moderation_actions_total",
		Help: "Moderation actions by kind and outcome",
	}, []string{"action", "outcome"})
)

// Publishing
var (
	PostsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_posts_scheduled_total",
		Help: "Total number of posts handed to the scheduler",
	})
	PostsReplaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_posts_replaced_total",
		Help: "Pending posts replaced by a newer submission from the same author",
	})
	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_posts_published_total",
		Help: "Total number of posts published successfully",
	})
	PostsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_posts_failed_total",
		Help: "Total number of posts whose publish action failed",
	})
	PendingPosts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_pending_posts",
		Help: "Posts waiting for their fire time",
	})
	ActiveDrafts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_active_drafts",
		Help: "Authoring conversations in progress",
	})
)

// Transport
var (
	UpdatesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_received_total",
		Help: "Updates received from telegram by kind",
	}, []string{"kind"})
	HandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_handler_panics_total",
		Help: "Panics recovered inside update handlers",
	})
)
