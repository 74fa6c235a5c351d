package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Campaign creation outcomes: created, skipped (no trigger), failed
	CampaignsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_created_total",
			Help: "Campaign creation attempts partitioned by outcome",
		},
		[]string{"outcome"},
	)

	ItemsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_items_generated_total",
			Help: "Queue items whose content was generated",
		},
		[]string{"content_type", "source"},
	)

	GenerationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_generation_errors_total",
			Help: "Queue items that failed to generate or persist content",
		},
	)

	// Soft AI failures resolved by the template generator
	AIFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "AI caption requests that fell back to templates",
		},
		[]string{"reason"},
	)

	ItemTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_item_transitions_total",
			Help: "Queue item status changes partitioned by target status",
		},
		[]string{"status"},
	)
)
