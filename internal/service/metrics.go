package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Orders persisted.",
	})

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Order status transitions applied, by source and target status.",
		},
		[]string{"from", "to"},
	)

	reviewsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_reviews_created_total",
		Help: "Reviews persisted.",
	})

	offersCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_offers_cache_lookups_total",
			Help: "Offers cache lookups, by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_event_publish_failures_total",
		Help: "Domain events that could not be published after commit.",
	})
)
