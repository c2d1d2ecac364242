package orders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	placed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Order placements by result (placed, out_of_stock, invalid, error).",
	}, []string{"result"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_transitions_total",
		Help: "Order state transitions by action and result.",
	}, []string{"action", "result"})

	publishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_event_publish_failures_total",
		Help: "Events that could not be handed to the broker.",
	}, []string{"event"})
)
