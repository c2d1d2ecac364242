package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservations_total",
		Help: "Batch reservations by result (reserved, not_found, insufficient, invalid, error).",
	}, []string{"result"})

	compensatedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_compensated_units_total",
		Help: "Units returned to stock by compensation.",
	})

	createdRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_records_created_total",
		Help: "Stock records created implicitly by restock, compensation or get-or-create.",
	})
)
