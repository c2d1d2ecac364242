package inventoryclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var calls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "inventory_client_calls_total",
	Help: "Calls to the inventory service by operation and outcome (ok, refused, rejected, fallback).",
}, []string{"op", "result"})
