package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cart_store_operations_total",
		Help: "Total number of cart mutations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)
