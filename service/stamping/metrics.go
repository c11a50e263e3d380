package stamping

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var approvedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stampme",
	Subsystem: "stamping",
	Name:      "approved_total",
	Help:      "Total number of approved stamp requests.",
})

var rejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stampme",
	Subsystem: "stamping",
	Name:      "rejected_total",
	Help:      "Total number of rejected stamp requests.",
})
