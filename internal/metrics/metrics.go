// Package metrics defines the Prometheus collectors groupkeys exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SenderKeyGenerations counts freshly generated own sender keys.
	SenderKeyGenerations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groupkeys_sender_key_generations_total",
			Help: "Number of own sender keys generated",
		},
	)
	// DistributionAttempts counts fan-out attempts by outcome.
	DistributionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupkeys_distribution_attempts_total",
			Help: "Number of sender key distribution attempts",
		},
		[]string{"outcome"},
	)
	// BackupWrites counts persistence writes by reason.
	BackupWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupkeys_backup_writes_total",
			Help: "Number of encrypted backup writes",
		},
		[]string{"reason"},
	)
	// BackupLoads counts persistence loads by reason.
	BackupLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupkeys_backup_loads_total",
			Help: "Number of encrypted backup loads",
		},
		[]string{"reason"},
	)
	// RelayRequests counts requests served by the relay per route.
	RelayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupkeys_relay_requests_total",
			Help: "Number of relay requests",
		},
		[]string{"route"},
	)
)

// Registry holds every groupkeys collector.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		SenderKeyGenerations,
		DistributionAttempts,
		BackupWrites,
		BackupLoads,
		RelayRequests,
	)
}
