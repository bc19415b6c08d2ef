package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"groupkeys/internal/metrics"
)

func TestRegistry(t *testing.T) {
	metrics.DistributionAttempts.WithLabelValues("success")
	metrics.BackupWrites.WithLabelValues("persisted")
	metrics.BackupLoads.WithLabelValues("restored")
	metrics.RelayRequests.WithLabelValues("members_get")

	n, err := testutil.GatherAndCount(metrics.Registry,
		"groupkeys_sender_key_generations_total",
		"groupkeys_distribution_attempts_total",
		"groupkeys_backup_writes_total",
		"groupkeys_backup_loads_total",
		"groupkeys_relay_requests_total",
	)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 5)
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(metrics.SenderKeyGenerations)
	metrics.SenderKeyGenerations.Inc()
	require.Equal(t, before+1, testutil.ToFloat64(metrics.SenderKeyGenerations))
}
