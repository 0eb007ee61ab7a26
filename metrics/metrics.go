package metrics

import (
	"context"
	"time"
)

// Snapshot represents the current state of the go-live audit log.
type Snapshot struct {
	// StatusCounts maps status name to the number of audit records with it
	StatusCounts map[string]int64 `json:"status_counts"`

	// EnabledWebhooks is the number of enabled targets in the directory
	EnabledWebhooks int64 `json:"enabled_webhooks"`

	// Timestamp when the snapshot was collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for reading gauges from the stores.
type Collector interface {
	// Collect gathers a full snapshot
	Collect(ctx context.Context) (Snapshot, error)

	// GetStatusCounts returns the count of audit records by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetEnabledWebhooks returns the number of enabled webhooks
	GetEnabledWebhooks(ctx context.Context) (int64, error)
}
