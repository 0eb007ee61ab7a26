package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/go-live/trigger"
)

// StatusCounter is implemented by the Redis and PostgreSQL audit stores
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// StoreCollector implements Collector on top of the audit store and directory
type StoreCollector struct {
	counter   StatusCounter
	directory trigger.Directory
}

func NewStoreCollector(counter StatusCounter, directory trigger.Directory) *StoreCollector {
	return &StoreCollector{
		counter:   counter,
		directory: directory,
	}
}

func (c *StoreCollector) Collect(ctx context.Context) (Snapshot, error) {
	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting status counts: %w", err)
	}

	enabled, err := c.GetEnabledWebhooks(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting enabled webhooks: %w", err)
	}

	return Snapshot{
		StatusCounts:    statusCounts,
		EnabledWebhooks: enabled,
		Timestamp:       time.Now(),
	}, nil
}

func (c *StoreCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records by status: %w", err)
	}
	return counts, nil
}

func (c *StoreCollector) GetEnabledWebhooks(ctx context.Context) (int64, error) {
	targets, err := c.directory.ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing webhooks: %w", err)
	}
	return int64(len(targets)), nil
}
