package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/go-live/trigger"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of trigger.Directory and trigger.AuditStore
 * Audit records live in hashes indexed by a sorted set scored by trigger time
 * Webhooks live in hashes ordered by a list, which keeps directory order stable
 */

const (
	recordPrefix   = "golive:trigger"         // Hash naming: golive:trigger:{record_id}
	recordIndex    = "golive:triggers"        // Sorted set of record IDs by triggered_at
	statusCounters = "golive:triggers:status" // Hash of status -> count
	webhookPrefix  = "golive:webhook"         // Hash naming: golive:webhook:{webhook_id}
	webhookIndex   = "golive:webhooks"        // List of webhook IDs in directory order
)

// putWebhookScript appends the id to the index only when the hash is new.
// Running as one script keeps concurrent puts of the same id from indexing it twice.
var putWebhookScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	redis.call("RPUSH", KEYS[2], ARGV[1])
end
redis.call("HSET", KEYS[1], "name", ARGV[2], "url", ARGV[3], "enabled", ARGV[4], "headers", ARGV[5])
return 1
`)

var ErrDuplicateRecord = errors.New("record already exists")

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// Append stores an audit record; an existing ID is never overwritten.
// The existence check and every write run in one WATCH/MULTI transaction.
func (r *Repository) Append(ctx context.Context, rec trigger.AuditRecord) error {
	if err := rec.Status.Validate(); err != nil {
		return fmt.Errorf("validating record: %w", err)
	}
	key := recordKey(rec.ID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("checking record: %w", err)
		}
		if n > 0 {
			return ErrDuplicateRecord
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"id":                   rec.ID,
				"triggered_at":         rec.TriggeredAt.UTC().Format(time.RFC3339Nano),
				"triggered_by":         rec.TriggeredBy,
				"webhook_name":         rec.WebhookName,
				"status":               rec.Status.String(),
				"response_status":      rec.Response.StatusCode,
				"response_status_text": rec.Response.StatusText,
				"response_body":        rec.Response.Body,
				"created_at":           rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			})
			pipe.ZAdd(ctx, recordIndex, redis.Z{
				Score:  float64(rec.TriggeredAt.UnixMilli()),
				Member: rec.ID,
			})
			pipe.HIncrBy(ctx, statusCounters, rec.Status.String(), 1)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, ErrDuplicateRecord), errors.Is(err, redis.TxFailedErr):
		// A concurrent writer touched the key between WATCH and EXEC
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.ID)
	case err != nil:
		return fmt.Errorf("storing record: %w", err)
	}
	return nil
}

// List returns records ordered by trigger time
func (r *Repository) List(ctx context.Context, query trigger.HistoryQuery) ([]trigger.AuditRecord, error) {
	query = query.Normalize()
	stop := int64(query.Limit - 1)

	var ids []string
	var err error
	if query.Descending {
		ids, err = r.client.ZRevRange(ctx, recordIndex, 0, stop).Result()
	} else {
		ids, err = r.client.ZRange(ctx, recordIndex, 0, stop).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("reading record index: %w", err)
	}
	if len(ids) == 0 {
		return []trigger.AuditRecord{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, recordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("executing pipeline: %w", err)
	}

	records := make([]trigger.AuditRecord, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		records = append(records, parseRecord(data))
	}
	return records, nil
}

// Count returns the number of records
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, recordIndex).Result()
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of records per status
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{
		trigger.Success.String(): 0,
		trigger.Failed.String():  0,
	}
	data, err := r.client.HGetAll(ctx, statusCounters).Result()
	if err != nil {
		return nil, fmt.Errorf("reading status counters: %w", err)
	}
	for status, v := range data {
		counts[status] = parseInt64(v)
	}
	return counts, nil
}

// ListEnabled returns enabled webhooks in list order
func (r *Repository) ListEnabled(ctx context.Context) ([]trigger.WebhookTarget, error) {
	ids, err := r.client.LRange(ctx, webhookIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading webhook index: %w", err)
	}
	if len(ids) == 0 {
		return []trigger.WebhookTarget{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, webhookKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("executing pipeline: %w", err)
	}

	targets := make([]trigger.WebhookTarget, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		t, err := parseWebhook(ids[i], data)
		if err != nil {
			return nil, err
		}
		if t.Enabled {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

// PutWebhook adds a webhook at the end of the directory, or replaces it in place
func (r *Repository) PutWebhook(ctx context.Context, t trigger.WebhookTarget) error {
	if t.ID == "" {
		return fmt.Errorf("webhook id cannot be empty")
	}
	headersJSON, err := json.Marshal(t.Headers)
	if err != nil {
		return fmt.Errorf("marshaling headers: %w", err)
	}

	err = putWebhookScript.Run(ctx, r.client,
		[]string{webhookKey(t.ID), webhookIndex},
		t.ID, t.Name, t.URL, strconv.FormatBool(t.Enabled), string(headersJSON),
	).Err()
	if err != nil {
		return fmt.Errorf("storing webhook: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

// Helper functions

func recordKey(id string) string {
	return fmt.Sprintf("%s:%s", recordPrefix, id)
}

func webhookKey(id string) string {
	return fmt.Sprintf("%s:%s", webhookPrefix, id)
}

func parseRecord(data map[string]string) trigger.AuditRecord {
	return trigger.AuditRecord{
		ID:          data["id"],
		TriggeredAt: parseTime(data["triggered_at"]),
		TriggeredBy: data["triggered_by"],
		WebhookName: data["webhook_name"],
		Status:      trigger.NewStatus(data["status"]),
		Response: trigger.WebhookResponse{
			StatusCode: int(parseInt64(data["response_status"])),
			StatusText: data["response_status_text"],
			Body:       data["response_body"],
		},
		CreatedAt: parseTime(data["created_at"]),
	}
}

func parseWebhook(id string, data map[string]string) (trigger.WebhookTarget, error) {
	headers := make(map[string]string)
	if h := data["headers"]; h != "" && h != "null" {
		if err := json.Unmarshal([]byte(h), &headers); err != nil {
			return trigger.WebhookTarget{}, fmt.Errorf("unmarshaling headers of webhook %s: %w", id, err)
		}
	}
	enabled, _ := strconv.ParseBool(data["enabled"])
	return trigger.WebhookTarget{
		ID:      id,
		Name:    data["name"],
		URL:     data["url"],
		Enabled: enabled,
		Headers: headers,
	}, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
