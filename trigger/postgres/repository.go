package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/go-live/trigger"
)

/* PostgreSQL implementation of trigger.Directory and trigger.AuditStore
 * go_live_triggers only ever sees INSERT and SELECT
 */

type Repository struct {
	DB *sql.DB
}

var ErrDuplicateRecord = errors.New("record already exists")

const schema = `
CREATE TABLE IF NOT EXISTS go_live_webhooks (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	headers JSONB NOT NULL DEFAULT '{}'::jsonb
);
CREATE TABLE IF NOT EXISTS go_live_triggers (
	id UUID PRIMARY KEY,
	triggered_at TIMESTAMPTZ NOT NULL,
	triggered_by TEXT NOT NULL,
	webhook_name TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('success', 'failed')),
	response_status INTEGER NOT NULL,
	response_status_text TEXT NOT NULL,
	response_body TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS go_live_triggers_triggered_at_idx ON go_live_triggers (triggered_at);
`

const (
	insertRecordQuery = `INSERT INTO go_live_triggers
		(id, triggered_at, triggered_by, webhook_name, status, response_status, response_status_text, response_body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	recordColumns = `id, triggered_at, triggered_by, webhook_name, status, response_status, response_status_text, response_body, created_at`

	listRecordsDescQuery = `SELECT ` + recordColumns + ` FROM go_live_triggers ORDER BY triggered_at DESC, id DESC LIMIT $1`
	listRecordsAscQuery  = `SELECT ` + recordColumns + ` FROM go_live_triggers ORDER BY triggered_at ASC, id ASC LIMIT $1`
	countRecordsQuery    = `SELECT COUNT(*) FROM go_live_triggers`
	countByStatusQuery   = `SELECT status, COUNT(*) FROM go_live_triggers GROUP BY status`

	listEnabledQuery   = `SELECT id, name, url, enabled, headers FROM go_live_webhooks WHERE enabled ORDER BY id`
	insertWebhookQuery = `INSERT INTO go_live_webhooks (name, url, enabled, headers) VALUES ($1, $2, $3, $4) RETURNING id`
)

// NewRepository creates a PostgreSQL repository with the default pool (25, 5, 5 min)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig creates a PostgreSQL repository with a custom pool
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{
		DB: db,
	}, nil
}

// Migrate creates the tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Append inserts an audit record
func (r *Repository) Append(ctx context.Context, rec trigger.AuditRecord) error {
	if err := rec.Status.Validate(); err != nil {
		return fmt.Errorf("validating record: %w", err)
	}
	_, err := r.DB.ExecContext(ctx, insertRecordQuery,
		rec.ID,
		rec.TriggeredAt.UTC(),
		rec.TriggeredBy,
		rec.WebhookName,
		rec.Status.String(),
		rec.Response.StatusCode,
		rec.Response.StatusText,
		rec.Response.Body,
		rec.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("inserting record %s: %w", rec.ID, ErrDuplicateRecord)
	}
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// List returns records ordered by trigger time
func (r *Repository) List(ctx context.Context, query trigger.HistoryQuery) ([]trigger.AuditRecord, error) {
	query = query.Normalize()
	q := listRecordsAscQuery
	if query.Descending {
		q = listRecordsDescQuery
	}

	rows, err := r.DB.QueryContext(ctx, q, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("selecting records: %w", err)
	}
	defer rows.Close()

	records := make([]trigger.AuditRecord, 0, query.Limit)
	for rows.Next() {
		var rec trigger.AuditRecord
		var status string
		if err := rows.Scan(
			&rec.ID,
			&rec.TriggeredAt,
			&rec.TriggeredBy,
			&rec.WebhookName,
			&status,
			&rec.Response.StatusCode,
			&rec.Response.StatusText,
			&rec.Response.Body,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Status = trigger.NewStatus(status)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// Count returns the number of records
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, countRecordsQuery).Scan(&n); err != nil {
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
	rows, err := r.DB.QueryContext(ctx, countByStatusQuery)
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}
	return counts, nil
}

// ListEnabled returns enabled webhooks ordered by id
func (r *Repository) ListEnabled(ctx context.Context) ([]trigger.WebhookTarget, error) {
	rows, err := r.DB.QueryContext(ctx, listEnabledQuery)
	if err != nil {
		return nil, fmt.Errorf("selecting webhooks: %w", err)
	}
	defer rows.Close()

	targets := make([]trigger.WebhookTarget, 0)
	for rows.Next() {
		var t trigger.WebhookTarget
		var id int64
		var headers []byte
		if err := rows.Scan(&id, &t.Name, &t.URL, &t.Enabled, &headers); err != nil {
			return nil, fmt.Errorf("scanning webhook: %w", err)
		}
		t.ID = strconv.FormatInt(id, 10)
		t.Headers = make(map[string]string)
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &t.Headers); err != nil {
				return nil, fmt.Errorf("unmarshaling headers of webhook %d: %w", id, err)
			}
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhooks: %w", err)
	}
	return targets, nil
}

// InsertWebhook adds a webhook to the directory and returns its id
func (r *Repository) InsertWebhook(ctx context.Context, t trigger.WebhookTarget) (string, error) {
	headers := t.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("marshaling headers: %w", err)
	}

	var id int64
	err = r.DB.QueryRowContext(ctx, insertWebhookQuery, t.Name, t.URL, t.Enabled, string(headersJSON)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting webhook: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Close closes the database connection
func (r *Repository) Close(ctx context.Context) error {
	return r.DB.Close()
}
