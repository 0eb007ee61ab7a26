package trigger

import "context"

/* Small, focused interfaces
 * The Directory and the AuditStore are owned by the host platform,
 * this package only consumes them
 */

// Directory looks up deployment webhooks
type Directory interface {
	/* ListEnabled returns enabled webhooks in stable directory order
	 * Resolution picks the first match, so the order must not change between calls
	 */
	ListEnabled(ctx context.Context) ([]WebhookTarget, error)
}

// AuditWriter appends trigger attempts
type AuditWriter interface {
	Append(ctx context.Context, record AuditRecord) error
}

// AuditReader reads trigger attempts for the history view
type AuditReader interface {
	List(ctx context.Context, query HistoryQuery) ([]AuditRecord, error)
	Count(ctx context.Context) (int64, error)
}

/* AuditStore has no update or delete path
 * The history is an append-only ledger of deployment attempts
 */
type AuditStore interface {
	AuditWriter
	AuditReader
	Close(ctx context.Context) error
}
