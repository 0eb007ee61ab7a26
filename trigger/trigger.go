package trigger

import (
	"time"

	"github.com/marcelsud/go-live/internal/user"
)

/* Request is one inbound trigger call
 * Built by the HTTP layer from headers and the session
 */
type Request struct {
	Principal      *user.Principal
	ProvidedSecret string
	CallerIdentity string
	RemoteAddr     string
}

// WebhookTarget is a named deployment webhook owned by the Directory
type WebhookTarget struct {
	ID      string
	Name    string
	URL     string
	Enabled bool
	Headers map[string]string
}

// ResolvedTarget is the webhook a request resolved to
type ResolvedTarget struct {
	URL          string
	Name         string
	ExtraHeaders map[string]string
	TriggeredBy  string
	Source       Source
}

// WebhookResponse is what the remote endpoint answered, or a synthetic marker
// when no response arrived
type WebhookResponse struct {
	StatusCode int
	StatusText string
	Body       string
}

/* AuditRecord is one dispatch attempt
 * Records are appended once and never updated
 */
type AuditRecord struct {
	ID          string
	TriggeredAt time.Time
	TriggeredBy string
	WebhookName string
	Status      Status
	Response    WebhookResponse
	CreatedAt   time.Time
}

// Outcome is the result of a dispatch returned to the caller
type Outcome struct {
	Success      bool
	Message      string
	WebhookName  string
	ResponseBody string
	ErrorDetail  string
	Failure      FailureKind
	StatusCode   int
	RecordID     string
	// RecordingError is set when the audit record could not be stored.
	// The dispatch result above stays authoritative.
	RecordingError string
}

// HistoryQuery selects audit records for the history listing
type HistoryQuery struct {
	Descending bool
	Limit      int
}

const (
	DefaultHistoryLimit = 25
	MaxHistoryLimit     = 100
)

// Normalize applies the default and maximum limit
func (q HistoryQuery) Normalize() HistoryQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Limit > MaxHistoryLimit {
		q.Limit = MaxHistoryLimit
	}
	return q
}
