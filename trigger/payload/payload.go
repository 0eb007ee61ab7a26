package payload

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

const (
	// EventType is the event tag deployment webhooks receive
	EventType = "go-live.triggered"

	// Model names the content model the event belongs to
	Model = "go-live"

	// TimeLayout is ISO 8601 in UTC with millisecond precision
	TimeLayout = "2006-01-02T15:04:05.000Z"
)

// eventTypePattern validates event types: hierarchical, full-stop delimited
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)*$`)

// Entry carries who triggered the deployment and when
type Entry struct {
	TriggeredBy string
	TriggeredAt time.Time
}

/* GoLive is the wire contract external deployment webhooks must accept
 * {"event":..., "createdAt":..., "model":..., "entry":{"triggeredBy":..., "triggeredAt":...}}
 */
type GoLive struct {
	Event     string
	CreatedAt time.Time
	Model     string
	Entry     Entry
}

type wireEntry struct {
	TriggeredBy string `json:"triggeredBy"`
	TriggeredAt string `json:"triggeredAt"`
}

type wirePayload struct {
	Event     string    `json:"event"`
	CreatedAt string    `json:"createdAt"`
	Model     string    `json:"model"`
	Entry     wireEntry `json:"entry"`
}

// New creates the go-live payload for the given author at time now
func New(triggeredBy string, now time.Time) GoLive {
	now = now.UTC()
	return GoLive{
		Event:     EventType,
		CreatedAt: now,
		Model:     Model,
		Entry: Entry{
			TriggeredBy: triggeredBy,
			TriggeredAt: now,
		},
	}
}

// Validate validates the payload structure
func (p GoLive) Validate() error {
	if p.Event == "" {
		return fmt.Errorf("event is required")
	}
	if !eventTypePattern.MatchString(p.Event) {
		return fmt.Errorf("event must be hierarchical and contain only [a-zA-Z0-9_.-]: %s", p.Event)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	if p.Entry.TriggeredBy == "" {
		return fmt.Errorf("entry.triggeredBy is required")
	}
	if p.Entry.TriggeredAt.IsZero() {
		return fmt.Errorf("entry.triggeredAt is required")
	}
	return nil
}

// MarshalJSON returns the JSON encoding of the payload
func (p GoLive) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePayload{
		Event:     p.Event,
		CreatedAt: FormatTime(p.CreatedAt),
		Model:     p.Model,
		Entry: wireEntry{
			TriggeredBy: p.Entry.TriggeredBy,
			TriggeredAt: FormatTime(p.Entry.TriggeredAt),
		},
	})
}

// UnmarshalJSON parses the JSON-encoded data and stores the result
func (p *GoLive) UnmarshalJSON(data []byte) error {
	var w wirePayload
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshaling payload: %w", err)
	}
	createdAt, err := ParseTime(w.CreatedAt)
	if err != nil {
		return fmt.Errorf("parsing createdAt: %w", err)
	}
	triggeredAt, err := ParseTime(w.Entry.TriggeredAt)
	if err != nil {
		return fmt.Errorf("parsing entry.triggeredAt: %w", err)
	}
	*p = GoLive{
		Event:     w.Event,
		CreatedAt: createdAt,
		Model:     w.Model,
		Entry: Entry{
			TriggeredBy: w.Entry.TriggeredBy,
			TriggeredAt: triggeredAt,
		},
	}
	return nil
}

// Bytes returns the minified JSON encoding
func (p GoLive) Bytes() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating payload: %w", err)
	}
	return json.Marshal(p)
}

// Parse parses and validates a JSON payload
func Parse(data []byte) (GoLive, error) {
	var p GoLive
	if err := json.Unmarshal(data, &p); err != nil {
		return GoLive{}, err
	}
	if err := p.Validate(); err != nil {
		return GoLive{}, fmt.Errorf("validating payload: %w", err)
	}
	return p, nil
}

// FormatTime formats t the way the payload carries timestamps
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts the payload layout and plain RFC 3339
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
