package payload_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/marcelsud/go-live/trigger/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.FixedZone("BRT", -3*3600))

	p := payload.New("alice", now)

	assert.Equal(t, payload.EventType, p.Event)
	assert.Equal(t, payload.Model, p.Model)
	assert.Equal(t, "alice", p.Entry.TriggeredBy)
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.True(t, p.CreatedAt.Equal(now))
	assert.True(t, p.Entry.TriggeredAt.Equal(now))
	require.NoError(t, p.Validate())
}

func TestBytes(t *testing.T) {
	t.Run("wire shape", func(t *testing.T) {
		now := time.Date(2026, 3, 14, 12, 26, 53, 589_000_000, time.UTC)

		data, err := payload.New("alice", now).Bytes()
		require.NoError(t, err)

		assert.JSONEq(t, `{
			"event": "go-live.triggered",
			"createdAt": "2026-03-14T12:26:53.589Z",
			"model": "go-live",
			"entry": {"triggeredBy": "alice", "triggeredAt": "2026-03-14T12:26:53.589Z"}
		}`, string(data))
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := payload.New("", time.Now()).Bytes()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "entry.triggeredBy is required")
	})
}

func TestParse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		now := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
		data, err := payload.New("ci-bot", now).Bytes()
		require.NoError(t, err)

		p, err := payload.Parse(data)

		require.NoError(t, err)
		assert.Equal(t, "ci-bot", p.Entry.TriggeredBy)
		assert.True(t, p.CreatedAt.Equal(now))
	})

	t.Run("accepts RFC 3339 timestamps", func(t *testing.T) {
		data := []byte(`{"event":"go-live.triggered","createdAt":"2026-01-02T03:04:05Z","model":"go-live","entry":{"triggeredBy":"x","triggeredAt":"2026-01-02T03:04:05+00:00"}}`)

		p, err := payload.Parse(data)

		require.NoError(t, err)
		assert.Equal(t, 2026, p.CreatedAt.Year())
	})

	t.Run("missing event", func(t *testing.T) {
		data := []byte(`{"createdAt":"2026-01-02T03:04:05.000Z","model":"go-live","entry":{"triggeredBy":"x","triggeredAt":"2026-01-02T03:04:05.000Z"}}`)

		_, err := payload.Parse(data)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "event is required")
	})

	t.Run("bad timestamp", func(t *testing.T) {
		data := []byte(`{"event":"go-live.triggered","createdAt":"yesterday","model":"go-live","entry":{"triggeredBy":"x","triggeredAt":"2026-01-02T03:04:05.000Z"}}`)

		_, err := payload.Parse(data)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing createdAt")
	})

	t.Run("not json", func(t *testing.T) {
		var p payload.GoLive
		err := json.Unmarshal([]byte(`[`), &p)

		require.Error(t, err)
	})
}
