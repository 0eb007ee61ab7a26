package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcelsud/go-live/trigger"
	"github.com/marcelsud/go-live/trigger/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticCounter map[string]int64

func (s staticCounter) CountByStatus(context.Context) (map[string]int64, error) {
	return s, nil
}

func scrape(t *testing.T, oe *OTelExporter) string {
	t.Helper()
	srv := httptest.NewServer(oe.ServeHTTP())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestOTelExporter_Observe(t *testing.T) {
	ctx := context.Background()
	oe, err := NewOTelExporter(nil)
	require.NoError(t, err)
	defer oe.Shutdown(ctx)

	target := trigger.ResolvedTarget{Name: "Vercel Prod", Source: trigger.FromDirectory}
	oe.ObserveDispatch(ctx, target, trigger.Outcome{Success: true}, 120*time.Millisecond)
	oe.ObserveDispatch(ctx, target, trigger.Outcome{Failure: trigger.Timeout, RecordingError: "not recorded"}, 15*time.Second)
	oe.ObserveRejection(ctx, &trigger.RejectionError{Kind: trigger.ErrUnauthorized})

	body := scrape(t, oe)

	assert.Contains(t, body, "go_live_triggers_total")
	assert.Contains(t, body, `result="success"`)
	assert.Contains(t, body, `failure="timeout"`)
	assert.Contains(t, body, `source="directory"`)
	assert.Contains(t, body, "go_live_rejections_total")
	assert.Contains(t, body, `kind="unauthorized"`)
	assert.Contains(t, body, "go_live_recording_failures_total")
	assert.Contains(t, body, "go_live_dispatch_duration_seconds")
}

func TestOTelExporter_Gauges(t *testing.T) {
	ctx := context.Background()
	directory := mocks.NewDirectory(t)
	directory.On("ListEnabled", mock.Anything).Return([]trigger.WebhookTarget{{ID: "1"}, {ID: "2"}}, nil)
	collector := NewStoreCollector(staticCounter{"success": 4, "failed": 1}, directory)

	oe, err := NewOTelExporter(collector)
	require.NoError(t, err)
	defer oe.Shutdown(ctx)

	body := scrape(t, oe)

	assert.Contains(t, body, "go_live_audit_records")
	assert.Contains(t, body, `status="success"`)
	assert.Contains(t, body, "go_live_webhooks_enabled")
}

func TestRejectionKind(t *testing.T) {
	assert.Equal(t, "not_found", rejectionKind(&trigger.RejectionError{Kind: trigger.ErrNotFound}))
	assert.Equal(t, "misconfigured", rejectionKind(&trigger.RejectionError{Kind: trigger.ErrMisconfigured}))
	assert.Equal(t, "unknown", rejectionKind(&trigger.RejectionError{Kind: errors.New("other")}))
	assert.Equal(t, "unknown", rejectionKind(nil))
}

func TestStoreCollector_Collect(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot", func(t *testing.T) {
		directory := mocks.NewDirectory(t)
		directory.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{{ID: "1"}}, nil)
		c := NewStoreCollector(staticCounter{"success": 2, "failed": 0}, directory)

		snap, err := c.Collect(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(2), snap.StatusCounts["success"])
		assert.Equal(t, int64(1), snap.EnabledWebhooks)
		assert.False(t, snap.Timestamp.IsZero())
	})

	t.Run("directory error", func(t *testing.T) {
		directory := mocks.NewDirectory(t)
		directory.On("ListEnabled", ctx).Return(nil, errors.New("redis down"))
		c := NewStoreCollector(staticCounter{}, directory)

		_, err := c.Collect(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting enabled webhooks")
	})
}
