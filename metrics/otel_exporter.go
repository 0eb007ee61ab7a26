package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/go-live/trigger"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter records trigger metrics with OpenTelemetry and serves them in Prometheus format.
// It implements trigger.Observer.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	meter              metric.Meter
	triggersCounter    metric.Int64Counter
	rejectionsCounter  metric.Int64Counter
	recordingFailures  metric.Int64Counter
	dispatchDuration   metric.Float64Histogram
	statusCountGauge   metric.Int64ObservableGauge
	enabledTargetGauge metric.Int64ObservableGauge
}

// NewOTelExporter creates the exporter on its own Prometheus registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	meter := meterProvider.Meter(
		"go-live",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.triggersCounter, err = oe.meter.Int64Counter(
		"go_live.triggers",
		metric.WithDescription("Dispatched go-live triggers by result and source"),
		metric.WithUnit("{triggers}"),
	)
	if err != nil {
		return fmt.Errorf("creating triggers counter: %w", err)
	}

	oe.rejectionsCounter, err = oe.meter.Int64Counter(
		"go_live.rejections",
		metric.WithDescription("Trigger requests rejected before dispatch"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating rejections counter: %w", err)
	}

	oe.recordingFailures, err = oe.meter.Int64Counter(
		"go_live.recording.failures",
		metric.WithDescription("Dispatched triggers whose audit record could not be written"),
		metric.WithUnit("{triggers}"),
	)
	if err != nil {
		return fmt.Errorf("creating recording failures counter: %w", err)
	}

	oe.dispatchDuration, err = oe.meter.Float64Histogram(
		"go_live.dispatch.duration",
		metric.WithDescription("Time spent calling the deployment webhook"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating dispatch duration histogram: %w", err)
	}

	if oe.collector == nil {
		return nil
	}

	oe.statusCountGauge, err = oe.meter.Int64ObservableGauge(
		"go_live.audit.records",
		metric.WithDescription("Number of audit records by status"),
		metric.WithUnit("{records}"),
		metric.WithInt64Callback(oe.observeStatusCounts),
	)
	if err != nil {
		return fmt.Errorf("creating status count gauge: %w", err)
	}

	oe.enabledTargetGauge, err = oe.meter.Int64ObservableGauge(
		"go_live.webhooks.enabled",
		metric.WithDescription("Number of enabled webhooks in the directory"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observeEnabledWebhooks),
	)
	if err != nil {
		return fmt.Errorf("creating enabled webhooks gauge: %w", err)
	}

	return nil
}

// ObserveRejection counts a rejected request by kind
func (oe *OTelExporter) ObserveRejection(ctx context.Context, rejection *trigger.RejectionError) {
	oe.rejectionsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", rejectionKind(rejection)),
	))
}

// ObserveDispatch counts a dispatch and records its latency
func (oe *OTelExporter) ObserveDispatch(ctx context.Context, target trigger.ResolvedTarget, outcome trigger.Outcome, elapsed time.Duration) {
	result := trigger.Success.String()
	if !outcome.Success {
		result = trigger.Failed.String()
	}
	attrs := metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("source", target.Source.String()),
		attribute.String("failure", outcome.Failure.String()),
	)
	oe.triggersCounter.Add(ctx, 1, attrs)
	oe.dispatchDuration.Record(ctx, elapsed.Seconds(), attrs)

	if outcome.RecordingError != "" {
		oe.recordingFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", target.Source.String()),
		))
	}
}

func rejectionKind(rejection *trigger.RejectionError) string {
	switch {
	case rejection == nil:
		return "unknown"
	case errors.Is(rejection, trigger.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(rejection, trigger.ErrNotFound):
		return "not_found"
	case errors.Is(rejection, trigger.ErrMisconfigured):
		return "misconfigured"
	default:
		return "unknown"
	}
}

func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	statusCounts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range statusCounts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("status", status),
		))
	}

	return nil
}

func (oe *OTelExporter) observeEnabledWebhooks(ctx context.Context, observer metric.Int64Observer) error {
	enabled, err := oe.collector.GetEnabledWebhooks(ctx)
	if err != nil {
		return err
	}
	observer.Observe(enabled)
	return nil
}

// ServeHTTP returns the handler for the Prometheus scrape endpoint
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
