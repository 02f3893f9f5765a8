package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/mediator/config"
	"github.com/kbukum/mediator/errors"
	"github.com/kbukum/mediator/logger"
)

// MeterConfig configures metric export over OTLP/HTTP.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string // host:port
	Insecure       bool
	Interval       time.Duration
}

// MeterConfigFrom builds a MeterConfig from the service and metrics
// sections of a loaded configuration.
func MeterConfigFrom(svc *config.ServiceConfig, mc config.MetricsConfig) MeterConfig {
	return MeterConfig{
		ServiceName:    svc.Name,
		ServiceVersion: svc.Version,
		Environment:    svc.Environment,
		Endpoint:       mc.Endpoint,
		Insecure:       mc.Insecure,
		Interval:       mc.Interval,
	}
}

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		logger.FieldService, cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricDispatchTotal    = "mediator.dispatch.total"
	MetricDispatchDuration = "mediator.dispatch.duration"
	MetricDispatchActive   = "mediator.dispatch.active"
	MetricDispatchErrors   = "mediator.dispatch.errors"
	MetricPublishTotal     = "mediator.publish.total"
)

// DispatchMetrics holds the instruments recorded for every dispatch.
type DispatchMetrics struct {
	dispatchTotal    metric.Int64Counter
	dispatchDuration metric.Float64Histogram
	dispatchActive   metric.Int64UpDownCounter
	dispatchErrors   metric.Int64Counter
	publishTotal     metric.Int64Counter
}

// NewDispatchMetrics creates the dispatch instruments on meter.
func NewDispatchMetrics(meter metric.Meter) (*DispatchMetrics, error) {
	dispatchTotal, err := meter.Int64Counter(MetricDispatchTotal,
		metric.WithDescription("Total number of dispatched requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDispatchTotal, err)
	}

	dispatchDuration, err := meter.Float64Histogram(MetricDispatchDuration,
		metric.WithDescription("Duration of dispatched requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDispatchDuration, err)
	}

	dispatchActive, err := meter.Int64UpDownCounter(MetricDispatchActive,
		metric.WithDescription("Number of requests currently in a chain"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricDispatchActive, err)
	}

	dispatchErrors, err := meter.Int64Counter(MetricDispatchErrors,
		metric.WithDescription("Failed dispatches by request type and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDispatchErrors, err)
	}

	publishTotal, err := meter.Int64Counter(MetricPublishTotal,
		metric.WithDescription("Total number of published notifications"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPublishTotal, err)
	}

	return &DispatchMetrics{
		dispatchTotal:    dispatchTotal,
		dispatchDuration: dispatchDuration,
		dispatchActive:   dispatchActive,
		dispatchErrors:   dispatchErrors,
		publishTotal:     publishTotal,
	}, nil
}

// RecordStart marks a request as in flight.
func (m *DispatchMetrics) RecordStart(ctx context.Context, requestType, kind string) {
	m.dispatchActive.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrRequestType, requestType),
		attribute.String(AttrKind, kind),
	))
}

// RecordDispatch records a finished dispatch and releases its in-flight mark.
func (m *DispatchMetrics) RecordDispatch(ctx context.Context, requestType, kind string, err error, duration time.Duration) {
	base := []attribute.KeyValue{
		attribute.String(AttrRequestType, requestType),
		attribute.String(AttrKind, kind),
	}
	m.dispatchActive.Add(ctx, -1, metric.WithAttributes(base...))
	m.dispatchTotal.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String(AttrStatus, Status(err)))...))
	m.dispatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(base...))
	if err != nil {
		m.dispatchErrors.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String(AttrErrorCode, ErrorCode(err)))...))
	}
}

// RecordPublish records one published notification.
func (m *DispatchMetrics) RecordPublish(ctx context.Context, notificationType string, err error) {
	m.publishTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrRequestType, notificationType),
		attribute.String(AttrStatus, Status(err)),
	))
}

// Status returns "ok" for a nil error and "error" otherwise.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

// ErrorCode returns the AppError code of err, "CANCELED" for context
// cancellation, or "UNKNOWN".
func ErrorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return "CANCELED"
	}
	return "UNKNOWN"
}
