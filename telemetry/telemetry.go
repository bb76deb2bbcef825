// Package telemetry wires structured logging and metrics through
// OpenTelemetry. Exporter endpoints follow the standard OTEL_* variables.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Telemetry bundles the logger and the server's instruments.
type Telemetry struct {
	Logger *slog.Logger

	RequestsServed   metric.Int64Counter
	ResponsesByClass metric.Int64Counter
	BytesSent        metric.Int64Counter

	loggerProvider *sdklog.LoggerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Setup builds the OTLP/gRPC exporters, installs the global providers
// and returns the instrumented handles. Call Shutdown on the way out.
func Setup(ctx context.Context, name string) (*Telemetry, error) {
	logExporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "log exporter")
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)
	global.SetLoggerProvider(loggerProvider)

	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "metric exporter")
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)
	otel.SetMeterProvider(meterProvider)

	tel := &Telemetry{
		Logger:         otelslog.NewLogger(name),
		loggerProvider: loggerProvider,
		meterProvider:  meterProvider,
	}

	meter := otel.Meter(name)
	if tel.RequestsServed, err = meter.Int64Counter("pebble.requests",
		metric.WithDescription("Requests accepted by the server loop"),
		metric.WithUnit("{request}")); err != nil {
		return nil, errors.Wrap(err, "requests counter")
	}
	if tel.ResponsesByClass, err = meter.Int64Counter("pebble.responses",
		metric.WithDescription("Responses sent, by status class attribute"),
		metric.WithUnit("{response}")); err != nil {
		return nil, errors.Wrap(err, "responses counter")
	}
	if tel.BytesSent, err = meter.Int64Counter("pebble.bytes_sent",
		metric.WithDescription("Response body bytes written"),
		metric.WithUnit("By")); err != nil {
		return nil, errors.Wrap(err, "bytes counter")
	}
	return tel, nil
}

// Shutdown flushes both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var firstErr error
	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NopLogger is the logger used when telemetry is not configured.
func NopLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
