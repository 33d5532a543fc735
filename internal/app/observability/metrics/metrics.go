package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	HTTPRequestsTotal       metric.Int64Counter
	HTTPRequestDuration     metric.Float64Histogram
	AuthAttemptsTotal       metric.Int64Counter
	BookingActionsTotal     metric.Int64Counter
	UpstreamRequestDuration metric.Float64Histogram
	UpstreamErrorsTotal     metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("clinic-portal")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthAttemptsTotal, err = meter.Int64Counter(
			"auth_attempts_total",
			metric.WithDescription("Total number of login/register attempts by portal and outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_attempts_total: %v", err)
		}

		m.BookingActionsTotal, err = meter.Int64Counter(
			"booking_actions_total",
			metric.WithDescription("Total number of booking lifecycle actions by action and outcome"),
			metric.WithUnit("{action}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create booking_actions_total: %v", err)
		}

		m.UpstreamRequestDuration, err = meter.Float64Histogram(
			"upstream_request_duration_seconds",
			metric.WithDescription("Duration of backend API calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_request_duration_seconds: %v", err)
		}

		m.UpstreamErrorsTotal, err = meter.Int64Counter(
			"upstream_errors_total",
			metric.WithDescription("Total number of failed backend API calls"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// RecordUpstreamRequest records one backend call. Safe to call before
// InitAppMetrics so unit tests don't need the meter provider.
func RecordUpstreamRequest(ctx context.Context, method, path string, d time.Duration, err error) {
	if appMetrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)
	appMetrics.UpstreamRequestDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		appMetrics.UpstreamErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordHTTPRequest records one served request with its route and status.
func RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if appMetrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	appMetrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
	appMetrics.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordAuthAttempt counts a login/register attempt per portal.
func RecordAuthAttempt(ctx context.Context, portal, outcome string) {
	if appMetrics == nil {
		return
	}
	appMetrics.AuthAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("portal", portal),
		attribute.String("outcome", outcome),
	))
}

// RecordBookingAction counts a lifecycle action per surface.
func RecordBookingAction(ctx context.Context, surface, action, outcome string) {
	if appMetrics == nil {
		return
	}
	appMetrics.BookingActionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("surface", surface),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}
