package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ChatMessagesTotal      metric.Int64Counter
	ChatDurationSeconds    metric.Float64Histogram
	PointsAwardedTotal     metric.Int64Counter
	ArrivalsDetectedTotal  metric.Int64Counter
	RoutesCompletedTotal   metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments only once.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("family-journey")
		var err error
		m := &AppMetrics{}

		m.ChatMessagesTotal, err = meter.Int64Counter(
			"chat_messages_total",
			metric.WithDescription("Total number of chat messages processed"),
			metric.WithUnit("{message}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_messages_total: %v", err)
		}

		m.ChatDurationSeconds, err = meter.Float64Histogram(
			"chat_duration_seconds",
			metric.WithDescription("Duration of message-processing cycles in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_duration_seconds: %v", err)
		}

		m.PointsAwardedTotal, err = meter.Int64Counter(
			"points_awarded_total",
			metric.WithDescription("Total gamification points awarded across all families"),
			metric.WithUnit("{point}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create points_awarded_total: %v", err)
		}

		m.ArrivalsDetectedTotal, err = meter.Int64Counter(
			"arrivals_detected_total",
			metric.WithDescription("Total geofenced POI arrivals detected"),
			metric.WithUnit("{arrival}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create arrivals_detected_total: %v", err)
		}

		m.RoutesCompletedTotal, err = meter.Int64Counter(
			"routes_completed_total",
			metric.WithDescription("Total routes walked to completion"),
			metric.WithUnit("{route}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create routes_completed_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
