package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"rifa/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// MetricsProvider manages OpenTelemetry metrics for the raffle service.
// Every Record method is safe to call on a nil or disabled provider.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	interactionsCounter       metric.Int64Counter
	httpRequestsCounter       metric.Int64Counter
	sessionsActiveGauge       metric.Int64UpDownCounter
	purchaseEventsCounter     metric.Int64Counter
	purchasedNumbersCounter   metric.Int64Counter
	selectionChangesCounter   metric.Int64Counter
	natsPublishedCounter      metric.Int64Counter
	ledgerWritesCounter       metric.Int64Counter
	databaseQueriesCounter    metric.Int64Counter
	databaseQueryDurationHist metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Info("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Infof("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("rifa")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.interactionsCounter, InteractionsTotal, "Total number of Discord interactions handled"},
		{&mp.httpRequestsCounter, HTTPRequestsTotal, "Total number of HTTP API requests"},
		{&mp.purchaseEventsCounter, PurchaseEventsTotal, "Total number of purchase lifecycle events"},
		{&mp.purchasedNumbersCounter, PurchasedNumbersTotal, "Total number of raffle numbers covered by purchase events"},
		{&mp.selectionChangesCounter, SelectionChangesTotal, "Total number of numbers added or removed from selections"},
		{&mp.natsPublishedCounter, NATSMessagesPublishedTotal, "Total number of NATS messages published"},
		{&mp.ledgerWritesCounter, LedgerWritesTotal, "Total number of purchase ledger writes"},
		{&mp.databaseQueriesCounter, DatabaseQueriesTotal, "Total number of database queries"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error

	// UpDownCounter for gauge-like behavior
	mp.sessionsActiveGauge, err = mp.meter.Int64UpDownCounter(
		SessionsActive,
		metric.WithDescription("Current number of live raffle sessions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sessions active gauge: %w", err)
	}

	mp.databaseQueryDurationHist, err = mp.meter.Float64Histogram(
		DatabaseQueryDuration,
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create database query duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordInteraction records a Discord interaction of the given type
func (mp *MetricsProvider) RecordInteraction(interactionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.interactionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, interactionType)),
	)
}

// RecordHTTPRequest records an API request by route template and status code
func (mp *MetricsProvider) RecordHTTPRequest(method, route string, status int) {
	if !mp.isEnabled() {
		return
	}
	mp.httpRequestsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelMethod, method),
			attribute.String(LabelRoute, route),
			attribute.String(LabelStatus, strconv.Itoa(status)),
		),
	)
}

// UpdateActiveSessions adjusts the live session gauge
func (mp *MetricsProvider) UpdateActiveSessions(delta int64) {
	if !mp.isEnabled() {
		return
	}
	mp.sessionsActiveGauge.Add(context.Background(), delta)
}

// RecordPurchaseEvent counts a purchase lifecycle event and the numbers it covers
func (mp *MetricsProvider) RecordPurchaseEvent(eventType string, quantity int) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(attribute.String(LabelEventType, eventType))
	mp.purchaseEventsCounter.Add(context.Background(), 1, attrs)
	mp.purchasedNumbersCounter.Add(context.Background(), int64(quantity), attrs)
}

// RecordSelectionChange counts numbers changed by a selection operation
func (mp *MetricsProvider) RecordSelectionChange(op string, changed int) {
	if !mp.isEnabled() {
		return
	}
	mp.selectionChangesCounter.Add(context.Background(), int64(changed),
		metric.WithAttributes(attribute.String(LabelOp, op)),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordLedgerWrite records the outcome of a ledger write
func (mp *MetricsProvider) RecordLedgerWrite(success bool) {
	if !mp.isEnabled() {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	mp.ledgerWritesCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelStatus, status)),
	)
}

// RecordDatabaseQuery records a database query with duration
func (mp *MetricsProvider) RecordDatabaseQuery(repository, method string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelRepository, repository),
		attribute.String(LabelMethod, method),
	)

	mp.databaseQueriesCounter.Add(context.Background(), 1, attrs)
	mp.databaseQueryDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// MeasureDatabaseQuery returns a function to measure database query duration
// Usage:
//
//	defer mp.MeasureDatabaseQuery("ledger", "Record")()
func (mp *MetricsProvider) MeasureDatabaseQuery(repository, method string) func() {
	start := time.Now()
	return func() {
		mp.RecordDatabaseQuery(repository, method, time.Since(start))
	}
}

// isEnabled checks that metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider; nil before initialization,
// which every Record method tolerates
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
