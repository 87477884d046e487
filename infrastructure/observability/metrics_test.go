package observability

import (
	"context"
	"testing"
	"time"

	"rifa/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordEverything(mp *MetricsProvider) {
	mp.RecordInteraction(InteractionTypeCommand)
	mp.RecordHTTPRequest("GET", "/api/raffle", 200)
	mp.UpdateActiveSessions(1)
	mp.RecordPurchaseEvent("purchase_confirmed", 3)
	mp.RecordSelectionChange("random", 5)
	mp.RecordNATSMessagePublished("purchase_confirmed")
	mp.RecordLedgerWrite(false)
	mp.MeasureDatabaseQuery("ledger", "Record")()
}

func TestMetricsProvider_NilIsSafe(t *testing.T) {
	t.Parallel()

	var mp *MetricsProvider
	assert.False(t, mp.isEnabled())
	assert.NotPanics(t, func() { recordEverything(mp) })
}

func TestMetricsProvider_Initialize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		enabled     bool
		exporter    string
		wantErr     bool
		wantEnabled bool
	}{
		{name: "disabled", enabled: false, exporter: "console"},
		{name: "exporter none", enabled: true, exporter: "none"},
		{name: "console exporter", enabled: true, exporter: "console", wantEnabled: true},
		{name: "unknown exporter", enabled: true, exporter: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewTestConfig()
			cfg.OTelEnabled = tt.enabled
			cfg.OTelExporterType = tt.exporter
			cfg.OTelExportIntervalMillis = 60000

			mp := NewMetricsProvider(cfg)
			err := mp.Initialize(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnabled, mp.isEnabled())
			assert.NotPanics(t, func() { recordEverything(mp) })

			// Second initialization is a no-op
			require.NoError(t, mp.Initialize(context.Background()))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, mp.Shutdown(ctx))
		})
	}
}
