package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRaffleConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  RaffleConfig
		wantErr bool
	}{
		{
			name:   "default config is valid",
			config: DefaultRaffleConfig(),
		},
		{
			name:    "zero price",
			config:  RaffleConfig{PricePerNumber: decimal.Zero, TotalNumbers: 10},
			wantErr: true,
		},
		{
			name:    "negative price",
			config:  RaffleConfig{PricePerNumber: decimal.MustNew(-1, 0), TotalNumbers: 10},
			wantErr: true,
		},
		{
			name:    "zero total",
			config:  RaffleConfig{PricePerNumber: decimal.MustNew(1, 0), TotalNumbers: 0},
			wantErr: true,
		},
		{
			name:   "total at upper bound",
			config: RaffleConfig{PricePerNumber: decimal.MustNew(1, 0), TotalNumbers: MaxTotalNumbers},
		},
		{
			name:    "total above upper bound",
			config:  RaffleConfig{PricePerNumber: decimal.MustNew(1, 0), TotalNumbers: MaxTotalNumbers + 1},
			wantErr: true,
		},
		{
			name:   "fractional price",
			config: RaffleConfig{PricePerNumber: decimal.MustNew(250, 2), TotalNumbers: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRaffleConfigUpdate_Apply(t *testing.T) {
	t.Parallel()

	base := DefaultRaffleConfig()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		t.Parallel()

		updated, err := RaffleConfigUpdate{Title: ptr("PlayStation 5")}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, "PlayStation 5", updated.Title)
		assert.Equal(t, base.TotalNumbers, updated.TotalNumbers)
		assert.Equal(t, 0, updated.PricePerNumber.Cmp(base.PricePerNumber))
		assert.Equal(t, base.Description, updated.Description)
	})

	t.Run("invalid update leaves config unchanged", func(t *testing.T) {
		t.Parallel()

		updated, err := RaffleConfigUpdate{TotalNumbers: ptr(0), Title: ptr("x")}.Apply(base)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Equal(t, base.Title, updated.Title)
		assert.Equal(t, base.TotalNumbers, updated.TotalNumbers)
	})

	t.Run("images and draw date are copied", func(t *testing.T) {
		t.Parallel()

		images := []string{"https://img.example/1.jpg"}
		draw := time.Date(2026, 12, 24, 20, 0, 0, 0, time.UTC)
		updated, err := RaffleConfigUpdate{Images: images, DrawDate: &draw}.Apply(base)
		require.NoError(t, err)

		images[0] = "mutated"
		draw = draw.Add(time.Hour)
		assert.Equal(t, []string{"https://img.example/1.jpg"}, updated.Images)
		require.NotNil(t, updated.DrawDate)
		assert.Equal(t, 20, updated.DrawDate.Hour())
	})
}

func TestRaffleConfigUpdate_ChangesPricing(t *testing.T) {
	t.Parallel()

	base := DefaultRaffleConfig()

	assert.False(t, RaffleConfigUpdate{Title: ptr("x")}.ChangesPricing(base))
	assert.False(t, RaffleConfigUpdate{TotalNumbers: ptr(base.TotalNumbers)}.ChangesPricing(base))
	assert.False(t, RaffleConfigUpdate{PricePerNumber: ptr(decimal.MustNew(1000, 2))}.ChangesPricing(base))
	assert.True(t, RaffleConfigUpdate{TotalNumbers: ptr(50)}.ChangesPricing(base))
	assert.True(t, RaffleConfigUpdate{PricePerNumber: ptr(decimal.MustNew(5, 0))}.ChangesPricing(base))
	assert.True(t, RaffleConfigUpdate{}.IsEmpty())
}
