package state

import (
	"testing"

	"pivotbot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalcMetrics(t *testing.T) {
	t.Parallel()

	trades := func(pnls ...float64) []models.ClosedTrade {
		out := make([]models.ClosedTrade, len(pnls))
		for i, pnl := range pnls {
			out[i] = models.ClosedTrade{PnL: pnl}
		}
		return out
	}

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		m := calcMetrics(nil)
		assert.Zero(t, m.TotalTrades)
		assert.Zero(t, m.WinRate)
		assert.Zero(t, m.TotalPnL)
		assert.Zero(t, m.MaxDrawdown)
	})

	t.Run("mixed", func(t *testing.T) {
		t.Parallel()
		m := calcMetrics(trades(100, -50, 30, -200))
		assert.Equal(t, 4, m.TotalTrades)
		assert.Equal(t, 2, m.Wins)
		assert.Equal(t, 2, m.Losses)
		assert.InDelta(t, 50.0, m.WinRate, 1e-9)
		assert.InDelta(t, -120.0, m.TotalPnL, 1e-9)
		// Накопленная сумма: 100, 50, 80, -120 — минимум и есть просадка.
		assert.InDelta(t, -120.0, m.MaxDrawdown, 1e-9)
	})

	t.Run("all_wins_zero_drawdown", func(t *testing.T) {
		t.Parallel()
		m := calcMetrics(trades(10, 20, 30))
		assert.Equal(t, 3, m.Wins)
		assert.Zero(t, m.Losses)
		assert.InDelta(t, 100.0, m.WinRate, 1e-9)
		assert.Zero(t, m.MaxDrawdown)
	})

	t.Run("zero_pnl_counts_as_loss", func(t *testing.T) {
		t.Parallel()
		m := calcMetrics(trades(0))
		assert.Equal(t, 0, m.Wins)
		assert.Equal(t, 1, m.Losses)
	})

	t.Run("drawdown_midway", func(t *testing.T) {
		t.Parallel()
		// Минимум в середине серии: -150, затем восстановление.
		m := calcMetrics(trades(-100, -50, 300))
		assert.InDelta(t, -150.0, m.MaxDrawdown, 1e-9)
		assert.InDelta(t, 150.0, m.TotalPnL, 1e-9)
	})
}
