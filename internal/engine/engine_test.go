package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pivotbot/internal/config"
	"pivotbot/internal/exchange"
	"pivotbot/internal/journal"
	"pivotbot/internal/logger"
	"pivotbot/internal/models"
	"pivotbot/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	spot        float64
	optionQuote float64
	daily       models.Candle
	biasCandle  models.Candle
	instruments []exchange.Instrument
}

func (f *fakeClient) GetLTP(_ context.Context, _, symbol string) (float64, error) {
	if symbol == "NIFTY" {
		return f.spot, nil
	}
	return f.optionQuote, nil
}

func (f *fakeClient) GetCandles(_ context.Context, _ string, intervalMinutes int, _, _ time.Time) ([]models.Candle, error) {
	if intervalMinutes >= 1440 {
		return []models.Candle{f.daily}, nil
	}
	return []models.Candle{f.biasCandle}, nil
}

func (f *fakeClient) GetInstruments(_ context.Context, _ string) ([]exchange.Instrument, error) {
	return f.instruments, nil
}

func (f *fakeClient) Subscribe(_ context.Context, _ []string) (<-chan exchange.Event, error) {
	return make(chan exchange.Event), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Bot: config.BotConfig{
			Underlying:          "NIFTY",
			SpotSymbol:          "NIFTY",
			Segment:             "CASH",
			LotSize:             65,
			TradeLots:           1,
			MaxDailyTrades:      2,
			PivotBufferPoints:   25,
			StopLossPercent:     10,
			ProfitTargetPercent: 10,
			MarketOpen:          "09:15",
			MarketClose:         "15:30",
			EntryCutoff:         "15:20",
			EODExit:             "15:20",
			BiasCandleStart:     "09:15",
			BiasCandleEnd:       "09:20",
			MinSpotPrice:        15000,
			MaxSpotPrice:        30000,
			MinOptionPrice:      1,
			MaxOptionPrice:      1000,
		},
		Runtime: config.RuntimeConfig{Mode: "PAPER"},
	}
}

func newTestEngine(t *testing.T, client *fakeClient) (*Engine, *state.Manager, journal.Journal) {
	t.Helper()

	st := state.New(10, 50, "PAPER")
	log := logger.New(logger.Config{Level: "error"})
	jrnl, err := journal.NewCSV(filepath.Join(t.TempDir(), "trades.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { jrnl.Close() })

	eng, err := New(testConfig(), client, st, jrnl, log)
	require.NoError(t, err)
	return eng, st, jrnl
}

func istTime(day string, h, m int) time.Time {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	d, _ := time.ParseInLocation("2006-01-02", day, loc)
	return d.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func bullishClient() *fakeClient {
	return &fakeClient{
		spot:        22110,
		optionQuote: 142.50,
		daily:       models.Candle{High: 22200, Low: 22000, Close: 22100}, // pivot 22100
		biasCandle:  models.Candle{Open: 22050, Close: 22090},
		instruments: []exchange.Instrument{
			{
				TradingSymbol:  "NIFTY26AUG22100CE",
				InstrumentType: "CE",
				StrikePrice:    22100,
				Expiry:         time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
				LotSize:        65,
				BuyAllowed:     true,
			},
			{
				TradingSymbol:  "NIFTY26AUG22100PE",
				InstrumentType: "PE",
				StrikePrice:    22100,
				Expiry:         time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
				LotSize:        65,
				BuyAllowed:     true,
			},
		},
	}
}

func TestStepEntersTradeOnPullback(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	sleep := eng.step(ctx, istTime("2026-08-25", 10, 0))

	assert.Equal(t, sleepInTrade, sleep)
	require.True(t, st.InTrade())
	active, _ := st.ActiveTrade()
	assert.Equal(t, "NIFTY26AUG22100CE", active.Symbol)
	assert.Equal(t, models.DirectionCall, active.Direction)
	assert.Equal(t, 142.50, active.EntryPrice)
	assert.Equal(t, 65.0, active.Quantity)
	assert.InDelta(t, 142.50*0.9, active.StopLoss, 1e-9)
	assert.InDelta(t, 142.50*1.1, active.ProfitTarget, 1e-9)

	status, _ := st.Status()
	assert.Equal(t, models.StatusInTrade, status)

	snap := st.Snapshot()
	assert.InDelta(t, 22100.0, snap.Pivot, 1e-9)
	assert.Equal(t, models.BiasBullish, snap.Bias)
}

func TestStepExitsOnProfitTarget(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, jrnl := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 10, 0))
	require.True(t, st.InTrade())

	client.optionQuote = 160 // выше тейк-профита 156.75
	eng.step(ctx, istTime("2026-08-25", 10, 5))

	assert.False(t, st.InTrade())
	snap := st.Snapshot()
	require.Len(t, snap.Trades, 1)
	assert.Equal(t, "PROFIT_TARGET", snap.Trades[0].ExitReason)
	assert.InDelta(t, (160-142.50)*65, snap.Trades[0].PnL, 1e-6)

	status, _ := st.Status()
	assert.Equal(t, models.StatusWaitingForPullback, status)

	stats, err := jrnl.DayStats("2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Trades)
	assert.Equal(t, 1, stats.Wins)
}

func TestStepExitsOnStopLoss(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 10, 0))
	require.True(t, st.InTrade())

	client.optionQuote = 120 // ниже стоп-лосса 128.25
	eng.step(ctx, istTime("2026-08-25", 10, 5))

	assert.False(t, st.InTrade())
	snap := st.Snapshot()
	require.Len(t, snap.Trades, 1)
	assert.Equal(t, "STOP_LOSS", snap.Trades[0].ExitReason)
	assert.Negative(t, snap.Trades[0].PnL)
}

func TestStepForcesEODExit(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 10, 0))
	require.True(t, st.InTrade())

	client.optionQuote = 145 // внутри коридора SL/PT
	eng.step(ctx, istTime("2026-08-25", 15, 21))

	assert.False(t, st.InTrade())
	snap := st.Snapshot()
	require.Len(t, snap.Trades, 1)
	assert.Equal(t, "EOD_EXIT", snap.Trades[0].ExitReason)
}

func TestStepRespectsDailyTradeLimit(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		eng.step(ctx, istTime("2026-08-25", 10, i*10))
		require.True(t, st.InTrade())
		client.optionQuote = 160
		eng.step(ctx, istTime("2026-08-25", 10, i*10+5))
		require.False(t, st.InTrade())
		client.optionQuote = 142.50
	}

	status, _ := st.Status()
	assert.Equal(t, models.StatusTradeLimitReached, status)

	eng.step(ctx, istTime("2026-08-25", 11, 0))
	assert.False(t, st.InTrade())
	assert.Len(t, st.Snapshot().Trades, 2)
}

func TestStepRejectsLotSizeMismatch(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	for i := range client.instruments {
		client.instruments[i].LotSize = 50 // контракт на 50, конфиг на 65
	}
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 10, 0))

	assert.False(t, st.InTrade())
	assert.Empty(t, st.Snapshot().Trades)
}

func TestStepNoTradeOnNeutralBias(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	client.biasCandle = models.Candle{Open: 22100, Close: 22100}
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 10, 0))

	assert.False(t, st.InTrade())
	status, _ := st.Status()
	assert.Equal(t, models.StatusNoTradeToday, status)
}

func TestStepWaitsOutsidePivotZone(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	client.spot = 22200 // на 100 пунктов выше pivot
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 10, 0))

	assert.False(t, st.InTrade())
	status, _ := st.Status()
	assert.Equal(t, models.StatusWaitingForPullback, status)
}

func TestStepBlocksAfterEntryCutoff(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 15, 21))

	assert.False(t, st.InTrade())
	status, _ := st.Status()
	assert.Equal(t, models.StatusEntryCutoffReached, status)
}

func TestStepMarketClosedStates(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	// Выходной.
	sleep := eng.step(ctx, istTime("2026-08-29", 10, 0))
	assert.Equal(t, sleepMarketClosed, sleep)
	status, _ := st.Status()
	assert.Equal(t, models.StatusMarketClosed, status)

	// Будний день до открытия.
	eng.step(ctx, istTime("2026-08-25", 8, 0))
	status, _ = st.Status()
	assert.Equal(t, models.StatusWaitingForMarket, status)

	// После закрытия.
	eng.step(ctx, istTime("2026-08-25", 16, 0))
	status, _ = st.Status()
	assert.Equal(t, models.StatusMarketClosed, status)
}

func TestHandleTickUpdatesSpotAndTrade(t *testing.T) {
	t.Parallel()

	client := bullishClient()
	eng, st, _ := newTestEngine(t, client)
	ctx := context.Background()

	eng.step(ctx, istTime("2026-08-25", 10, 0))
	require.True(t, st.InTrade())

	eng.handleTick(models.Tick{Symbol: "NIFTY", LastPrice: 22120})
	assert.Equal(t, 22120.0, st.Snapshot().SpotPrice)

	eng.handleTick(models.Tick{Symbol: "NIFTY26AUG22100CE", LastPrice: 150})
	active, _ := st.ActiveTrade()
	assert.Equal(t, 150.0, active.CurrentPrice)

	// Чужой тик состояние не трогает.
	eng.handleTick(models.Tick{Symbol: "BANKNIFTY", LastPrice: 48000})
	assert.Equal(t, 22120.0, st.Snapshot().SpotPrice)
}
