package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pivotbot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id, date string, pnl float64) Record {
	entry := time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC)
	return Record{
		TradeID:      id,
		Date:         date,
		Symbol:       "NIFTY26AUG22100CE",
		Direction:    "CALL",
		EntryPrice:   142.50,
		ExitPrice:    142.50 + pnl/65,
		Quantity:     65,
		PnL:          pnl,
		PnLPercent:   pnl / (142.50 * 65) * 100,
		ExitReason:   "PROFIT_TARGET",
		EntryTime:    entry,
		ExitTime:     entry.Add(45 * time.Minute),
		StopLoss:     128.25,
		ProfitTarget: 156.75,
		Pivot:        22100,
	}
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	j, err := New(config.JournalConfig{Type: "csv", File: filepath.Join(dir, "trades.csv")})
	require.NoError(t, err)
	assert.IsType(t, &CSVJournal{}, j)
	require.NoError(t, j.Close())

	j, err = New(config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "trades.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteJournal{}, j)
	require.NoError(t, j.Close())

	_, err = New(config.JournalConfig{Type: "parquet"})
	assert.Error(t, err)
}

func TestCSVRecordAndStats(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	require.NoError(t, j.Record(sampleRecord("a1", "2026-08-25", 650)))
	require.NoError(t, j.Record(sampleRecord("a2", "2026-08-25", -325)))
	require.NoError(t, j.Record(sampleRecord("a3", "2026-08-24", 100)))

	stats, err := j.DayStats("2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Trades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 325.0, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 650.0, stats.AvgWin, 1e-9)
	assert.InDelta(t, -325.0, stats.AvgLoss, 1e-9)

	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4) // заголовок + 3 сделки
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
}

func TestCSVAppendAfterReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(sampleRecord("a1", "2026-08-25", 650)))
	require.NoError(t, j.Close())

	// Перезапуск бота: заголовок не дублируется, записи дописываются.
	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(sampleRecord("a2", "2026-08-25", -325)))

	stats, err := j.DayStats("2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Trades)
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "trade_id"))
}

func TestSQLiteRecordAndStats(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(sampleRecord("b1", "2026-08-25", 650)))
	require.NoError(t, j.Record(sampleRecord("b2", "2026-08-25", -130)))
	require.NoError(t, j.Record(sampleRecord("b3", "2026-08-26", 75)))

	stats, err := j.DayStats("2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Trades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 520.0, stats.TotalPnL, 1e-9)

	empty, err := j.DayStats("2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Trades)
	assert.Zero(t, empty.TotalPnL)
}

func TestSQLiteDuplicateTradeID(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(sampleRecord("dup", "2026-08-25", 10)))
	assert.Error(t, j.Record(sampleRecord("dup", "2026-08-25", 20)))
}
