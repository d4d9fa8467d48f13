package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTradingDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"tuesday", "2026-08-25", true},
		{"saturday", "2026-08-29", false},
		{"sunday", "2026-08-30", false},
		{"republic_day", "2026-01-26", false},
		{"independence_day", "2026-08-15", false}, // и так суббота, и праздник
		{"diwali", "2026-11-09", false},
		{"day_after_diwali_holiday", "2026-11-10", false},
		{"regular_wednesday", "2026-11-11", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			day, err := time.Parse("2006-01-02", tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, isTradingDay(day))
		})
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	mins, err := parseClock("09:15")
	require.NoError(t, err)
	assert.Equal(t, 9*60+15, mins)

	mins, err = parseClock("15:30")
	require.NoError(t, err)
	assert.Equal(t, 15*60+30, mins)

	for _, bad := range []string{"", "915", "24:00", "09:60", "ab:cd"} {
		_, err := parseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsMarketHours(t *testing.T) {
	t.Parallel()

	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 25, h, m, 0, 0, time.UTC)
	}

	assert.False(t, isMarketHours(at(9, 14), "09:15", "15:30"))
	assert.True(t, isMarketHours(at(9, 15), "09:15", "15:30"))
	assert.True(t, isMarketHours(at(12, 0), "09:15", "15:30"))
	assert.True(t, isMarketHours(at(15, 29), "09:15", "15:30"))
	assert.False(t, isMarketHours(at(15, 30), "09:15", "15:30"))
	assert.False(t, isMarketHours(at(18, 0), "09:15", "15:30"))
}

func TestAtOrAfter(t *testing.T) {
	t.Parallel()

	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 25, h, m, 0, 0, time.UTC)
	}

	assert.False(t, atOrAfter(at(14, 59), "15:00"))
	assert.True(t, atOrAfter(at(15, 0), "15:00"))
	assert.True(t, atOrAfter(at(15, 20), "15:00"))
	assert.False(t, atOrAfter(at(15, 0), "хх:уу"))
}

func TestPreviousTradingDay(t *testing.T) {
	t.Parallel()

	// Понедельник -> прошлая пятница.
	mon := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-21", previousTradingDay(mon).Format("2006-01-02"))

	// Вторник после Дивали (09-10.11 выходные биржи) -> прошлая пятница.
	wed := time.Date(2026, 11, 11, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-11-06", previousTradingDay(wed).Format("2006-01-02"))
}
