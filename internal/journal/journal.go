package journal

import (
	"fmt"
	"strings"
	"time"

	"pivotbot/internal/config"
)

// Record — одна закрытая сделка в журнале.
type Record struct {
	TradeID      string
	Date         string
	Symbol       string
	Direction    string
	EntryPrice   float64
	ExitPrice    float64
	Quantity     float64
	PnL          float64
	PnLPercent   float64
	ExitReason   string
	EntryTime    time.Time
	ExitTime     time.Time
	StopLoss     float64
	ProfitTarget float64
	Pivot        float64
}

// Stats — сводка за торговый день для вечернего отчёта.
type Stats struct {
	Trades   int
	Wins     int
	Losses   int
	WinRate  float64
	TotalPnL float64
	AvgWin   float64
	AvgLoss  float64
}

type Journal interface {
	Record(rec Record) error
	DayStats(date string) (Stats, error)
	Close() error
}

func New(cfg config.JournalConfig) (Journal, error) {
	switch strings.ToLower(cfg.Type) {
	case "csv", "":
		return NewCSV(cfg.File)
	case "sqlite":
		return NewSQLite(cfg.DBPath)
	default:
		return nil, fmt.Errorf("Неизвестный тип журнала: %q", cfg.Type)
	}
}

func calcStats(pnls []float64) Stats {
	s := Stats{Trades: len(pnls)}

	var winSum, lossSum float64
	for _, pnl := range pnls {
		s.TotalPnL += pnl
		if pnl > 0 {
			s.Wins++
			winSum += pnl
		} else {
			s.Losses++
			lossSum += pnl
		}
	}

	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	}
	if s.Wins > 0 {
		s.AvgWin = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = lossSum / float64(s.Losses)
	}
	return s
}
