package state

import "pivotbot/internal/models"

type Metrics struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	TotalPnL    float64 `json:"total_pnl"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// calcMetrics считает сводку по удержанным в истории сделкам.
// MaxDrawdown — минимум накопленной суммы realized P&L в порядке закрытия
// сделок (<= 0, ноль если сумма никогда не уходила в минус).
func calcMetrics(trades []models.ClosedTrade) Metrics {
	m := Metrics{TotalTrades: len(trades)}

	running := 0.0
	for _, t := range trades {
		if t.PnL > 0 {
			m.Wins++
		} else {
			m.Losses++
		}
		m.TotalPnL += t.PnL
		running += t.PnL
		if running < m.MaxDrawdown {
			m.MaxDrawdown = running
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.Wins) / float64(m.TotalTrades) * 100
	}
	return m
}
