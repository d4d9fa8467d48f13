package state

import "pivotbot/internal/models"

// Snapshot — согласованный срез всего агрегата на один момент времени.
// Все контейнеры скопированы: дальнейшие мутации менеджера уже полученный
// срез не меняют, сериализовать его можно без блокировок.
type Snapshot struct {
	MarketStatus    models.MarketStatus   `json:"market_status"`
	SpotPrice       float64               `json:"spot_price"`
	Pivot           float64               `json:"pivot"`
	Bias            models.Bias           `json:"bias"`
	Status          models.StrategyStatus `json:"status"`
	DistanceToPivot float64               `json:"distance_to_pivot"`
	InTrade         bool                  `json:"in_trade"`
	CurrentTrade    *CurrentTrade         `json:"current_trade"`
	Trades          []models.ClosedTrade  `json:"trades"`
	Events          []models.Event        `json:"events"`
	Metrics         Metrics               `json:"metrics"`
	Mode            string                `json:"mode"`
	CurrentDate     string                `json:"current_date"`
}

type CurrentTrade struct {
	models.ActiveTrade
	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnl_percent"`
}

// Snapshot собирает срез под мьютексом; производные поля (distance_to_pivot,
// PnL открытой сделки, метрики) пересчитываются при каждом вызове и нигде
// не кэшируются.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		MarketStatus:    m.market.Status,
		SpotPrice:       m.market.SpotPrice,
		Pivot:           m.market.PivotPrice,
		Bias:            m.market.Bias,
		Status:          m.status,
		DistanceToPivot: m.market.SpotPrice - m.market.PivotPrice,
		Trades:          m.trades.items(),
		Events:          m.events.items(),
		Mode:            m.mode,
		CurrentDate:     m.tradingDate,
	}

	if m.active != nil {
		t := *m.active
		snap.InTrade = true
		snap.CurrentTrade = &CurrentTrade{
			ActiveTrade: t,
			PnL:         t.PnL(),
			PnLPercent:  t.PnLPercent(),
		}
	}

	snap.Metrics = calcMetrics(snap.Trades)
	return snap
}
