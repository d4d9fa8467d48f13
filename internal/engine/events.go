package engine

import (
	"context"

	"pivotbot/internal/exchange"
	"pivotbot/internal/journal"
	"pivotbot/internal/models"
)

func (e *Engine) handleEvents(ctx context.Context, events <-chan exchange.Event) {
	var lastSeq int64

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				e.logEntry().Warn("Канал событий WS закрыт.")
				return
			}
			switch event.Type {
			case exchange.EventTypeTick:
				if event.Tick == nil {
					continue
				}
				if event.Tick.Sequence > 0 && event.Tick.Sequence <= lastSeq {
					continue
				}
				if event.Tick.Sequence > 0 {
					lastSeq = event.Tick.Sequence
				}
				e.handleTick(*event.Tick)
			case exchange.EventTypeReconnect:
				e.logEntry().Info("Получен сигнал реконнекта WS.")
				e.state.AddEvent("Поток котировок переподключён.", models.SeverityWarn)
			}
		}
	}
}

// handleTick обновляет состояние между итерациями основного цикла: спот —
// рыночный срез, тик по опциону открытой сделки — её текущую премию.
func (e *Engine) handleTick(tick models.Tick) {
	if tick.LastPrice <= 0 {
		return
	}

	if tick.Symbol == e.cfg.Bot.SpotSymbol {
		e.mu.Lock()
		e.lastSpot = tick.LastPrice
		pivot := e.pivot
		bias := e.bias
		e.mu.Unlock()

		if pivot <= 0 {
			return
		}
		if err := e.state.UpdateMarket(tick.LastPrice, pivot, bias, models.MarketOpen); err != nil {
			e.logEntry().WithError(err).Debug("Тик спота отброшен.")
		}
		return
	}

	if active, ok := e.state.ActiveTrade(); ok && active.Symbol == tick.Symbol {
		if err := e.state.UpdateTradePrice(tick.LastPrice); err != nil {
			e.logEntry().WithError(err).Debug("Тик опциона отброшен.")
		}
	}
}

func toJournalRecord(rec models.ClosedTrade, date string, pivot, stopLoss, profitTarget float64) journal.Record {
	return journal.Record{
		TradeID:      rec.ID,
		Date:         date,
		Symbol:       rec.Symbol,
		Direction:    string(rec.Direction),
		EntryPrice:   rec.EntryPrice,
		ExitPrice:    rec.ExitPrice,
		Quantity:     rec.Quantity,
		PnL:          rec.PnL,
		PnLPercent:   rec.PnLPercent,
		ExitReason:   rec.ExitReason,
		EntryTime:    rec.EntryTime,
		ExitTime:     rec.ExitTime,
		StopLoss:     stopLoss,
		ProfitTarget: profitTarget,
		Pivot:        pivot,
	}
}
