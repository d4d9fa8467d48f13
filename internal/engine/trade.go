package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"pivotbot/internal/models"
)

// doubleQuoteMaxDiffPercent — допустимое расхождение двух последовательных
// котировок премии перед входом.
const doubleQuoteMaxDiffPercent = 5.0

func (e *Engine) ensureInstruments(ctx context.Context) error {
	e.mu.Lock()
	loaded := len(e.instruments) > 0
	e.mu.Unlock()
	if loaded {
		return nil
	}

	instruments, err := e.client.GetInstruments(ctx, e.cfg.Bot.Underlying)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.instruments = instruments
	e.mu.Unlock()
	e.logEntry().WithField("count", len(instruments)).Info("Справочник инструментов загружен.")
	return nil
}

// resolveOptionSymbol подбирает ITM-опцион под текущий спот: страйк в
// деньгах, ближайшая недельная экспирация. Без справочника тикер строится
// синтетически.
func (e *Engine) resolveOptionSymbol(ctx context.Context, now time.Time, spot float64, direction models.Direction) (string, error) {
	strike := ITMStrike(spot, direction)

	if err := e.ensureInstruments(ctx); err != nil {
		e.logEntry().WithError(err).Warn("Справочник инструментов недоступен, тикер строится синтетически.")
	}

	e.mu.Lock()
	instruments := e.instruments
	e.mu.Unlock()

	if len(instruments) > 0 {
		expiry, ok := NearestWeeklyExpiry(instruments, now)
		if !ok {
			return "", fmt.Errorf("Нет недельной экспирации в ближайшие 7 дней.")
		}
		inst, ok := findOption(instruments, expiry, strike, direction)
		if !ok {
			return "", fmt.Errorf("Опцион не найден: strike=%d %s.", int(strike), direction)
		}
		if !inst.BuyAllowed {
			return "", fmt.Errorf("Покупка опциона запрещена брокером: %s.", inst.TradingSymbol)
		}
		if inst.LotSize > 0 && inst.LotSize != e.cfg.Bot.LotSize {
			return "", fmt.Errorf("Лот инструмента %s не совпадает с настройкой: %d != %d.", inst.TradingSymbol, inst.LotSize, e.cfg.Bot.LotSize)
		}
		return inst.TradingSymbol, nil
	}

	expiry := nextThursday(now)
	return syntheticOptionSymbol(e.cfg.Bot.Underlying, expiry, strike, direction), nil
}

func (e *Engine) enterPosition(ctx context.Context, now time.Time, spot float64, bias models.Bias) error {
	direction, ok := DirectionForBias(bias)
	if !ok {
		return fmt.Errorf("Вход невозможен при bias=%s.", bias)
	}

	symbol, err := e.resolveOptionSymbol(ctx, now, spot, direction)
	if err != nil {
		return err
	}

	first, err := e.fetchOptionQuote(ctx, symbol)
	if err != nil {
		return err
	}

	// Вторая котировка отсекает вход по сорванной цене.
	second, err := e.fetchOptionQuote(ctx, symbol)
	if err != nil {
		return err
	}
	diffPercent := math.Abs(second-first) / first * 100
	if diffPercent > doubleQuoteMaxDiffPercent {
		return fmt.Errorf("Котировки премии расходятся на %.1f%%, вход отменён.", diffPercent)
	}

	entry := second
	qty := float64(e.cfg.Bot.LotSize * e.cfg.Bot.TradeLots)
	stopLoss := entry * (1 - e.cfg.Bot.StopLossPercent/100)
	profitTarget := entry * (1 + e.cfg.Bot.ProfitTargetPercent/100)

	if err := e.paperBuy(symbol, entry, qty); err != nil {
		return err
	}

	if err := e.state.EnterTrade(symbol, direction, entry, qty, stopLoss, profitTarget); err != nil {
		return fmt.Errorf("Не удалось зафиксировать вход: %w", err)
	}

	e.mu.Lock()
	e.tradesToday++
	tradesToday := e.tradesToday
	e.mu.Unlock()

	e.state.UpdateStrategyStatus(models.StatusInTrade)
	e.logEntry().WithFields(map[string]interface{}{
		"option":        symbol,
		"direction":     direction,
		"entry":         entry,
		"qty":           qty,
		"stop_loss":     stopLoss,
		"profit_target": profitTarget,
		"trades_today":  tradesToday,
	}).Info("Вход в сделку.")
	return nil
}

// managePosition ведёт открытую позицию: принудительный выход в конце дня,
// затем стоп-лосс и тейк-профит по свежей премии.
func (e *Engine) managePosition(ctx context.Context, now time.Time) {
	active, ok := e.state.ActiveTrade()
	if !ok {
		return
	}

	if atOrAfter(now, e.cfg.Bot.EODExit) {
		price, err := e.fetchOptionQuote(ctx, active.Symbol)
		if err != nil {
			// Премия недоступна, а позицию на ночь оставлять нельзя.
			e.logEntry().WithError(err).Warn("Премия недоступна, EOD-выход по цене входа.")
			price = active.EntryPrice
		}
		e.exitPosition(price, "EOD_EXIT")
		return
	}

	price, err := e.fetchOptionQuote(ctx, active.Symbol)
	if err != nil {
		e.logEntry().WithError(err).Warn("Не удалось обновить премию открытой сделки.")
		return
	}

	if err := e.state.UpdateTradePrice(price); err != nil {
		e.logEntry().WithError(err).Warn("Не удалось обновить цену сделки.")
		return
	}

	switch {
	case price <= active.StopLoss:
		e.exitPosition(price, "STOP_LOSS")
	case price >= active.ProfitTarget:
		e.exitPosition(price, "PROFIT_TARGET")
	}
}

func (e *Engine) exitPosition(price float64, reason string) {
	active, ok := e.state.ActiveTrade()
	if !ok {
		return
	}

	if err := e.paperSell(active.Symbol, price, active.Quantity); err != nil {
		e.logEntry().WithError(err).Error("Не удалось закрыть позицию.")
		return
	}

	rec, err := e.state.ExitTrade(price, reason)
	if err != nil {
		e.logEntry().WithError(err).Error("Не удалось зафиксировать выход.")
		return
	}

	e.mu.Lock()
	tradesToday := e.tradesToday
	pivot := e.pivot
	date := e.tradingDate
	e.mu.Unlock()

	if err := e.journal.Record(toJournalRecord(rec, date, pivot, active.StopLoss, active.ProfitTarget)); err != nil {
		e.logEntry().WithError(err).Error("Не удалось записать сделку в журнал.")
	}

	if tradesToday >= e.cfg.Bot.MaxDailyTrades {
		e.state.UpdateStrategyStatus(models.StatusTradeLimitReached)
	} else {
		e.state.UpdateStrategyStatus(models.StatusWaitingForPullback)
	}

	e.log.WithTradeID(rec.ID).WithFields(map[string]interface{}{
		"reason":      reason,
		"exit":        price,
		"pnl":         rec.PnL,
		"pnl_percent": rec.PnLPercent,
	}).Info("Выход из сделки.")
}

// paperBuy исполняет покупку мгновенно по котировке. Реальные ордера сюда
// не подключены: брокерский клиент отдаёт только данные.
func (e *Engine) paperBuy(symbol string, price, qty float64) error {
	e.logEntry().WithFields(map[string]interface{}{
		"mode":   e.cfg.Runtime.Mode,
		"option": symbol,
		"price":  price,
		"qty":    qty,
	}).Info("Ордер на покупку исполнен (paper).")
	return nil
}

func (e *Engine) paperSell(symbol string, price, qty float64) error {
	e.logEntry().WithFields(map[string]interface{}{
		"mode":   e.cfg.Runtime.Mode,
		"option": symbol,
		"price":  price,
		"qty":    qty,
	}).Info("Ордер на продажу исполнен (paper).")
	return nil
}

func nextThursday(now time.Time) time.Time {
	day := now
	for day.Weekday() != time.Thursday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
