package engine

import (
	"context"
	"fmt"
	"time"

	"pivotbot/internal/models"
)

const (
	fetchAttempts = 3
	fetchBackoff  = 2 * time.Second
)

func (e *Engine) withRetryLTP(ctx context.Context, segment, symbol string) (float64, error) {
	var lastErr error
	backoff := fetchBackoff
	for i := 0; i < fetchAttempts; i++ {
		price, err := e.client.GetLTP(ctx, segment, symbol)
		if err == nil {
			return price, nil
		}
		lastErr = err
		e.logEntry().WithError(lastErr).Warn("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return 0, lastErr
}

func (e *Engine) withRetryCandles(ctx context.Context, symbol string, intervalMinutes int, from, to time.Time) ([]models.Candle, error) {
	var lastErr error
	backoff := fetchBackoff
	for i := 0; i < fetchAttempts; i++ {
		candles, err := e.client.GetCandles(ctx, symbol, intervalMinutes, from, to)
		if err == nil {
			return candles, nil
		}
		lastErr = err
		e.logEntry().WithError(lastErr).Warn("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

// fetchSpot получает цену спота через брейкер с проверкой диапазона
// разумности.
func (e *Engine) fetchSpot(ctx context.Context) (float64, error) {
	if e.spotBreaker.IsOpen() {
		return 0, fmt.Errorf("Брейкер спота открыт, запрос пропущен.")
	}

	price, err := e.withRetryLTP(ctx, e.cfg.Bot.Segment, e.cfg.Bot.SpotSymbol)
	if err == nil && (price < e.cfg.Bot.MinSpotPrice || price > e.cfg.Bot.MaxSpotPrice) {
		err = fmt.Errorf("Цена спота вне допустимого диапазона: %.2f.", price)
	}
	if err != nil {
		if e.spotBreaker.RecordFailure() {
			e.state.AddEvent("Брейкер спота открыт: подряд идущие ошибки котировок.", models.SeverityError)
			e.logEntry().Error("Брейкер спота открыт.")
		}
		return 0, err
	}

	e.spotBreaker.RecordSuccess()
	return price, nil
}

func (e *Engine) fetchOptionQuote(ctx context.Context, symbol string) (float64, error) {
	if e.optionBreaker.IsOpen() {
		return 0, fmt.Errorf("Брейкер опционов открыт, запрос пропущен.")
	}

	price, err := e.withRetryLTP(ctx, "FNO", symbol)
	if err == nil && (price < e.cfg.Bot.MinOptionPrice || price > e.cfg.Bot.MaxOptionPrice) {
		err = fmt.Errorf("Премия опциона вне допустимого диапазона: %.2f.", price)
	}
	if err != nil {
		if e.optionBreaker.RecordFailure() {
			e.state.AddEvent("Брейкер опционов открыт: подряд идущие ошибки котировок.", models.SeverityError)
			e.logEntry().Error("Брейкер опционов открыт.")
		}
		return 0, err
	}

	e.optionBreaker.RecordSuccess()
	return price, nil
}
