package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pivotbot/internal/models"
)

func (c *Client) GetLTP(ctx context.Context, segment, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("segment", segment)
	params.Set("exchange_symbols", "NSE_"+symbol)

	var resp growwResponse[ltpPayload]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/live-data/ltp", params, nil, true, &resp); err != nil {
		return 0, err
	}
	if err := checkStatus(resp); err != nil {
		return 0, err
	}

	price, ok := resp.Payload["NSE_"+symbol]
	if !ok {
		return 0, fmt.Errorf("Котировка не найдена: %s", symbol)
	}
	return price, nil
}

func (c *Client) GetCandles(ctx context.Context, symbol string, intervalMinutes int, from, to time.Time) ([]models.Candle, error) {
	params := url.Values{}
	params.Set("exchange", "NSE")
	params.Set("segment", "CASH")
	params.Set("trading_symbol", symbol)
	params.Set("interval_in_minutes", strconv.Itoa(intervalMinutes))
	params.Set("start_time", from.Format("2006-01-02 15:04:05"))
	params.Set("end_time", to.Format("2006-01-02 15:04:05"))

	var resp growwResponse[candlesPayload]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/historical/candle/range", params, nil, true, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(resp.Payload.Candles))
	for _, raw := range resp.Payload.Candles {
		candle, err := parseCandle(raw)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseCandle разбирает свечу формата [ts, open, high, low, close, volume].
func parseCandle(raw []any) (models.Candle, error) {
	if len(raw) < 5 {
		return models.Candle{}, fmt.Errorf("Некорректная свеча: ожидается минимум 5 полей, получено %d", len(raw))
	}

	fields := make([]float64, 0, 6)
	for _, v := range raw {
		f, err := toFloat(v)
		if err != nil {
			return models.Candle{}, fmt.Errorf("Некорректное поле свечи %v: %w", v, err)
		}
		fields = append(fields, f)
	}

	candle := models.Candle{
		Timestamp: time.Unix(int64(fields[0]), 0),
		Open:      fields[1],
		High:      fields[2],
		Low:       fields[3],
		Close:     fields[4],
	}
	if len(fields) > 5 {
		candle.Volume = fields[5]
	}
	return candle, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("неожиданный тип %T", v)
	}
}
