package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pivotbot/internal/exchange"
)

func (c *Client) GetInstruments(ctx context.Context, underlying string) ([]exchange.Instrument, error) {
	params := url.Values{}
	params.Set("exchange", "NSE")
	params.Set("segment", "FNO")
	params.Set("underlying", underlying)

	var resp growwResponse[instrumentsPayload]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/instruments", params, nil, true, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	if len(resp.Payload.Instruments) == 0 {
		return nil, fmt.Errorf("Инструменты не найдены: %s", underlying)
	}

	out := make([]exchange.Instrument, 0, len(resp.Payload.Instruments))
	for _, item := range resp.Payload.Instruments {
		expiry, err := time.Parse("2006-01-02", item.Expiry)
		if err != nil {
			c.log.WithComponent("groww_rest").WithError(err).
				Warnf("Пропущен инструмент с некорректной датой экспирации: %s", item.Symbol)
			continue
		}
		out = append(out, exchange.Instrument{
			Symbol:         item.Symbol,
			TradingSymbol:  item.TradingSymbol,
			Underlying:     item.Underlying,
			Segment:        item.Segment,
			InstrumentType: item.InstrumentType,
			StrikePrice:    item.StrikePrice,
			Expiry:         expiry,
			LotSize:        item.LotSize,
			BuyAllowed:     item.BuyAllowed,
		})
	}
	return out, nil
}
