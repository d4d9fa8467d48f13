package groww

import (
	"context"
	"time"

	"pivotbot/internal/exchange"
	"pivotbot/internal/exchange/groww/rest"
	"pivotbot/internal/exchange/groww/ws"
	"pivotbot/internal/logger"
	"pivotbot/internal/models"
)

// Client объединяет REST и WS клиенты брокера под общим интерфейсом
// exchange.Client.
type Client struct {
	rest *rest.Client
	ws   *ws.Client
	log  *logger.Logger
}

func New(baseURL, wsURL, apiKey, secret string, log *logger.Logger) (*Client, error) {
	wsClient, err := ws.New(wsURL, apiKey, secret, log)
	if err != nil {
		return nil, err
	}
	return &Client{
		rest: rest.New(baseURL, apiKey, secret, log),
		ws:   wsClient,
		log:  log,
	}, nil
}

func (c *Client) GetLTP(ctx context.Context, segment, symbol string) (float64, error) {
	return c.rest.GetLTP(ctx, segment, symbol)
}

func (c *Client) GetCandles(ctx context.Context, symbol string, intervalMinutes int, from, to time.Time) ([]models.Candle, error) {
	return c.rest.GetCandles(ctx, symbol, intervalMinutes, from, to)
}

func (c *Client) GetInstruments(ctx context.Context, underlying string) ([]exchange.Instrument, error) {
	return c.rest.GetInstruments(ctx, underlying)
}

func (c *Client) Subscribe(ctx context.Context, symbols []string) (<-chan exchange.Event, error) {
	if err := c.ws.Connect(ctx); err != nil {
		return nil, err
	}
	if err := c.ws.SubscribeToSymbols(ctx, symbols); err != nil {
		return nil, err
	}
	return c.ws.Events(), nil
}
