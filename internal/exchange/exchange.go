package exchange

import (
	"context"
	"time"

	"pivotbot/internal/models"
)

type EventType string

const (
	EventTypeTick      EventType = "Tick"
	EventTypeReconnect EventType = "Reconnect"
)

type Event struct {
	Type EventType
	Tick *models.Tick
}

type Instrument struct {
	Symbol         string
	TradingSymbol  string
	Underlying     string
	Segment        string
	InstrumentType string
	StrikePrice    float64
	Expiry         time.Time
	LotSize        int
	BuyAllowed     bool
}

type Client interface {
	GetLTP(ctx context.Context, segment, symbol string) (float64, error)
	GetCandles(ctx context.Context, symbol string, intervalMinutes int, from, to time.Time) ([]models.Candle, error)
	GetInstruments(ctx context.Context, underlying string) ([]Instrument, error)
	Subscribe(ctx context.Context, symbols []string) (<-chan Event, error)
}
