package models

import "time"

type Bias string
type Direction string
type MarketStatus string
type StrategyStatus string
type Severity string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
	BiasUnknown Bias = "UNKNOWN"

	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"

	MarketOpen   MarketStatus = "OPEN"
	MarketClosed MarketStatus = "CLOSED"

	StatusWaitingForMarket   StrategyStatus = "WAITING_FOR_MARKET"
	StatusWaitingForBias     StrategyStatus = "WAITING_FOR_BIAS"
	StatusWaitingForPullback StrategyStatus = "WAITING_FOR_PULLBACK"
	StatusReadyToEnter       StrategyStatus = "READY_TO_ENTER"
	StatusInTrade            StrategyStatus = "IN_TRADE"
	StatusTradeClosed        StrategyStatus = "TRADE_CLOSED"
	StatusMarketClosed       StrategyStatus = "MARKET_CLOSED"
	StatusEntryCutoffReached StrategyStatus = "ENTRY_CUTOFF_REACHED"
	StatusTradeLimitReached  StrategyStatus = "TRADE_LIMIT_REACHED"
	StatusNoTradeToday       StrategyStatus = "NO_TRADE_TODAY"

	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

func (b Bias) Valid() bool {
	switch b {
	case BiasBullish, BiasBearish, BiasNeutral, BiasUnknown:
		return true
	}
	return false
}

func (d Direction) Valid() bool {
	return d == DirectionCall || d == DirectionPut
}

type MarketSnapshot struct {
	SpotPrice  float64      `json:"spot_price"`
	PivotPrice float64      `json:"pivot"`
	Bias       Bias         `json:"bias"`
	Status     MarketStatus `json:"market_status"`
}

type ActiveTrade struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Direction    Direction `json:"direction"`
	EntryPrice   float64   `json:"entry_price"`
	Quantity     float64   `json:"quantity"`
	StopLoss     float64   `json:"stop_loss"`
	ProfitTarget float64   `json:"profit_target"`
	CurrentPrice float64   `json:"current_price"`
	EntryTime    time.Time `json:"entry_time"`
}

// PnL считается по премии опциона: и CALL, и PUT покупаются в лонг.
func (t ActiveTrade) PnL() float64 {
	return (t.CurrentPrice - t.EntryPrice) * t.Quantity
}

func (t ActiveTrade) PnLPercent() float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return (t.CurrentPrice - t.EntryPrice) / t.EntryPrice * 100
}

type ClosedTrade struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	PnL        float64   `json:"pnl"`
	PnLPercent float64   `json:"pnl_percent"`
	ExitReason string    `json:"exit_reason"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
}

type Event struct {
	Time     time.Time `json:"time"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type Tick struct {
	Symbol    string    `json:"symbol"`
	LastPrice float64   `json:"last_price"`
	Timestamp time.Time `json:"timestamp"`
	Sequence  int64     `json:"sequence"`
}
