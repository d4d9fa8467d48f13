package rest

import (
	"net/http"

	"pivotbot/internal/logger"
)

type Client struct {
	baseURL    string
	apiKey     string
	secret     string
	httpClient *http.Client
	log        *logger.Logger
}

type growwResponse[T any] struct {
	Status  string `json:"status"`
	Payload T      `json:"payload"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type ltpPayload map[string]float64

type candlesPayload struct {
	Candles [][]any `json:"candles"`
}

type instrumentsPayload struct {
	Instruments []struct {
		Symbol         string  `json:"symbol"`
		TradingSymbol  string  `json:"trading_symbol"`
		Underlying     string  `json:"underlying"`
		Segment        string  `json:"segment"`
		InstrumentType string  `json:"instrument_type"`
		StrikePrice    float64 `json:"strike_price"`
		Expiry         string  `json:"expiry"`
		LotSize        int     `json:"lot_size"`
		BuyAllowed     bool    `json:"buy_allowed"`
	} `json:"instruments"`
}
