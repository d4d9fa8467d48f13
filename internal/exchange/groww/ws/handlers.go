package ws

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"pivotbot/internal/exchange"
	"pivotbot/internal/models"
)

func (w *Client) handleLTP(msg Message) {
	var data []struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"ltp"`
		Seq       int64  `json:"seq"`
		TS        int64  `json:"ts"`
	}

	if err := json.Unmarshal(msg.Data, &data); err != nil {
		var single struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"ltp"`
			Seq       int64  `json:"seq"`
			TS        int64  `json:"ts"`
		}
		if err := json.Unmarshal(msg.Data, &single); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать ltp.")
			return
		}
		data = append(data, single)
	}

	for _, item := range data {
		price, _ := strconv.ParseFloat(item.LastPrice, 64)
		if price <= 0 {
			continue
		}

		seq := item.Seq
		if seq == 0 {
			if item.TS > 0 {
				seq = item.TS
			} else {
				seq = msg.TS
			}
		}

		w.events <- exchange.Event{
			Type: exchange.EventTypeTick,
			Tick: &models.Tick{
				Symbol:    strings.TrimPrefix(item.Symbol, "NSE_"),
				LastPrice: price,
				Timestamp: time.UnixMilli(msg.TS),
				Sequence:  seq,
			},
		}
	}
}
