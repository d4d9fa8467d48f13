package ws

import (
	"context"
)

func (w *Client) SubscribeToSymbols(ctx context.Context, symbols []string) error {
	w.symbols = symbols

	args := make([]string, 0, len(symbols))
	for _, s := range symbols {
		args = append(args, "ltp.NSE_"+s)
	}

	msg := SubscribeMessage{
		Op:   "subscribe",
		Args: args,
	}

	return w.conn.WriteJSON(msg)
}
