package state

import "errors"

var (
	ErrInvalidInput       = errors.New("Некорректные входные данные.")
	ErrTradeAlreadyActive = errors.New("Сделка уже открыта.")
	ErrNoActiveTrade      = errors.New("Нет открытой сделки.")
)
