package state

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"pivotbot/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultHistorySize   = 100
	DefaultEventFeedSize = 200
)

// Manager хранит всё разделяемое состояние торговой сессии: рыночные данные,
// статус стратегии, открытую сделку, историю сделок и ленту событий.
// Один мьютекс на весь агрегат: каждая операция короткая и не блокируется
// внутри критической секции, поэтому писатель (стратегия) и читатели
// (дашборд) друг друга практически не задерживают.
type Manager struct {
	mu sync.Mutex

	market   models.MarketSnapshot
	status   models.StrategyStatus
	statusAt time.Time
	active   *models.ActiveTrade
	trades   *ring[models.ClosedTrade]
	events   *ring[models.Event]

	mode        string
	tradingDate string
}

func New(historySize, eventFeedSize int, mode string) *Manager {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	if eventFeedSize <= 0 {
		eventFeedSize = DefaultEventFeedSize
	}
	return &Manager{
		market:      models.MarketSnapshot{Bias: models.BiasUnknown, Status: models.MarketClosed},
		status:      models.StatusWaitingForMarket,
		statusAt:    time.Now(),
		trades:      newRing[models.ClosedTrade](historySize),
		events:      newRing[models.Event](eventFeedSize),
		mode:        mode,
		tradingDate: time.Now().Format("2006-01-02"),
	}
}

// UpdateMarket целиком заменяет рыночный срез.
func (m *Manager) UpdateMarket(spotPrice, pivotPrice float64, bias models.Bias, status models.MarketStatus) error {
	if !isFinite(spotPrice) || !isFinite(pivotPrice) || spotPrice < 0 || pivotPrice < 0 {
		return fmt.Errorf("Некорректная цена: spot=%f pivot=%f: %w", spotPrice, pivotPrice, ErrInvalidInput)
	}
	if !bias.Valid() {
		return fmt.Errorf("Некорректный bias: %q: %w", bias, ErrInvalidInput)
	}
	if status != models.MarketOpen && status != models.MarketClosed {
		return fmt.Errorf("Некорректный статус рынка: %q: %w", status, ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.market = models.MarketSnapshot{
		SpotPrice:  spotPrice,
		PivotPrice: pivotPrice,
		Bias:       bias,
		Status:     status,
	}
	return nil
}

// UpdateStrategyStatus записывает новое значение и метку времени. Допустим
// любой переход: граф переходов контролирует стратегия, а не менеджер.
// Метка времени обновляется на каждый вызов, событие в ленту попадает
// только при фактической смене значения.
func (m *Manager) UpdateStrategyStatus(status models.StrategyStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.status != status
	m.status = status
	m.statusAt = time.Now()
	if changed {
		m.appendEventLocked("Статус: "+string(status), models.SeverityInfo)
	}
}

func (m *Manager) Status() (models.StrategyStatus, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.statusAt
}

func (m *Manager) EnterTrade(symbol string, direction models.Direction, entryPrice, quantity, stopLoss, profitTarget float64) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("Пустой символ инструмента: %w", ErrInvalidInput)
	}
	if !direction.Valid() {
		return fmt.Errorf("Некорректное направление: %q: %w", direction, ErrInvalidInput)
	}
	if !isFinite(entryPrice) || entryPrice <= 0 || !isFinite(quantity) || quantity <= 0 {
		return fmt.Errorf("Некорректные параметры входа: price=%f qty=%f: %w", entryPrice, quantity, ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return fmt.Errorf("Вход отклонён, открыта сделка %s: %w", m.active.ID, ErrTradeAlreadyActive)
	}
	m.active = &models.ActiveTrade{
		ID:           newTradeID(),
		Symbol:       symbol,
		Direction:    direction,
		EntryPrice:   entryPrice,
		Quantity:     quantity,
		StopLoss:     stopLoss,
		ProfitTarget: profitTarget,
		CurrentPrice: entryPrice,
		EntryTime:    time.Now(),
	}
	m.appendEventLocked(fmt.Sprintf("Вход в сделку: %s %s @ %.2f", direction, symbol, entryPrice), models.SeverityInfo)
	return nil
}

func (m *Manager) UpdateTradePrice(currentPrice float64) error {
	if !isFinite(currentPrice) || currentPrice <= 0 {
		return fmt.Errorf("Некорректная цена: %f: %w", currentPrice, ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ErrNoActiveTrade
	}
	m.active.CurrentPrice = currentPrice
	return nil
}

// ExitTrade фиксирует результат, переносит запись в историю (с вытеснением
// старейшей при переполнении) и снимает открытую сделку. Запись и очистка
// происходят в одной критической секции: читатель никогда не увидит сделку
// одновременно открытой и закрытой.
func (m *Manager) ExitTrade(exitPrice float64, exitReason string) (models.ClosedTrade, error) {
	if !isFinite(exitPrice) || exitPrice <= 0 {
		return models.ClosedTrade{}, fmt.Errorf("Некорректная цена выхода: %f: %w", exitPrice, ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return models.ClosedTrade{}, ErrNoActiveTrade
	}

	t := *m.active
	pnl := (exitPrice - t.EntryPrice) * t.Quantity
	pnlPercent := 0.0
	if t.EntryPrice > 0 {
		pnlPercent = (exitPrice - t.EntryPrice) / t.EntryPrice * 100
	}

	rec := models.ClosedTrade{
		ID:         t.ID,
		Symbol:     t.Symbol,
		Direction:  t.Direction,
		EntryPrice: t.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   t.Quantity,
		PnL:        pnl,
		PnLPercent: pnlPercent,
		ExitReason: exitReason,
		EntryTime:  t.EntryTime,
		ExitTime:   time.Now(),
	}
	m.trades.push(rec)
	m.active = nil
	m.appendEventLocked(fmt.Sprintf("Выход из сделки: %s | P&L: %.2f (%+.2f%%)", exitReason, pnl, pnlPercent), models.SeverityInfo)
	return rec, nil
}

// AddEvent никогда не возвращает ошибку: журналирование не должно ронять
// торговый цикл.
func (m *Manager) AddEvent(message string, severity models.Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendEventLocked(message, severity)
}

func (m *Manager) InTrade() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

func (m *Manager) ActiveTrade() (models.ActiveTrade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return models.ActiveTrade{}, false
	}
	return *m.active, true
}

func (m *Manager) SetTradingDate(date string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tradingDate = date
}

func (m *Manager) appendEventLocked(message string, severity models.Severity) {
	if severity == "" {
		severity = models.SeverityInfo
	}
	m.events.push(models.Event{Time: time.Now(), Message: message, Severity: severity})
}

func newTradeID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(raw) > 12 {
		return raw[:12]
	}
	return raw
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
