package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pivotbot/internal/config"
	"pivotbot/internal/exchange"
	"pivotbot/internal/journal"
	"pivotbot/internal/logger"
	"pivotbot/internal/models"
	"pivotbot/internal/state"
)

const (
	heartbeatInterval = 10 * time.Minute

	sleepMarketClosed = 300 * time.Second
	sleepFlat         = 30 * time.Second
	sleepInTrade      = 5 * time.Second

	breakerThreshold = 5
	breakerTimeout   = 300 * time.Second
)

type Engine struct {
	cfg     *config.Config
	client  exchange.Client
	state   *state.Manager
	journal journal.Journal
	log     *logger.Logger
	loc     *time.Location

	mu            sync.Mutex
	tradingDate   string
	pivot         float64
	bias          models.Bias
	biasLocked    bool
	tradesToday   int
	lastHeartbeat time.Time
	lastSpot      float64
	instruments   []exchange.Instrument
	reportDone    bool

	spotBreaker   *CircuitBreaker
	optionBreaker *CircuitBreaker
}

func New(cfg *config.Config, client exchange.Client, st *state.Manager, jrnl journal.Journal, log *logger.Logger) (*Engine, error) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return nil, fmt.Errorf("Не удалось загрузить часовой пояс биржи: %w", err)
	}
	return &Engine{
		cfg:           cfg,
		client:        client,
		state:         st,
		journal:       jrnl,
		log:           log,
		loc:           loc,
		bias:          models.BiasUnknown,
		spotBreaker:   NewCircuitBreaker("spot", breakerThreshold, breakerTimeout),
		optionBreaker: NewCircuitBreaker("option", breakerThreshold, breakerTimeout),
	}, nil
}

func (e *Engine) Start(ctx context.Context) error {
	e.logEntry().WithField("mode", e.cfg.Runtime.Mode).Info("Стратегия запущена.")
	e.state.AddEvent(fmt.Sprintf("Бот запущен в режиме %s.", e.cfg.Runtime.Mode), models.SeverityInfo)

	events, err := e.client.Subscribe(ctx, []string{e.cfg.Bot.SpotSymbol})
	if err != nil {
		e.logEntry().WithError(err).Warn("Не удалось подписаться на поток котировок, работаем только по REST.")
		e.state.AddEvent("Поток котировок недоступен, опрос по REST.", models.SeverityWarn)
	} else {
		go e.handleEvents(ctx, events)
	}

	return e.runLoop(ctx)
}

func (e *Engine) runLoop(ctx context.Context) error {
	for {
		sleep := e.step(ctx, time.Now().In(e.loc))

		select {
		case <-ctx.Done():
			e.logEntry().Info("Стратегия остановлена.")
			return nil
		case <-time.After(sleep):
		}
	}
}

// step выполняет одну итерацию торгового цикла и возвращает паузу до
// следующей.
func (e *Engine) step(ctx context.Context, now time.Time) time.Duration {
	e.heartbeat(now)
	e.resetDailyIfNeeded(now)

	if !isTradingDay(now) {
		e.state.UpdateStrategyStatus(models.StatusMarketClosed)
		return sleepMarketClosed
	}

	if !isMarketHours(now, e.cfg.Bot.MarketOpen, e.cfg.Bot.MarketClose) {
		if atOrAfter(now, e.cfg.Bot.MarketClose) {
			e.state.UpdateStrategyStatus(models.StatusMarketClosed)
			e.dailyReport(now)
		} else {
			e.state.UpdateStrategyStatus(models.StatusWaitingForMarket)
		}
		return sleepMarketClosed
	}

	if err := e.ensurePivot(ctx, now); err != nil {
		e.logEntry().WithError(err).Warn("Не удалось рассчитать pivot.")
		return sleepFlat
	}

	spot, err := e.fetchSpot(ctx)
	if err != nil {
		e.logEntry().WithError(err).Warn("Не удалось получить цену спота.")
		return sleepFlat
	}

	e.mu.Lock()
	e.lastSpot = spot
	pivot := e.pivot
	bias := e.bias
	e.mu.Unlock()

	if err := e.state.UpdateMarket(spot, pivot, bias, models.MarketOpen); err != nil {
		e.logEntry().WithError(err).Warn("Не удалось обновить рыночный срез.")
	}

	if e.state.InTrade() {
		e.managePosition(ctx, now)
		return sleepInTrade
	}

	return e.entryFlow(ctx, now, spot)
}

// entryFlow продвигает стратегию к входу и возвращает паузу цикла.
func (e *Engine) entryFlow(ctx context.Context, now time.Time, spot float64) time.Duration {
	e.mu.Lock()
	tradesToday := e.tradesToday
	biasLocked := e.biasLocked
	bias := e.bias
	e.mu.Unlock()

	if tradesToday >= e.cfg.Bot.MaxDailyTrades {
		e.state.UpdateStrategyStatus(models.StatusTradeLimitReached)
		return sleepFlat
	}

	if atOrAfter(now, e.cfg.Bot.EntryCutoff) {
		e.state.UpdateStrategyStatus(models.StatusEntryCutoffReached)
		return sleepFlat
	}

	if !biasLocked {
		if !atOrAfter(now, e.cfg.Bot.BiasCandleEnd) {
			e.state.UpdateStrategyStatus(models.StatusWaitingForBias)
			return sleepFlat
		}
		determined, err := e.determineBias(ctx, now)
		if err != nil {
			e.logEntry().WithError(err).Warn("Не удалось определить bias по первой свече.")
			return sleepFlat
		}
		bias = determined
	}

	if bias == models.BiasNeutral {
		e.state.UpdateStrategyStatus(models.StatusNoTradeToday)
		return sleepFlat
	}

	if !InPivotZone(spot, e.currentPivot(), e.cfg.Bot.PivotBufferPoints) {
		e.state.UpdateStrategyStatus(models.StatusWaitingForPullback)
		return sleepFlat
	}

	e.state.UpdateStrategyStatus(models.StatusReadyToEnter)
	if err := e.enterPosition(ctx, now, spot, bias); err != nil {
		e.logEntry().WithError(err).Warn("Вход в сделку не состоялся.")
		return sleepFlat
	}
	return sleepInTrade
}

func (e *Engine) heartbeat(now time.Time) {
	e.mu.Lock()
	due := now.Sub(e.lastHeartbeat) >= heartbeatInterval
	if due {
		e.lastHeartbeat = now
	}
	tradesToday := e.tradesToday
	e.mu.Unlock()

	if !due {
		return
	}
	status, _ := e.state.Status()
	e.state.AddEvent(fmt.Sprintf("Бот работает. Статус: %s, сделок за день: %d.", status, tradesToday), models.SeverityInfo)
	e.logEntry().WithFields(map[string]interface{}{
		"status":       status,
		"trades_today": tradesToday,
	}).Info("heartbeat")
}

func (e *Engine) resetDailyIfNeeded(now time.Time) {
	date := now.Format("2006-01-02")

	e.mu.Lock()
	if e.tradingDate == date {
		e.mu.Unlock()
		return
	}
	first := e.tradingDate == ""
	e.tradingDate = date
	e.tradesToday = 0
	e.pivot = 0
	e.bias = models.BiasUnknown
	e.biasLocked = false
	e.instruments = nil
	e.reportDone = false
	e.mu.Unlock()

	e.state.SetTradingDate(date)
	if !first {
		e.state.AddEvent(fmt.Sprintf("Новый торговый день: %s.", date), models.SeverityInfo)
	}
	e.logEntry().WithField("date", date).Info("Дневные счётчики сброшены.")
}

// ensurePivot лениво считает pivot по дневной свече предыдущей торговой
// сессии; значение фиксируется на весь день.
func (e *Engine) ensurePivot(ctx context.Context, now time.Time) error {
	e.mu.Lock()
	if e.pivot > 0 {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	prev := previousTradingDay(now)
	from := time.Date(prev.Year(), prev.Month(), prev.Day(), 0, 0, 0, 0, e.loc)
	to := from.Add(24 * time.Hour)

	candles, err := e.withRetryCandles(ctx, e.cfg.Bot.SpotSymbol, 1440, from, to)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("Нет дневной свечи за %s.", prev.Format("2006-01-02"))
	}

	daily := candles[len(candles)-1]
	pivot := CalcPivot(daily)
	if pivot <= 0 {
		return fmt.Errorf("Некорректный pivot: %f.", pivot)
	}

	e.mu.Lock()
	e.pivot = pivot
	e.mu.Unlock()

	e.state.AddEvent(fmt.Sprintf("Pivot на сегодня: %.2f (H=%.2f L=%.2f C=%.2f).", pivot, daily.High, daily.Low, daily.Close), models.SeverityInfo)
	e.logEntry().WithField("pivot", pivot).Info("Pivot рассчитан.")
	return nil
}

// determineBias определяет и фиксирует дневное направление по первой
// пятиминутной свече.
func (e *Engine) determineBias(ctx context.Context, now time.Time) (models.Bias, error) {
	startMins, err := parseClock(e.cfg.Bot.BiasCandleStart)
	if err != nil {
		return models.BiasUnknown, err
	}
	endMins, err := parseClock(e.cfg.Bot.BiasCandleEnd)
	if err != nil {
		return models.BiasUnknown, err
	}

	from := time.Date(now.Year(), now.Month(), now.Day(), startMins/60, startMins%60, 0, 0, e.loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), endMins/60, endMins%60, 0, 0, e.loc)

	candles, err := e.withRetryCandles(ctx, e.cfg.Bot.SpotSymbol, 5, from, to)
	if err != nil {
		return models.BiasUnknown, err
	}
	if len(candles) == 0 {
		return models.BiasUnknown, fmt.Errorf("Первая свеча ещё недоступна.")
	}

	bias := BiasFromCandle(candles[0])

	e.mu.Lock()
	e.bias = bias
	e.biasLocked = true
	e.mu.Unlock()

	e.state.AddEvent(fmt.Sprintf("Bias на день: %s (O=%.2f C=%.2f).", bias, candles[0].Open, candles[0].Close), models.SeverityInfo)
	e.logEntry().WithField("bias", bias).Info("Bias зафиксирован.")
	return bias, nil
}

func (e *Engine) currentPivot() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pivot
}

// dailyReport публикует сводку дня один раз после закрытия рынка.
func (e *Engine) dailyReport(now time.Time) {
	e.mu.Lock()
	if e.reportDone {
		e.mu.Unlock()
		return
	}
	e.reportDone = true
	date := e.tradingDate
	e.mu.Unlock()

	stats, err := e.journal.DayStats(date)
	if err != nil {
		e.logEntry().WithError(err).Warn("Не удалось собрать дневной отчёт.")
		return
	}

	e.state.AddEvent(fmt.Sprintf(
		"Итоги дня %s: сделок %d, прибыльных %d, убыточных %d, P&L %.2f.",
		date, stats.Trades, stats.Wins, stats.Losses, stats.TotalPnL,
	), models.SeverityInfo)
	e.logEntry().WithFields(map[string]interface{}{
		"date":      date,
		"trades":    stats.Trades,
		"wins":      stats.Wins,
		"losses":    stats.Losses,
		"total_pnl": stats.TotalPnL,
		"win_rate":  stats.WinRate,
	}).Info("Дневной отчёт.")
}

func previousTradingDay(now time.Time) time.Time {
	day := now.AddDate(0, 0, -1)
	for !isTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
