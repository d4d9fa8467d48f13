package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pivotbot/internal/config"
	"pivotbot/internal/dashboard"
	"pivotbot/internal/engine"
	"pivotbot/internal/exchange/groww"
	"pivotbot/internal/journal"
	"pivotbot/internal/logger"
	"pivotbot/internal/state"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	logger.Info("Бот запущен.")

	st := state.New(cfg.Dashboard.HistorySize, cfg.Dashboard.EventFeedSize, cfg.Runtime.Mode)

	jrnl, err := journal.New(cfg.Journal)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось открыть журнал сделок.")
	}
	defer jrnl.Close()

	client, err := groww.New(cfg.Exchange.BaseUrl, cfg.Exchange.WSUrl, cfg.Exchange.ApiKey, cfg.Exchange.Secret, logger)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось создать клиент брокера.")
	}

	srv := dashboard.New(cfg.Dashboard.Host, cfg.Dashboard.Port, st, logger)

	eng, err := engine.New(cfg, client, st, jrnl, logger)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось создать стратегию.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Дашборд завершился с ошибкой.")
		}
	}()

	go func() {
		if err := eng.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Стратегия завершилась с ошибкой.")
		}
	}()

	<-sigCh

	cancel()

	logger.Info("Бот остановлен.")
}
