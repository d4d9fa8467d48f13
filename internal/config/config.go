package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Exchange  ExchangeConfig
	Bot       BotConfig
	Dashboard DashboardConfig
	Journal   JournalConfig
	Runtime   RuntimeConfig
}

type ExchangeConfig struct {
	BaseUrl string
	WSUrl   string
	ApiKey  string
	Secret  string
}

type BotConfig struct {
	Underlying          string
	SpotSymbol          string
	Segment             string
	LotSize             int
	TradeLots           int
	MaxDailyTrades      int
	PivotBufferPoints   float64
	StopLossPercent     float64
	ProfitTargetPercent float64
	MarketOpen          string
	MarketClose         string
	EntryCutoff         string
	EODExit             string
	BiasCandleStart     string
	BiasCandleEnd       string
	MinSpotPrice        float64
	MaxSpotPrice        float64
	MinOptionPrice      float64
	MaxOptionPrice      float64
}

type DashboardConfig struct {
	Host          string
	Port          int
	HistorySize   int
	EventFeedSize int
}

type JournalConfig struct {
	Type   string
	File   string
	DBPath string
}

type RuntimeConfig struct {
	Mode string
	Log  LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func Load() (*Config, error) {

	cfg := &Config{}
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.ReadInConfig()

	setDefaults()

	cfg.Exchange = ExchangeConfig{
		BaseUrl: viper.GetString("exchange.base_url"),
		WSUrl:   viper.GetString("exchange.ws_url"),
		ApiKey:  envSub("exchange.api_key"),
		Secret:  envSub("exchange.secret"),
	}

	cfg.Bot = BotConfig{
		Underlying:          viper.GetString("bot.underlying"),
		SpotSymbol:          viper.GetString("bot.spot_symbol"),
		Segment:             viper.GetString("bot.segment"),
		LotSize:             viper.GetInt("bot.lot_size"),
		TradeLots:           viper.GetInt("bot.trade_lots"),
		MaxDailyTrades:      viper.GetInt("bot.max_daily_trades"),
		PivotBufferPoints:   viper.GetFloat64("bot.pivot_buffer_points"),
		StopLossPercent:     viper.GetFloat64("bot.stop_loss_percent"),
		ProfitTargetPercent: viper.GetFloat64("bot.profit_target_percent"),
		MarketOpen:          viper.GetString("bot.market_open"),
		MarketClose:         viper.GetString("bot.market_close"),
		EntryCutoff:         viper.GetString("bot.entry_cutoff"),
		EODExit:             viper.GetString("bot.eod_exit"),
		BiasCandleStart:     viper.GetString("bot.bias_candle_start"),
		BiasCandleEnd:       viper.GetString("bot.bias_candle_end"),
		MinSpotPrice:        viper.GetFloat64("bot.min_spot_price"),
		MaxSpotPrice:        viper.GetFloat64("bot.max_spot_price"),
		MinOptionPrice:      viper.GetFloat64("bot.min_option_price"),
		MaxOptionPrice:      viper.GetFloat64("bot.max_option_price"),
	}

	cfg.Dashboard = DashboardConfig{
		Host:          viper.GetString("dashboard.host"),
		Port:          viper.GetInt("dashboard.port"),
		HistorySize:   viper.GetInt("dashboard.history_size"),
		EventFeedSize: viper.GetInt("dashboard.event_feed_size"),
	}

	cfg.Journal = JournalConfig{
		Type:   viper.GetString("journal.type"),
		File:   viper.GetString("journal.file"),
		DBPath: viper.GetString("journal.db_path"),
	}

	cfg.Runtime = RuntimeConfig{
		Mode: strings.ToUpper(viper.GetString("runtime.mode")),
		Log: LogConfig{
			Level:      viper.GetString("runtime.log.level"),
			Format:     viper.GetString("runtime.log.format"),
			File:       viper.GetString("runtime.log.file"),
			MaxSize:    viper.GetInt("runtime.log.max_size"),
			MaxBackups: viper.GetInt("runtime.log.max_backups"),
			MaxAge:     viper.GetInt("runtime.log.max_age"),
			Compress:   viper.GetBool("runtime.log.compress"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("bot.underlying", "NIFTY")
	viper.SetDefault("bot.spot_symbol", "NIFTY")
	viper.SetDefault("bot.segment", "CASH")
	viper.SetDefault("bot.lot_size", 65)
	viper.SetDefault("bot.trade_lots", 1)
	viper.SetDefault("bot.max_daily_trades", 2)
	viper.SetDefault("bot.pivot_buffer_points", 25.0)
	viper.SetDefault("bot.stop_loss_percent", 10.0)
	viper.SetDefault("bot.profit_target_percent", 10.0)
	viper.SetDefault("bot.market_open", "09:15")
	viper.SetDefault("bot.market_close", "15:30")
	viper.SetDefault("bot.entry_cutoff", "15:20")
	viper.SetDefault("bot.eod_exit", "15:20")
	viper.SetDefault("bot.bias_candle_start", "09:15")
	viper.SetDefault("bot.bias_candle_end", "09:20")
	viper.SetDefault("bot.min_spot_price", 15000.0)
	viper.SetDefault("bot.max_spot_price", 30000.0)
	viper.SetDefault("bot.min_option_price", 1.0)
	viper.SetDefault("bot.max_option_price", 1000.0)
	viper.SetDefault("dashboard.host", "0.0.0.0")
	viper.SetDefault("dashboard.port", 8080)
	viper.SetDefault("dashboard.history_size", 100)
	viper.SetDefault("dashboard.event_feed_size", 200)
	viper.SetDefault("journal.type", "csv")
	viper.SetDefault("journal.file", "data/trades.csv")
	viper.SetDefault("journal.db_path", "data/trades.db")
	viper.SetDefault("runtime.mode", "PAPER")
	viper.SetDefault("runtime.log.level", "info")
	viper.SetDefault("runtime.log.format", "text")
	viper.SetDefault("runtime.log.max_size", 50)
	viper.SetDefault("runtime.log.max_backups", 5)
	viper.SetDefault("runtime.log.max_age", 14)
}

func validate(cfg *Config) error {
	if cfg.Runtime.Mode != "PAPER" && cfg.Runtime.Mode != "LIVE" {
		return fmt.Errorf("Некорректный режим работы: %q (ожидается PAPER или LIVE)", cfg.Runtime.Mode)
	}
	if cfg.Runtime.Mode == "LIVE" && cfg.Bot.TradeLots > 1 {
		return fmt.Errorf("В режиме LIVE больше одного лота на сделку запрещено: trade_lots=%d", cfg.Bot.TradeLots)
	}
	if cfg.Bot.LotSize <= 0 || cfg.Bot.TradeLots <= 0 {
		return fmt.Errorf("Некорректный размер позиции: lot_size=%d trade_lots=%d", cfg.Bot.LotSize, cfg.Bot.TradeLots)
	}
	if cfg.Bot.MaxDailyTrades <= 0 {
		return fmt.Errorf("Некорректный лимит сделок в день: %d", cfg.Bot.MaxDailyTrades)
	}
	if cfg.Bot.StopLossPercent <= 0 || cfg.Bot.ProfitTargetPercent <= 0 {
		return fmt.Errorf("Некорректные параметры риска: sl=%f pt=%f", cfg.Bot.StopLossPercent, cfg.Bot.ProfitTargetPercent)
	}
	return nil
}

func envSub(key string) string {
	val := viper.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
