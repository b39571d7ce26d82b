package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/market-sentry/internal/repo"
	"github.com/KNICEX/market-sentry/internal/schedule"
	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/KNICEX/market-sentry/internal/service/exchange/binance"
	"github.com/KNICEX/market-sentry/internal/service/llm/gemini"
	"github.com/KNICEX/market-sentry/internal/service/monitor"
	"github.com/KNICEX/market-sentry/internal/service/notification"
	"github.com/KNICEX/market-sentry/ioc"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

type monitorConfig struct {
	Quote        string        `mapstructure:"quote"`
	Interval     time.Duration `mapstructure:"interval"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	SourceTTL    time.Duration `mapstructure:"source_ttl"`
	UniverseTTL  time.Duration `mapstructure:"universe_ttl"`
	Concurrency  int           `mapstructure:"concurrency"`
	SymbolsLimit int           `mapstructure:"symbols_limit"`
	Reject       []string      `mapstructure:"reject"`
	SnapshotPath string        `mapstructure:"snapshot_path"`

	Thresholds struct {
		SpotNotional float64       `mapstructure:"spot_notional"`
		SpotPricePct float64       `mapstructure:"spot_price_pct"`
		OIWindow     time.Duration `mapstructure:"oi_window"`
		OIGrowthPct  float64       `mapstructure:"oi_growth_pct"`
	} `mapstructure:"thresholds"`
}

func loadMonitorConfig() monitorConfig {
	cfg := monitorConfig{
		Quote:        "USDT",
		Interval:     time.Minute,
		SnapshotPath: "./sentry-state.json",
	}
	if err := viper.UnmarshalKey("monitor", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func (c monitorConfig) thresholds() monitor.Thresholds {
	t := monitor.DefaultThresholds()
	if c.Thresholds.SpotNotional > 0 {
		t.SpotNotional = decimal.NewFromFloat(c.Thresholds.SpotNotional)
	}
	if c.Thresholds.SpotPricePct > 0 {
		t.SpotPricePct = decimal.NewFromFloat(c.Thresholds.SpotPricePct)
	}
	if c.Thresholds.OIWindow > 0 {
		t.OIWindow = c.Thresholds.OIWindow
	}
	if c.Thresholds.OIGrowthPct > 0 {
		t.OIGrowthPct = decimal.NewFromFloat(c.Thresholds.OIGrowthPct)
	}
	return t
}

func main() {
	// .env 不存在也无妨, 只是本地开发的便利
	_ = godotenv.Load()
	initViper()
	cfg := loadMonitorConfig()

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	alertRepo := repo.NewAlertRepo(db)

	futuresSvc := binance.NewFuturesService(ioc.InitBinanceFuturesCli())
	selector := monitor.NewSourceSelector(ioc.InitSpotSources(), cfg.Quote, cfg.SourceTTL)
	dispatcher := notification.NewDispatcher(ioc.InitChannels(),
		notification.WithSendTimeout(viper.GetDuration("notify.timeout")))

	var advisor monitor.Advisor = monitor.NewRuleAdvisor(futuresSvc)
	if ioc.GeminiEnabled() {
		llmSvc := gemini.NewService(ioc.InitGeminiCli())
		advisor = monitor.NewLLMAdvisor(llmSvc, advisor)
	}

	engine := monitor.NewEngine(selector, futuresSvc, dispatcher,
		monitor.WithThresholds(cfg.thresholds()),
		monitor.WithCooldown(cfg.Cooldown),
		monitor.WithConcurrency(cfg.Concurrency),
		monitor.WithAdvisor(advisor),
		monitor.WithAlertRepo(alertRepo),
	)

	snapshots := monitor.NewSnapshotStore(cfg.SnapshotPath)
	if err := snapshots.Load(engine); err != nil {
		slog.Warn("load snapshot failed", slog.Any("err", err))
	}

	reject := lo.Map(cfg.Reject, func(s string, _ int) exchange.Symbol {
		base, quote := exchange.SplitSymbol(s)
		return exchange.Symbol{Base: base, Quote: quote}
	})
	resolver := monitor.NewUniverseResolver(futuresSvc, cfg.Quote, cfg.UniverseTTL)
	task := monitor.NewMonitorTask(resolver, engine,
		monitor.WithReject(reject),
		monitor.WithLimit(cfg.SymbolsLimit),
		monitor.WithSnapshotStore(snapshots),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 启动时先拉一次监控范围, 配置或网络问题尽早暴露
	if _, err := resolver.Resolve(ctx); err != nil {
		panic(err)
	}

	slog.Info("market sentry started",
		slog.String("quote", cfg.Quote),
		slog.Duration("interval", cfg.Interval))
	loop := schedule.NewLoop(task, schedule.WithInterval(cfg.Interval))
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
	slog.Info("market sentry stopped")
}
