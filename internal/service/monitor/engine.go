package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KNICEX/market-sentry/internal/entity"
	"github.com/KNICEX/market-sentry/internal/repo"
	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

type Engine struct {
	selector   *SourceSelector
	futuresSvc exchange.FuturesMarketService
	detector   *Detector
	gate       *CooldownGate
	states     *stateStore
	notifier   Notifier

	advisor     Advisor        // 可选
	alertRepo   repo.AlertRepo // 可选
	concurrency int

	candleInterval time.Duration
}

type EngineOption func(*Engine)

func WithThresholds(thresholds Thresholds) EngineOption {
	return func(e *Engine) {
		e.detector = NewDetector(thresholds, e.candleInterval)
	}
}

func WithCooldown(cooldown time.Duration) EngineOption {
	return func(e *Engine) {
		e.gate = NewCooldownGate(cooldown)
	}
}

func WithAdvisor(advisor Advisor) EngineOption {
	return func(e *Engine) {
		e.advisor = advisor
	}
}

func WithAlertRepo(alertRepo repo.AlertRepo) EngineOption {
	return func(e *Engine) {
		e.alertRepo = alertRepo
	}
}

func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func NewEngine(selector *SourceSelector, futuresSvc exchange.FuturesMarketService, notifier Notifier, opts ...EngineOption) *Engine {
	e := &Engine{
		selector:       selector,
		futuresSvc:     futuresSvc,
		notifier:       notifier,
		concurrency:    defaultConcurrency,
		candleInterval: time.Minute,
		states:         newStateStore(defaultPriceRetention, defaultOIRetention),
	}
	e.detector = NewDetector(DefaultThresholds(), e.candleInterval)
	e.gate = NewCooldownGate(defaultCooldown)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Gate() *CooldownGate {
	return e.gate
}

// Scan 跑完一轮: 刷新行情, 并发评估每个交易对, 最后统一派发警报
// 单个交易对失败不会影响其他交易对, 也不会使本轮失败
func (e *Engine) Scan(ctx context.Context, symbols []exchange.Symbol) error {
	e.selector.RefreshBatch(ctx)
	now := time.Now()

	var (
		mu     sync.Mutex
		events []AlertEvent
	)
	var eg errgroup.Group
	eg.SetLimit(e.concurrency)
	for _, symbol := range symbols {
		eg.Go(func() error {
			evs := e.evalSymbol(ctx, symbol, now)
			if len(evs) > 0 {
				mu.Lock()
				events = append(events, evs...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, event := range events {
		e.dispatch(ctx, event)
	}

	slog.Info("scan finished",
		slog.Int("symbols", len(symbols)),
		slog.Int("alerts", len(events)),
		slog.Duration("elapsed", time.Since(now)))
	return nil
}

func (e *Engine) evalSymbol(ctx context.Context, symbol exchange.Symbol, now time.Time) (events []AlertEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("eval symbol panic", slog.String("symbol", symbol.ToString()), slog.Any("panic", r))
			events = nil
		}
	}()

	st := e.states.get(symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	if event, ok := e.evalSpot(ctx, symbol, st, now); ok {
		events = append(events, event)
	}
	if event, ok := e.evalOI(ctx, symbol, st, now); ok {
		events = append(events, event)
	}
	return events
}

func (e *Engine) evalSpot(ctx context.Context, symbol exchange.Symbol, st *symbolState, now time.Time) (AlertEvent, bool) {
	src, _, ok := e.selector.Pick(ctx, symbol)
	if !ok {
		// 没有任何现货数据源覆盖, 跳过现货规则
		return AlertEvent{}, false
	}

	klines, err := src.RecentKlines(ctx, symbol, exchange.Interval1m, 3)
	if err != nil {
		slog.Warn("fetch spot klines failed",
			slog.String("source", src.Name()),
			slog.String("symbol", symbol.ToString()),
			slog.Any("err", err))
		return AlertEvent{}, false
	}

	for _, k := range klines {
		if k.CloseTime.After(now) {
			// 未走完的K线不参与判定
			continue
		}
		p := PricePoint{
			Ts:       k.OpenTime,
			Close:    k.Close,
			Notional: k.NotionalVolume(),
		}
		if err = p.Validate(); err != nil {
			slog.Debug("drop invalid kline",
				slog.String("source", src.Name()),
				slog.String("symbol", symbol.ToString()),
				slog.Any("err", err))
			continue
		}
		st.prices.Append(p)
	}

	metrics, fired := e.detector.EvalSpot(st.prices, src.Name())
	if !fired || !e.gate.ShouldFire(symbol, KindSpotVolumeSpike, now) {
		return AlertEvent{}, false
	}
	return AlertEvent{
		Symbol:    symbol,
		Kind:      KindSpotVolumeSpike,
		Spot:      &metrics,
		CreatedAt: now,
	}, true
}

func (e *Engine) evalOI(ctx context.Context, symbol exchange.Symbol, st *symbolState, now time.Time) (AlertEvent, bool) {
	oi, err := e.futuresSvc.OpenInterest(ctx, symbol)
	if err != nil {
		slog.Warn("fetch open interest failed",
			slog.String("symbol", symbol.ToString()),
			slog.Any("err", err))
		return AlertEvent{}, false
	}

	// 优先用交易所上报的采样时间, 没有再退回扫描时间
	ts := oi.Time
	if ts.IsZero() {
		ts = now
	}
	p := OIPoint{Ts: ts, Value: oi.Value}
	if err = p.Validate(); err != nil {
		slog.Debug("drop invalid open interest",
			slog.String("symbol", symbol.ToString()),
			slog.Any("err", err))
		return AlertEvent{}, false
	}
	st.oi.Append(p)

	metrics, fired := e.detector.EvalOI(st.oi, now)
	if !fired || !e.gate.ShouldFire(symbol, KindFuturesOIChange, now) {
		return AlertEvent{}, false
	}
	return AlertEvent{
		Symbol:    symbol,
		Kind:      KindFuturesOIChange,
		OI:        &metrics,
		CreatedAt: now,
	}, true
}

func (e *Engine) dispatch(ctx context.Context, event AlertEvent) {
	if e.advisor != nil {
		rec, err := e.advisor.Advise(ctx, event.Symbol)
		if err != nil {
			slog.Warn("advise failed", slog.String("symbol", event.Symbol.ToString()), slog.Any("err", err))
		} else {
			event.Recommendation = &rec
		}
	}

	if err := e.notifier.Notify(ctx, event); err != nil {
		slog.Error("notify failed",
			slog.String("symbol", event.Symbol.ToString()),
			slog.String("kind", string(event.Kind)),
			slog.Any("err", err))
	}

	if e.alertRepo == nil {
		return
	}
	if _, err := e.alertRepo.Create(ctx, e.toEntity(event)); err != nil {
		slog.Error("save alert failed",
			slog.String("symbol", event.Symbol.ToString()),
			slog.Any("err", err))
	}
}

func (e *Engine) toEntity(event AlertEvent) entity.Alert {
	alert := entity.Alert{
		BaseSymbol:  event.Symbol.Base,
		QuoteSymbol: event.Symbol.Quote,
		Kind:        string(event.Kind),
		CreatedAt:   event.CreatedAt,
	}
	switch {
	case event.Spot != nil:
		alert.Source = event.Spot.Source
		alert.Price = event.Spot.Close.String()
		alert.Metric = event.Spot.Notional.String()
		alert.PctChange = event.Spot.PctChange.InexactFloat64()
	case event.OI != nil:
		alert.Metric = event.OI.Current.String()
		alert.PctChange = event.OI.GrowthPct.InexactFloat64()
	}
	if event.Recommendation != nil {
		alert.Score = event.Recommendation.Score
		alert.Advice = event.Recommendation.Advice
	}
	if raw, err := json.Marshal(event); err == nil {
		alert.Message = string(raw)
	} else {
		alert.Message = fmt.Sprintf("%s %s", event.Symbol.ToString(), event.Kind)
	}
	return alert
}
