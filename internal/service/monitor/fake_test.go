package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/shopspring/decimal"
)

var btcUsdt = exchange.Symbol{Base: "BTC", Quote: "USDT"}

type fakeSpot struct {
	name     string
	tickers  map[exchange.Symbol]exchange.Ticker24h
	klines   map[exchange.Symbol][]exchange.Kline
	batchErr error
	klineErr error
}

func (f *fakeSpot) Name() string {
	return f.name
}

func (f *fakeSpot) AllTickers24h(ctx context.Context, quote string) (map[exchange.Symbol]exchange.Ticker24h, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.tickers, nil
}

func (f *fakeSpot) Ticker24h(ctx context.Context, symbol exchange.Symbol) (exchange.Ticker24h, error) {
	if f.batchErr != nil {
		return exchange.Ticker24h{}, f.batchErr
	}
	ticker, ok := f.tickers[symbol]
	if !ok {
		return exchange.Ticker24h{}, exchange.ErrSymbolNotListed
	}
	return ticker, nil
}

func (f *fakeSpot) RecentKlines(ctx context.Context, symbol exchange.Symbol, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	if f.klineErr != nil {
		return nil, f.klineErr
	}
	return f.klines[symbol], nil
}

type fakeFutures struct {
	symbols []exchange.Symbol
	listErr error

	oiValues []decimal.Decimal // OpenInterest 按调用次序依次返回
	oiTimes  []time.Time       // 可选, 与 oiValues 对应的交易所采样时间
	oiErr    error
	funding  decimal.Decimal
	ratio    decimal.Decimal
	klines   []exchange.Kline

	mu      sync.Mutex
	oiCalls int
}

func (f *fakeFutures) Name() string {
	return "fake-futures"
}

func (f *fakeFutures) ListSymbols(ctx context.Context, quote string) ([]exchange.Symbol, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.symbols, nil
}

func (f *fakeFutures) OpenInterest(ctx context.Context, symbol exchange.Symbol) (exchange.OpenInterest, error) {
	if f.oiErr != nil {
		return exchange.OpenInterest{}, f.oiErr
	}
	f.mu.Lock()
	idx := f.oiCalls
	f.oiCalls++
	f.mu.Unlock()
	if idx >= len(f.oiValues) {
		idx = len(f.oiValues) - 1
	}
	if idx < 0 {
		return exchange.OpenInterest{}, exchange.ErrNoData
	}
	ts := time.Now()
	if idx < len(f.oiTimes) {
		ts = f.oiTimes[idx]
	}
	return exchange.OpenInterest{
		Symbol: symbol,
		Value:  f.oiValues[idx],
		Time:   ts,
	}, nil
}

func (f *fakeFutures) FundingRate(ctx context.Context, symbol exchange.Symbol) (decimal.Decimal, error) {
	return f.funding, nil
}

func (f *fakeFutures) LongShortRatio(ctx context.Context, symbol exchange.Symbol) (decimal.Decimal, error) {
	return f.ratio, nil
}

func (f *fakeFutures) RecentKlines(ctx context.Context, symbol exchange.Symbol, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	return f.klines, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []AlertEvent
	err    error
}

func (f *fakeNotifier) Notify(ctx context.Context, event AlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeNotifier) Events() []AlertEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AlertEvent(nil), f.events...)
}

// closedKlines 生成 count 根已经走完的1分钟K线, 最后一根收盘于 end
func closedKlines(end time.Time, count int, closes []float64, notionals []float64) []exchange.Kline {
	res := make([]exchange.Kline, 0, count)
	for i := 0; i < count; i++ {
		openTime := end.Add(-time.Duration(count-i) * time.Minute)
		res = append(res, exchange.Kline{
			OpenTime:         openTime,
			CloseTime:        openTime.Add(time.Minute),
			Close:            decimal.NewFromFloat(closes[i]),
			QuoteAssetVolume: decimal.NewFromFloat(notionals[i]),
		})
	}
	return res
}
