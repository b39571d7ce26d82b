package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
)

const defaultSourceTTL = 30 * time.Minute

type chosenSource struct {
	name string
	at   time.Time
}

// SourceSelector 按优先级在多个现货数据源之间为每个交易对挑选行情来源
// 选中结果带 TTL 粘滞, 避免每轮都重新比较
type SourceSelector struct {
	candidates []exchange.SpotMarketService
	quote      string
	ttl        time.Duration

	mu     sync.RWMutex
	batch  map[string]map[exchange.Symbol]exchange.Ticker24h
	chosen map[exchange.Symbol]chosenSource
}

func NewSourceSelector(candidates []exchange.SpotMarketService, quote string, ttl time.Duration) *SourceSelector {
	if ttl <= 0 {
		ttl = defaultSourceTTL
	}
	return &SourceSelector{
		candidates: candidates,
		quote:      quote,
		ttl:        ttl,
		batch:      make(map[string]map[exchange.Symbol]exchange.Ticker24h),
		chosen:     make(map[exchange.Symbol]chosenSource),
	}
}

// RefreshBatch 每轮开始时批量拉取各数据源的 24h 行情
// 不支持批量接口或批量失败的数据源会退化为逐符号查询
func (s *SourceSelector) RefreshBatch(ctx context.Context) {
	fresh := make(map[string]map[exchange.Symbol]exchange.Ticker24h, len(s.candidates))
	for _, svc := range s.candidates {
		tickers, err := svc.AllTickers24h(ctx, s.quote)
		if err != nil {
			if !errors.Is(err, exchange.ErrBatchUnsupported) {
				slog.Warn("batch tickers failed, fallback to per-symbol",
					slog.String("source", svc.Name()), slog.Any("err", err))
			}
			continue
		}
		fresh[svc.Name()] = tickers
	}

	s.mu.Lock()
	s.batch = fresh
	s.mu.Unlock()
}

// Pick 为交易对选出数据源和对应行情, 没有任何数据源覆盖时返回 false
// 选不出来不缓存, 下一轮还会重试
func (s *SourceSelector) Pick(ctx context.Context, symbol exchange.Symbol) (exchange.SpotMarketService, exchange.Ticker24h, bool) {
	now := time.Now()

	s.mu.RLock()
	prev, sticky := s.chosen[symbol]
	s.mu.RUnlock()

	if sticky && now.Sub(prev.at) < s.ttl {
		for _, svc := range s.candidates {
			if svc.Name() != prev.name {
				continue
			}
			if ticker, ok := s.ticker(ctx, svc, symbol); ok {
				return svc, ticker, true
			}
			break
		}
		// 粘滞的数据源失效了, 重新比较
		s.mu.Lock()
		delete(s.chosen, symbol)
		s.mu.Unlock()
	}

	var (
		best       exchange.SpotMarketService
		bestTicker exchange.Ticker24h
	)
	for _, svc := range s.candidates {
		ticker, ok := s.ticker(ctx, svc, symbol)
		if !ok {
			continue
		}
		if best == nil || ticker.QuoteVolume.GreaterThan(bestTicker.QuoteVolume) {
			best = svc
			bestTicker = ticker
		}
	}
	if best == nil {
		return nil, exchange.Ticker24h{}, false
	}

	s.mu.Lock()
	s.chosen[symbol] = chosenSource{name: best.Name(), at: now}
	s.mu.Unlock()
	return best, bestTicker, true
}

func (s *SourceSelector) ticker(ctx context.Context, svc exchange.SpotMarketService, symbol exchange.Symbol) (exchange.Ticker24h, bool) {
	s.mu.RLock()
	tickers, hasBatch := s.batch[svc.Name()]
	s.mu.RUnlock()

	if hasBatch {
		ticker, ok := tickers[symbol]
		return ticker, ok
	}

	ticker, err := svc.Ticker24h(ctx, symbol)
	if err != nil {
		if !errors.Is(err, exchange.ErrSymbolNotListed) {
			slog.Debug("ticker query failed",
				slog.String("source", svc.Name()),
				slog.String("symbol", symbol.ToString()),
				slog.Any("err", err))
		}
		return exchange.Ticker24h{}, false
	}
	return ticker, true
}
