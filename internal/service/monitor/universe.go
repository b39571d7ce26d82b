package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
)

const defaultUniverseTTL = time.Hour

// UniverseResolver 以合约永续交易对为监控范围, 带缓存定期刷新
// 刷新失败时沿用上一次结果, 只有从未成功过才返回错误
type UniverseResolver struct {
	futuresSvc exchange.FuturesMarketService
	quote      string
	ttl        time.Duration

	mu        sync.Mutex
	cached    []exchange.Symbol
	refreshed time.Time
}

func NewUniverseResolver(futuresSvc exchange.FuturesMarketService, quote string, ttl time.Duration) *UniverseResolver {
	if ttl <= 0 {
		ttl = defaultUniverseTTL
	}
	return &UniverseResolver{
		futuresSvc: futuresSvc,
		quote:      quote,
		ttl:        ttl,
	}
}

func (r *UniverseResolver) Resolve(ctx context.Context) ([]exchange.Symbol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.cached) > 0 && time.Since(r.refreshed) < r.ttl {
		return r.cached, nil
	}

	symbols, err := r.futuresSvc.ListSymbols(ctx, r.quote)
	if err != nil {
		if len(r.cached) > 0 {
			slog.Warn("refresh universe failed, keep cached",
				slog.Int("cached", len(r.cached)), slog.Any("err", err))
			return r.cached, nil
		}
		return nil, fmt.Errorf("list perpetual symbols: %w", err)
	}

	r.cached = symbols
	r.refreshed = time.Now()
	return symbols, nil
}
