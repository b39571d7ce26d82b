package monitor

import (
	"strings"
	"sync"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
)

const (
	defaultPriceRetention = 3 * time.Minute
	defaultOIRetention    = 10 * time.Minute
)

// symbolState 单个交易对的滚动窗口, 由各自的锁保护
type symbolState struct {
	mu     sync.Mutex
	prices *Series[PricePoint]
	oi     *Series[OIPoint]
}

func newSymbolState(priceRetention, oiRetention time.Duration) *symbolState {
	return &symbolState{
		prices: NewSeries[PricePoint](priceRetention),
		oi:     NewSeries[OIPoint](oiRetention),
	}
}

type stateStore struct {
	mu             sync.RWMutex
	states         map[exchange.Symbol]*symbolState
	priceRetention time.Duration
	oiRetention    time.Duration
}

func newStateStore(priceRetention, oiRetention time.Duration) *stateStore {
	if priceRetention <= 0 {
		priceRetention = defaultPriceRetention
	}
	if oiRetention <= 0 {
		oiRetention = defaultOIRetention
	}
	return &stateStore{
		states:         make(map[exchange.Symbol]*symbolState),
		priceRetention: priceRetention,
		oiRetention:    oiRetention,
	}
}

// get 惰性创建, 同一交易对总是返回同一个 state
func (s *stateStore) get(symbol exchange.Symbol) *symbolState {
	s.mu.RLock()
	st, ok := s.states[symbol]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.states[symbol]; ok {
		return st
	}
	st = newSymbolState(s.priceRetention, s.oiRetention)
	s.states[symbol] = st
	return st
}

type symbolWindows struct {
	Prices []PricePoint `json:"prices,omitempty"`
	OI     []OIPoint    `json:"oi,omitempty"`
}

// export 导出所有非空窗口, key 为 BASE-QUOTE
func (s *stateStore) export() map[string]symbolWindows {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make(map[string]symbolWindows, len(s.states))
	for sym, st := range s.states {
		st.mu.Lock()
		w := symbolWindows{
			Prices: st.prices.Points(),
			OI:     st.oi.Points(),
		}
		st.mu.Unlock()
		if len(w.Prices) == 0 && len(w.OI) == 0 {
			continue
		}
		res[sym.ToDashString()] = w
	}
	return res
}

// restore 回放窗口采样, 过期点由 Series 的驱逐逻辑自然淘汰
func (s *stateStore) restore(windows map[string]symbolWindows) {
	for key, w := range windows {
		base, quote, ok := strings.Cut(key, "-")
		if !ok || base == "" || quote == "" {
			continue
		}
		st := s.get(exchange.Symbol{Base: base, Quote: quote})
		st.mu.Lock()
		for _, p := range w.Prices {
			if p.Validate() == nil {
				st.prices.Append(p)
			}
		}
		for _, p := range w.OI {
			if p.Validate() == nil {
				st.oi.Append(p)
			}
		}
		st.mu.Unlock()
	}
}
