package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tickerWithVolume(volume int64) exchange.Ticker24h {
	return exchange.Ticker24h{
		Symbol:      btcUsdt,
		LastPrice:   decimal.NewFromInt(100),
		QuoteVolume: decimal.NewFromInt(volume),
	}
}

func TestSourceSelector_PicksHighestVolume(t *testing.T) {
	a := &fakeSpot{name: "a", tickers: map[exchange.Symbol]exchange.Ticker24h{}}
	b := &fakeSpot{name: "b", tickers: map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(2_000_000)}}
	c := &fakeSpot{name: "c", tickers: map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(5_000_000)}}

	sel := NewSourceSelector([]exchange.SpotMarketService{a, b, c}, "USDT", time.Hour)
	sel.RefreshBatch(context.Background())

	src, ticker, ok := sel.Pick(context.Background(), btcUsdt)
	require.True(t, ok)
	assert.Equal(t, "c", src.Name())
	assert.True(t, ticker.QuoteVolume.Equal(decimal.NewFromInt(5_000_000)))
}

func TestSourceSelector_NoCoverage(t *testing.T) {
	a := &fakeSpot{name: "a", tickers: map[exchange.Symbol]exchange.Ticker24h{}}
	b := &fakeSpot{name: "b", batchErr: errors.New("503")}

	sel := NewSourceSelector([]exchange.SpotMarketService{a, b}, "USDT", time.Hour)
	sel.RefreshBatch(context.Background())

	// 谁都不覆盖时静默跳过, 不 panic 不报错
	_, _, ok := sel.Pick(context.Background(), btcUsdt)
	assert.False(t, ok)

	// 失败不粘滞: 数据源恢复后下一轮就能选上
	b.batchErr = nil
	b.tickers = map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(1_000_000)}
	sel.RefreshBatch(context.Background())
	src, _, ok := sel.Pick(context.Background(), btcUsdt)
	require.True(t, ok)
	assert.Equal(t, "b", src.Name())
}

func TestSourceSelector_StickyChoice(t *testing.T) {
	b := &fakeSpot{name: "b", tickers: map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(2_000_000)}}
	c := &fakeSpot{name: "c", tickers: map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(5_000_000)}}

	sel := NewSourceSelector([]exchange.SpotMarketService{b, c}, "USDT", time.Hour)
	sel.RefreshBatch(context.Background())

	src, _, ok := sel.Pick(context.Background(), btcUsdt)
	require.True(t, ok)
	require.Equal(t, "c", src.Name())

	// TTL 内即使 b 的量反超, 仍然沿用 c
	b.tickers[btcUsdt] = tickerWithVolume(9_000_000)
	sel.RefreshBatch(context.Background())
	src, _, ok = sel.Pick(context.Background(), btcUsdt)
	require.True(t, ok)
	assert.Equal(t, "c", src.Name())
}

func TestSourceSelector_StickySourceDropsSymbol(t *testing.T) {
	b := &fakeSpot{name: "b", tickers: map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(2_000_000)}}
	c := &fakeSpot{name: "c", tickers: map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(5_000_000)}}

	sel := NewSourceSelector([]exchange.SpotMarketService{b, c}, "USDT", time.Hour)
	sel.RefreshBatch(context.Background())

	src, _, ok := sel.Pick(context.Background(), btcUsdt)
	require.True(t, ok)
	require.Equal(t, "c", src.Name())

	// 粘滞的数据源下架了该交易对, 自动切换到还覆盖它的源
	delete(c.tickers, btcUsdt)
	sel.RefreshBatch(context.Background())
	src, _, ok = sel.Pick(context.Background(), btcUsdt)
	require.True(t, ok)
	assert.Equal(t, "b", src.Name())
}

func TestSourceSelector_BatchUnsupportedFallsBack(t *testing.T) {
	a := &fakeSpot{name: "a", batchErr: exchange.ErrBatchUnsupported}

	sel := NewSourceSelector([]exchange.SpotMarketService{a}, "USDT", time.Hour)
	sel.RefreshBatch(context.Background())

	a.batchErr = nil
	a.tickers = map[exchange.Symbol]exchange.Ticker24h{btcUsdt: tickerWithVolume(1_000_000)}
	src, _, ok := sel.Pick(context.Background(), btcUsdt)
	require.True(t, ok)
	assert.Equal(t, "a", src.Name())
}
