package kucoin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertCandleRow(t *testing.T) {
	// kucoin 列序: [ts(秒), open, close, high, low, volume, turnover]
	row := []string{"1717243200", "100", "102.5", "105", "99", "500", "51000"}

	k, err := convertCandleRow(row, exchange.Interval1m)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1717243200, 0), k.OpenTime)
	assert.True(t, k.Open.Equal(decimal.NewFromInt(100)))
	assert.True(t, k.Close.Equal(decimal.NewFromFloat(102.5)))
	assert.True(t, k.High.Equal(decimal.NewFromInt(105)))
	assert.True(t, k.Low.Equal(decimal.NewFromInt(99)))
	assert.True(t, k.NotionalVolume().Equal(decimal.NewFromInt(51000)))
}

func TestSpotService_AllTickers24h(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/market/allTickers", r.URL.Path)
		_, _ = w.Write([]byte(`{"code":"200000","data":{"time":1717243200000,"ticker":[
			{"symbol":"BTC-USDT","last":"102.5","volValue":"5000000","changeRate":"0.025"},
			{"symbol":"ETH-BTC","last":"0.05","volValue":"100","changeRate":"0"}
		]}}`))
	}))
	defer srv.Close()

	svc := NewSpotService(srv.Client(), srv.URL)
	tickers, err := svc.AllTickers24h(context.Background(), "USDT")
	require.NoError(t, err)
	require.Len(t, tickers, 1)

	ticker := tickers[exchange.Symbol{Base: "BTC", Quote: "USDT"}]
	assert.True(t, ticker.QuoteVolume.Equal(decimal.NewFromInt(5000000)))
}

func TestSpotService_TickerNotListed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/market/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{"code":"200000","data":{"symbol":"NOPE-USDT","last":null,"volValue":null}}`))
	}))
	defer srv.Close()

	svc := NewSpotService(srv.Client(), srv.URL)
	_, err := svc.Ticker24h(context.Background(), exchange.Symbol{Base: "NOPE", Quote: "USDT"})
	assert.ErrorIs(t, err, exchange.ErrSymbolNotListed)
}
