package okx

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
	// [ts, open, high, low, close, vol, volCcy]
	row := []string{"1717243200000", "100", "105", "99", "102.5", "500", "51000"}

	k, err := convertCandleRow(row, exchange.Interval1m)
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1717243200000), k.OpenTime)
	assert.Equal(t, time.UnixMilli(1717243200000).Add(time.Minute), k.CloseTime)
	assert.True(t, k.Close.Equal(decimal.NewFromFloat(102.5)))
	assert.True(t, k.NotionalVolume().Equal(decimal.NewFromInt(51000)))
}

func TestConvertCandleRow_Malformed(t *testing.T) {
	_, err := convertCandleRow([]string{"1717243200000", "100"}, exchange.Interval1m)
	assert.ErrorIs(t, err, exchange.ErrNoData)

	_, err = convertCandleRow([]string{"oops", "100", "105", "99", "102.5", "500", "51000"}, exchange.Interval1m)
	assert.Error(t, err)
}

func TestSpotService_RecentKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v5/market/candles", r.URL.Path)
		require.Equal(t, "BTC-USDT", r.URL.Query().Get("instId"))
		// okx 返回倒序
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[
			["1717243260000","102.5","103","102","102.8","600","61000"],
			["1717243200000","100","105","99","102.5","500","51000"]
		]}`))
	}))
	defer srv.Close()

	svc := NewSpotService(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(100, 10))
	klines, err := svc.RecentKlines(context.Background(), exchange.Symbol{Base: "BTC", Quote: "USDT"}, exchange.Interval1m, 2)
	require.NoError(t, err)
	require.Len(t, klines, 2)

	// 转换后按时间升序
	assert.True(t, klines[0].OpenTime.Before(klines[1].OpenTime))
	assert.True(t, klines[0].Close.Equal(decimal.NewFromFloat(102.5)))
}

func TestSpotService_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer srv.Close()

	svc := NewSpotService(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(100, 10))
	_, err := svc.RecentKlines(context.Background(), exchange.Symbol{Base: "NOPE", Quote: "USDT"}, exchange.Interval1m, 2)
	assert.Error(t, err)
}
