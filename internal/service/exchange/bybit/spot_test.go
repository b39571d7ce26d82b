package bybit

import (
	"testing"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertKlineRow(t *testing.T) {
	// [startTime, open, high, low, close, volume, turnover]
	row := []string{"1717243200000", "100", "105", "99", "102.5", "500", "51000"}

	k, err := convertKlineRow(row, exchange.Interval1m)
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1717243200000), k.OpenTime)
	assert.Equal(t, time.UnixMilli(1717243200000).Add(time.Minute), k.CloseTime)
	assert.True(t, k.Close.Equal(decimal.NewFromFloat(102.5)))
	assert.True(t, k.NotionalVolume().Equal(decimal.NewFromInt(51000)))
}

func TestConvertKlineRow_Short(t *testing.T) {
	_, err := convertKlineRow([]string{"1717243200000"}, exchange.Interval1m)
	assert.ErrorIs(t, err, exchange.ErrNoData)
}

func TestDecodeResult(t *testing.T) {
	// bybit sdk 的 Result 是 any, 先序列化再映射到类型化结构
	raw := map[string]any{
		"category": "spot",
		"list": []map[string]any{
			{"symbol": "BTCUSDT", "lastPrice": "102.5", "turnover24h": "5000000", "price24hPcnt": "0.025"},
		},
	}

	var payload tickerList
	require.NoError(t, decodeResult(raw, &payload))
	require.Len(t, payload.List, 1)
	assert.Equal(t, "BTCUSDT", payload.List[0].Symbol)
	assert.Equal(t, "0.025", payload.List[0].Price24hPcnt)
}

func TestBybitInterval(t *testing.T) {
	assert.Equal(t, "1", bybitInterval(exchange.Interval1m))
	assert.Equal(t, "5", bybitInterval(exchange.Interval5m))
	assert.Equal(t, "60", bybitInterval(exchange.Interval1h))
	assert.Equal(t, "D", bybitInterval(exchange.Interval1d))
}
