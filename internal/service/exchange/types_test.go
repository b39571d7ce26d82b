package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSymbol_Formats(t *testing.T) {
	s := Symbol{Base: "BTC", Quote: "USDT"}
	assert.Equal(t, "BTCUSDT", s.ToString())
	assert.Equal(t, "BTC/USDT", s.ToSlashString())
	assert.Equal(t, "BTC-USDT", s.ToDashString())
	assert.False(t, s.IsZero())
	assert.True(t, Symbol{Base: "BTC"}.IsZero())
}

func TestSplitSymbol(t *testing.T) {
	testCases := []struct {
		input string
		base  string
		quote string
	}{
		{"BTCUSDT", "BTC", "USDT"},
		{"ethusdt", "ETH", "USDT"},
		{"SOLUSDC", "SOL", "USDC"},
		{"ETHBTC", "ETH", "BTC"},
		{"USDT", "USDT", ""},
		{"XYZ", "XYZ", ""},
	}
	for _, tc := range testCases {
		base, quote := SplitSymbol(tc.input)
		assert.Equal(t, tc.base, base, tc.input)
		assert.Equal(t, tc.quote, quote, tc.input)
	}
}

func TestKline_NotionalVolume(t *testing.T) {
	k := Kline{
		Close:            decimal.NewFromInt(100),
		Volume:           decimal.NewFromInt(3),
		QuoteAssetVolume: decimal.NewFromInt(310),
	}
	assert.True(t, k.NotionalVolume().Equal(decimal.NewFromInt(310)))

	// 交易所没给成交额就用 close*volume 估算
	k.QuoteAssetVolume = decimal.Zero
	assert.True(t, k.NotionalVolume().Equal(decimal.NewFromInt(300)))
}

func TestInterval_ToString(t *testing.T) {
	assert.Equal(t, "1m", Interval1m.ToString())
}
