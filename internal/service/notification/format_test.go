package notification

import (
	"testing"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/KNICEX/market-sentry/internal/service/monitor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAlert_SpotVolumeSpike(t *testing.T) {
	text := FormatAlert(spotEvent())

	assert.Contains(t, text, "警报：BTC/USDT")
	assert.Contains(t, text, "类型：现货放量")
	assert.Contains(t, text, "60000")
	assert.Contains(t, text, "上涨 2.5%")
	assert.Contains(t, text, "交易所：binance")
	assert.Contains(t, text, "时间：")
}

func TestFormatAlert_FuturesOIChange(t *testing.T) {
	event := monitor.AlertEvent{
		Symbol: exchange.Symbol{Base: "ETH", Quote: "USDT"},
		Kind:   monitor.KindFuturesOIChange,
		OI: &monitor.OIMetrics{
			Prev:      decimal.NewFromInt(1000),
			Current:   decimal.NewFromInt(1051),
			GrowthPct: decimal.NewFromFloat(5.1),
			Window:    5 * time.Minute,
		},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	text := FormatAlert(event)
	assert.Contains(t, text, "警报：ETH/USDT")
	assert.Contains(t, text, "类型：期货加仓")
	assert.Contains(t, text, "1000 -> 1051")
	assert.Contains(t, text, "5分钟内增长 5.1%")
}

func TestFormatAlert_WithRecommendation(t *testing.T) {
	event := spotEvent()
	event.Recommendation = &monitor.Recommendation{
		Score:   40,
		Advice:  "买入",
		Reasons: []string{"短线趋势向上", "资金费率为负, 空头拥挤"},
	}

	text := FormatAlert(event)
	assert.Contains(t, text, "建议：买入 (评分 40)")
	assert.Contains(t, text, "短线趋势向上")
}
