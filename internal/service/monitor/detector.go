package monitor

import (
	"time"

	"github.com/KNICEX/market-sentry/pkg/decimalx"
	"github.com/shopspring/decimal"
)

// Thresholds 异动判定阈值
type Thresholds struct {
	// SpotNotional 单根K线成交额下限(计价币)
	SpotNotional decimal.Decimal
	// SpotPricePct 相邻K线收盘价涨跌幅绝对值下限(百分比)
	SpotPricePct decimal.Decimal
	// OIWindow 持仓量回溯窗口
	OIWindow time.Duration
	// OIGrowthPct 窗口内持仓量增幅下限(百分比)
	OIGrowthPct decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SpotNotional: decimal.NewFromInt(50000),
		SpotPricePct: decimal.NewFromInt(2),
		OIWindow:     5 * time.Minute,
		OIGrowthPct:  decimal.NewFromInt(5),
	}
}

type Detector struct {
	thresholds     Thresholds
	candleInterval time.Duration
}

func NewDetector(thresholds Thresholds, candleInterval time.Duration) *Detector {
	if candleInterval <= 0 {
		candleInterval = time.Minute
	}
	return &Detector{
		thresholds:     thresholds,
		candleInterval: candleInterval,
	}
}

// EvalSpot 现货放量判定: 最新一根完整K线成交额达标, 且相对前一根K线的涨跌幅达标
// 窗口内凑不齐两根K线时不判定, 静默返回 false
func (d *Detector) EvalSpot(prices *Series[PricePoint], source string) (SpotMetrics, bool) {
	latest, ok := prices.Latest()
	if !ok {
		return SpotMetrics{}, false
	}
	prev, ok := prices.AtOrBefore(latest.Ts.Add(-d.candleInterval))
	if !ok {
		return SpotMetrics{}, false
	}

	if latest.Notional.LessThan(d.thresholds.SpotNotional) {
		return SpotMetrics{}, false
	}
	pctChange := decimalx.PctChange(prev.Close, latest.Close)
	if pctChange.Abs().LessThan(d.thresholds.SpotPricePct) {
		return SpotMetrics{}, false
	}

	direction := DirectionUp
	if pctChange.IsNegative() {
		direction = DirectionDown
	}
	return SpotMetrics{
		Source:    source,
		Close:     latest.Close,
		PrevClose: prev.Close,
		Notional:  latest.Notional,
		PctChange: pctChange,
		Direction: direction,
	}, true
}

// EvalOI 期货加仓判定: 当前持仓量相对窗口起点的增幅达标
// 窗口起点缺数据或为零时不判定
func (d *Detector) EvalOI(oi *Series[OIPoint], now time.Time) (OIMetrics, bool) {
	current, ok := oi.Latest()
	if !ok {
		return OIMetrics{}, false
	}
	prev, ok := oi.AtOrBefore(now.Add(-d.thresholds.OIWindow))
	if !ok || !prev.Value.IsPositive() {
		return OIMetrics{}, false
	}

	growth := decimalx.PctChange(prev.Value, current.Value)
	if growth.LessThan(d.thresholds.OIGrowthPct) {
		return OIMetrics{}, false
	}
	return OIMetrics{
		Prev:      prev.Value,
		Current:   current.Value,
		GrowthPct: growth,
		Window:    d.thresholds.OIWindow,
	}, true
}
