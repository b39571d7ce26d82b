package monitor

import (
	"context"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/shopspring/decimal"
)

type AlertKind string

const (
	KindSpotVolumeSpike AlertKind = "spot_volume_spike"
	KindFuturesOIChange AlertKind = "futures_oi_change"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// SpotMetrics 现货放量信号指标
type SpotMetrics struct {
	Source    string          `json:"source"` // 触发数据来源的现货交易所
	Close     decimal.Decimal `json:"close"`
	PrevClose decimal.Decimal `json:"prev_close"`
	Notional  decimal.Decimal `json:"notional"` // 最近一根完整K线成交额
	PctChange decimal.Decimal `json:"pct_change"`
	Direction Direction       `json:"direction"`
}

// OIMetrics 合约加仓信号指标
type OIMetrics struct {
	Prev      decimal.Decimal `json:"prev"`
	Current   decimal.Decimal `json:"current"`
	GrowthPct decimal.Decimal `json:"growth_pct"`
	Window    time.Duration   `json:"window"`
}

// Recommendation 辅助建议, 仅供参考, 不影响警报是否触发
type Recommendation struct {
	Score   int      `json:"score"`
	Advice  string   `json:"advice"`
	Reasons []string `json:"reasons"`
}

// AlertEvent 一次已确认的异动, 构造后不再修改
type AlertEvent struct {
	Symbol         exchange.Symbol `json:"symbol"`
	Kind           AlertKind       `json:"kind"`
	Spot           *SpotMetrics    `json:"spot,omitempty"`
	OI             *OIMetrics      `json:"oi,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event AlertEvent) error
}

// Advisor 产出辅助建议, 失败只会降级为无建议
type Advisor interface {
	Advise(ctx context.Context, symbol exchange.Symbol) (Recommendation, error)
}
