package entity

import (
	"time"
)

// Alert 已触发的异动警报
type Alert struct {
	Id          int64  `gorm:"primaryKey;autoIncrement"`
	BaseSymbol  string `gorm:"index"`
	QuoteSymbol string `gorm:"index"`
	Kind        string `gorm:"index"` // spot_volume_spike / futures_oi_change
	Source      string // 触发数据来源的交易所
	Price       string
	Metric      string // 触发指标, 如 1m 成交额或 OI 增幅
	PctChange   float64
	Score       int
	Advice      string
	Message     string
	CreatedAt   time.Time `gorm:"index"`
}
