package monitor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint 单根完整K线的收盘采样
type PricePoint struct {
	Ts       time.Time       `json:"ts"`
	Close    decimal.Decimal `json:"close"`
	Notional decimal.Decimal `json:"notional"`
}

func (p PricePoint) Timestamp() time.Time {
	return p.Ts
}

func (p PricePoint) Validate() error {
	if p.Ts.IsZero() {
		return fmt.Errorf("price point without timestamp")
	}
	if !p.Close.IsPositive() {
		return fmt.Errorf("non-positive close %s", p.Close)
	}
	if p.Notional.IsNegative() {
		return fmt.Errorf("negative notional %s", p.Notional)
	}
	return nil
}

// OIPoint 持仓量采样
type OIPoint struct {
	Ts    time.Time       `json:"ts"`
	Value decimal.Decimal `json:"value"`
}

func (p OIPoint) Timestamp() time.Time {
	return p.Ts
}

func (p OIPoint) Validate() error {
	if p.Ts.IsZero() {
		return fmt.Errorf("oi point without timestamp")
	}
	if p.Value.IsNegative() {
		return fmt.Errorf("negative open interest %s", p.Value)
	}
	return nil
}

type TimedPoint interface {
	Timestamp() time.Time
}

// Series 按保留时长滚动的时间序列, 只追加, 时间戳严格递增
// 两类指标共用同一个实现, 只是保留时长不同
type Series[T TimedPoint] struct {
	retention time.Duration
	points    []T
}

func NewSeries[T TimedPoint](retention time.Duration) *Series[T] {
	return &Series[T]{
		retention: retention,
	}
}

// Append 追加一个采样点并驱逐过期点
// 时间戳不晚于最后一个点的重复/乱序采样会被丢弃, 返回 false
func (s *Series[T]) Append(p T) bool {
	if last, ok := s.Latest(); ok && !p.Timestamp().After(last.Timestamp()) {
		return false
	}
	s.points = append(s.points, p)
	s.evict(p.Timestamp())
	return true
}

// AtOrBefore 返回时间戳不晚于 cutoff 的最近一个点
func (s *Series[T]) AtOrBefore(cutoff time.Time) (T, bool) {
	for i := len(s.points) - 1; i >= 0; i-- {
		if !s.points[i].Timestamp().After(cutoff) {
			return s.points[i], true
		}
	}
	var zero T
	return zero, false
}

func (s *Series[T]) Latest() (T, bool) {
	if len(s.points) == 0 {
		var zero T
		return zero, false
	}
	return s.points[len(s.points)-1], true
}

func (s *Series[T]) Len() int {
	return len(s.points)
}

// Points 返回当前窗口的拷贝, 时间升序
func (s *Series[T]) Points() []T {
	out := make([]T, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Series[T]) evict(now time.Time) {
	deadline := now.Add(-s.retention)
	idx := 0
	for idx < len(s.points) && s.points[idx].Timestamp().Before(deadline) {
		idx++
	}
	if idx > 0 {
		s.points = append(s.points[:0], s.points[idx:]...)
	}
}
