package decimalx

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RSI 简单均值版相对强弱指标, closes 按时间升序
// 样本不足时返回 (zero, false)
func RSI(closes []decimal.Decimal, period int) (decimal.Decimal, bool) {
	if period <= 0 || len(closes) < period+1 {
		return decimal.Zero, false
	}

	closes = closes[len(closes)-period-1:]
	var gain, loss decimal.Decimal
	for i := 1; i < len(closes); i++ {
		delta := closes[i].Sub(closes[i-1])
		if delta.IsPositive() {
			gain = gain.Add(delta)
		} else {
			loss = loss.Add(delta.Neg())
		}
	}

	if loss.IsZero() {
		if gain.IsZero() {
			// 横盘, 中性
			return decimal.NewFromInt(50), true
		}
		return hundred, true
	}

	rs := gain.Div(loss)
	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs))), true
}
