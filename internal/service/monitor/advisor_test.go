package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/KNICEX/market-sentry/internal/service/llm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendKlines(closes []float64) []exchange.Kline {
	base := time.Now().Add(-time.Duration(len(closes)*5) * time.Minute)
	res := make([]exchange.Kline, 0, len(closes))
	for i, c := range closes {
		openTime := base.Add(time.Duration(i*5) * time.Minute)
		res = append(res, exchange.Kline{
			OpenTime:  openTime,
			CloseTime: openTime.Add(5 * time.Minute),
			Close:     decimal.NewFromFloat(c),
		})
	}
	return res
}

func TestRuleAdvisor_Bullish(t *testing.T) {
	futures := &fakeFutures{
		klines:  trendKlines([]float64{100, 101, 102, 103, 104, 105, 106, 107}),
		funding: decimal.NewFromFloat(-0.002),
		ratio:   decimal.NewFromFloat(0.4),
	}

	rec, err := NewRuleAdvisor(futures).Advise(context.Background(), btcUsdt)
	require.NoError(t, err)
	// 趋势向上 +25, 资金费率为负 +20, 多空比偏低 +10
	assert.Equal(t, 55, rec.Score)
	assert.Equal(t, adviceStrongBuy, rec.Advice)
	assert.NotEmpty(t, rec.Reasons)
}

func TestRuleAdvisor_Bearish(t *testing.T) {
	futures := &fakeFutures{
		klines:  trendKlines([]float64{107, 106, 105, 104, 103, 102, 101, 100}),
		funding: decimal.NewFromFloat(0.002),
		ratio:   decimal.NewFromFloat(2.5),
	}

	rec, err := NewRuleAdvisor(futures).Advise(context.Background(), btcUsdt)
	require.NoError(t, err)
	// 趋势向下 -25, 资金费率偏高 -20, 多空比偏高 -10
	assert.Equal(t, -55, rec.Score)
	assert.Equal(t, adviceStrongSell, rec.Advice)
}

func TestRuleAdvisor_NeutralWithoutKlines(t *testing.T) {
	futures := &fakeFutures{
		funding: decimal.NewFromFloat(0.0001),
		ratio:   decimal.NewFromInt(1),
	}

	rec, err := NewRuleAdvisor(futures).Advise(context.Background(), btcUsdt)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Score)
	assert.Equal(t, adviceHold, rec.Advice)
}

func TestAdviceForScore(t *testing.T) {
	assert.Equal(t, adviceStrongBuy, adviceForScore(50))
	assert.Equal(t, adviceBuy, adviceForScore(30))
	assert.Equal(t, adviceHold, adviceForScore(29))
	assert.Equal(t, adviceHold, adviceForScore(-29))
	assert.Equal(t, adviceSell, adviceForScore(-30))
	assert.Equal(t, adviceStrongSell, adviceForScore(-50))
}

type fakeLLM struct {
	answer string
	err    error
}

func (f *fakeLLM) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	if f.err != nil {
		return llm.Answer{}, f.err
	}
	return llm.Answer{Content: f.answer}, nil
}

func TestLLMAdvisor_OverridesScore(t *testing.T) {
	futures := &fakeFutures{funding: decimal.NewFromInt(0), ratio: decimal.NewFromInt(1)}
	svc := &fakeLLM{answer: "```json\n{\"score\": 40, \"advice\": \"买入\", \"reason\": \"放量突破\"}\n```"}

	rec, err := NewLLMAdvisor(svc, NewRuleAdvisor(futures)).Advise(context.Background(), btcUsdt)
	require.NoError(t, err)
	assert.Equal(t, 40, rec.Score)
	assert.Equal(t, adviceBuy, rec.Advice)
	assert.Contains(t, rec.Reasons, "放量突破")
}

func TestLLMAdvisor_FallsBackOnError(t *testing.T) {
	futures := &fakeFutures{funding: decimal.NewFromFloat(0.002), ratio: decimal.NewFromInt(1)}
	svc := &fakeLLM{err: errors.New("quota exceeded")}

	rec, err := NewLLMAdvisor(svc, NewRuleAdvisor(futures)).Advise(context.Background(), btcUsdt)
	require.NoError(t, err)
	// 模型挂了退回规则打分
	assert.Equal(t, -20, rec.Score)
}

func TestLLMAdvisor_FallsBackOnGarbage(t *testing.T) {
	futures := &fakeFutures{funding: decimal.NewFromInt(0), ratio: decimal.NewFromInt(1)}
	svc := &fakeLLM{answer: "我无法回答这个问题"}

	rec, err := NewLLMAdvisor(svc, NewRuleAdvisor(futures)).Advise(context.Background(), btcUsdt)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Score)
	assert.Equal(t, adviceHold, rec.Advice)
}
