package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/KNICEX/market-sentry/internal/service/llm"
	"github.com/KNICEX/market-sentry/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	adviceStrongBuy  = "强烈买入"
	adviceBuy        = "买入"
	adviceHold       = "观望"
	adviceSell       = "卖出"
	adviceStrongSell = "强烈卖出"
)

func adviceForScore(score int) string {
	switch {
	case score >= 50:
		return adviceStrongBuy
	case score >= 30:
		return adviceBuy
	case score <= -50:
		return adviceStrongSell
	case score <= -30:
		return adviceSell
	default:
		return adviceHold
	}
}

type ruleAdvisor struct {
	futuresSvc exchange.FuturesMarketService
	rsiPeriod  int
	klineLimit int
}

// NewRuleAdvisor 基于合约盘面指标打分
// 任一指标拉取失败只会从评分中剔除该项, 不返回错误
func NewRuleAdvisor(futuresSvc exchange.FuturesMarketService) Advisor {
	return &ruleAdvisor{
		futuresSvc: futuresSvc,
		rsiPeriod:  14,
		klineLimit: 20,
	}
}

func (a *ruleAdvisor) Advise(ctx context.Context, symbol exchange.Symbol) (Recommendation, error) {
	score := 0
	var reasons []string

	klines, err := a.futuresSvc.RecentKlines(ctx, symbol, exchange.Interval5m, a.klineLimit)
	if err != nil {
		slog.Debug("advisor kline fetch failed", slog.String("symbol", symbol.ToString()), slog.Any("err", err))
	} else if len(klines) >= 2 {
		closes := lo.Map(klines, func(k exchange.Kline, _ int) decimal.Decimal {
			return k.Close
		})

		slope := decimalx.Slope(closes)
		switch {
		case slope.GreaterThan(decimal.NewFromFloat(0.01)):
			score += 25
			reasons = append(reasons, "短线趋势向上")
		case slope.LessThan(decimal.NewFromFloat(-0.01)):
			score -= 25
			reasons = append(reasons, "短线趋势向下")
		}

		if rsi, ok := decimalx.RSI(closes, a.rsiPeriod); ok {
			switch {
			case rsi.GreaterThanOrEqual(decimal.NewFromInt(70)):
				score -= 15
				reasons = append(reasons, fmt.Sprintf("RSI %s 超买", rsi.Round(1)))
			case rsi.LessThanOrEqual(decimal.NewFromInt(30)):
				score += 15
				reasons = append(reasons, fmt.Sprintf("RSI %s 超卖", rsi.Round(1)))
			}
		}
	}

	funding, err := a.futuresSvc.FundingRate(ctx, symbol)
	if err != nil {
		slog.Debug("advisor funding fetch failed", slog.String("symbol", symbol.ToString()), slog.Any("err", err))
	} else {
		switch {
		case funding.GreaterThanOrEqual(decimal.NewFromFloat(0.001)):
			score -= 20
			reasons = append(reasons, "资金费率偏高, 多头拥挤")
		case funding.LessThanOrEqual(decimal.NewFromFloat(-0.001)):
			score += 20
			reasons = append(reasons, "资金费率为负, 空头拥挤")
		}
	}

	ratio, err := a.futuresSvc.LongShortRatio(ctx, symbol)
	if err != nil {
		slog.Debug("advisor long/short fetch failed", slog.String("symbol", symbol.ToString()), slog.Any("err", err))
	} else {
		switch {
		case ratio.GreaterThanOrEqual(decimal.NewFromInt(2)):
			score -= 10
			reasons = append(reasons, "多空比偏高")
		case ratio.LessThanOrEqual(decimal.NewFromFloat(0.5)):
			score += 10
			reasons = append(reasons, "多空比偏低")
		}
	}

	return Recommendation{
		Score:   score,
		Advice:  adviceForScore(score),
		Reasons: reasons,
	}, nil
}

type llmAdvisor struct {
	svc      llm.Service
	fallback Advisor
}

// NewLLMAdvisor 先用规则打分, 再让大模型基于指标摘要复核
// 模型不可用或回答无法解析时直接退回规则结果
func NewLLMAdvisor(svc llm.Service, fallback Advisor) Advisor {
	return &llmAdvisor{
		svc:      svc,
		fallback: fallback,
	}
}

type llmVerdict struct {
	Score  int    `json:"score"`
	Advice string `json:"advice"`
	Reason string `json:"reason"`
}

func (a *llmAdvisor) Advise(ctx context.Context, symbol exchange.Symbol) (Recommendation, error) {
	base, err := a.fallback.Advise(ctx, symbol)
	if err != nil {
		return Recommendation{}, err
	}

	answer, err := a.svc.AskOnce(ctx, llm.Question{
		Content: a.buildPrompt(symbol, base),
	})
	if err != nil {
		slog.Warn("llm advise failed, use rule result", slog.String("symbol", symbol.ToString()), slog.Any("err", err))
		return base, nil
	}

	verdict, err := a.parseVerdict(answer.Content)
	if err != nil {
		slog.Warn("llm answer unparsable, use rule result", slog.String("symbol", symbol.ToString()), slog.Any("err", err))
		return base, nil
	}

	reasons := base.Reasons
	if verdict.Reason != "" {
		reasons = append(reasons, verdict.Reason)
	}
	return Recommendation{
		Score:   verdict.Score,
		Advice:  adviceForScore(verdict.Score),
		Reasons: reasons,
	}, nil
}

func (a *llmAdvisor) buildPrompt(symbol exchange.Symbol, base Recommendation) string {
	return fmt.Sprintf(`你是加密货币短线分析助手。%s 刚触发异动警报, 规则打分为 %d 分(满分±100), 依据: %s。
请结合这些依据复核, 给出你的综合评分。
只输出一个 json 对象, 不要输出其他内容, 格式:
{"score": 评分int, "advice": "建议", "reason": "一句话理由"}`,
		symbol.ToString(), base.Score, strings.Join(base.Reasons, "; "))
}

func (a *llmAdvisor) parseVerdict(content string) (llmVerdict, error) {
	begin := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if begin < 0 || end <= begin {
		return llmVerdict{}, fmt.Errorf("no json object in answer: %s", content)
	}

	var verdict llmVerdict
	if err := json.Unmarshal([]byte(content[begin:end+1]), &verdict); err != nil {
		return llmVerdict{}, fmt.Errorf("unmarshal llm answer: %w", err)
	}
	return verdict, nil
}
