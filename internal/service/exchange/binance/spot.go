package binance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

var _ exchange.SpotMarketService = (*SpotService)(nil)

// SpotService Binance 现货行情
type SpotService struct {
	cli *binance.Client
}

func NewSpotService(cli *binance.Client) *SpotService {
	return &SpotService{cli: cli}
}

func (svc *SpotService) Name() string {
	return "binance"
}

// AllTickers24h 全量 24h 行情, 仅保留指定计价货币的交易对
func (svc *SpotService) AllTickers24h(ctx context.Context, quote string) (map[exchange.Symbol]exchange.Ticker24h, error) {
	stats, err := svc.cli.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance 24h stats: %w", err)
	}

	res := make(map[exchange.Symbol]exchange.Ticker24h, len(stats))
	for _, st := range stats {
		if !strings.HasSuffix(st.Symbol, quote) {
			continue
		}
		ticker, err := convertStats(st, quote)
		if err != nil {
			slog.Debug("skip malformed binance ticker", "symbol", st.Symbol, "error", err)
			continue
		}
		res[ticker.Symbol] = ticker
	}
	return res, nil
}

func (svc *SpotService) Ticker24h(ctx context.Context, symbol exchange.Symbol) (exchange.Ticker24h, error) {
	stats, err := svc.cli.NewListPriceChangeStatsService().Symbol(symbol.ToString()).Do(ctx)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("binance 24h stats %s: %w", symbol.ToString(), err)
	}
	if len(stats) == 0 {
		return exchange.Ticker24h{}, exchange.ErrSymbolNotListed
	}
	return convertStats(stats[0], symbol.Quote)
}

func (svc *SpotService) RecentKlines(ctx context.Context, symbol exchange.Symbol, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	res, err := svc.cli.NewKlinesService().
		Symbol(symbol.ToString()).
		Interval(interval.ToString()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance spot klines %s: %w", symbol.ToString(), err)
	}

	kls := make([]exchange.Kline, 0, len(res))
	for _, k := range res {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, fmt.Errorf("parse kline open %q: %w", k.Open, err)
		}
		cls, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, fmt.Errorf("parse kline close %q: %w", k.Close, err)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, fmt.Errorf("parse kline high %q: %w", k.High, err)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, fmt.Errorf("parse kline low %q: %w", k.Low, err)
		}
		vol, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, fmt.Errorf("parse kline volume %q: %w", k.Volume, err)
		}
		quoteVol, err := decimal.NewFromString(k.QuoteAssetVolume)
		if err != nil {
			return nil, fmt.Errorf("parse kline quote volume %q: %w", k.QuoteAssetVolume, err)
		}
		kls = append(kls, exchange.Kline{
			OpenTime:         time.UnixMilli(k.OpenTime),
			CloseTime:        time.UnixMilli(k.CloseTime),
			Open:             open,
			Close:            cls,
			High:             high,
			Low:              low,
			Volume:           vol,
			QuoteAssetVolume: quoteVol,
		})
	}
	return kls, nil
}

func convertStats(st *binance.PriceChangeStats, quote string) (exchange.Ticker24h, error) {
	last, err := decimal.NewFromString(st.LastPrice)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse last price %q: %w", st.LastPrice, err)
	}
	quoteVol, err := decimal.NewFromString(st.QuoteVolume)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse quote volume %q: %w", st.QuoteVolume, err)
	}
	pct, err := decimal.NewFromString(st.PriceChangePercent)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse pct change %q: %w", st.PriceChangePercent, err)
	}
	return exchange.Ticker24h{
		Symbol: exchange.Symbol{
			Base:  strings.TrimSuffix(st.Symbol, quote),
			Quote: quote,
		},
		LastPrice:   last,
		QuoteVolume: quoteVol,
		PctChange:   pct,
	}, nil
}
