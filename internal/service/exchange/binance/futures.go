package binance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var _ exchange.FuturesMarketService = (*FuturesService)(nil)

// FuturesService Binance USDT 本位合约行情
type FuturesService struct {
	cli *futures.Client
}

func NewFuturesService(cli *futures.Client) *FuturesService {
	return &FuturesService{cli: cli}
}

func (svc *FuturesService) Name() string {
	return "binance-futures"
}

// ListSymbols 仅返回交易中的线性永续合约
func (svc *FuturesService) ListSymbols(ctx context.Context, quote string) ([]exchange.Symbol, error) {
	info, err := svc.cli.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance futures exchange info: %w", err)
	}

	perps := lo.Filter(info.Symbols, func(item futures.Symbol, index int) bool {
		return item.ContractType == "PERPETUAL" &&
			item.QuoteAsset == quote &&
			item.Status == "TRADING"
	})

	symbols := lo.Map(perps, func(item futures.Symbol, index int) exchange.Symbol {
		return exchange.Symbol{
			Base:  item.BaseAsset,
			Quote: item.QuoteAsset,
		}
	})
	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i].Base < symbols[j].Base
	})
	return symbols, nil
}

func (svc *FuturesService) OpenInterest(ctx context.Context, symbol exchange.Symbol) (exchange.OpenInterest, error) {
	res, err := svc.cli.NewGetOpenInterestService().Symbol(symbol.ToString()).Do(ctx)
	if err != nil {
		return exchange.OpenInterest{}, fmt.Errorf("binance open interest %s: %w", symbol.ToString(), err)
	}
	value, err := decimal.NewFromString(res.OpenInterest)
	if err != nil {
		return exchange.OpenInterest{}, fmt.Errorf("parse open interest %q: %w", res.OpenInterest, err)
	}
	ts := time.UnixMilli(res.Time)
	if res.Time == 0 {
		ts = time.Now()
	}
	return exchange.OpenInterest{
		Symbol: symbol,
		Value:  value,
		Time:   ts,
	}, nil
}

func (svc *FuturesService) FundingRate(ctx context.Context, symbol exchange.Symbol) (decimal.Decimal, error) {
	res, err := svc.cli.NewPremiumIndexService().Symbol(symbol.ToString()).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("binance premium index %s: %w", symbol.ToString(), err)
	}
	if len(res) == 0 {
		return decimal.Zero, exchange.ErrNoData
	}
	return decimal.NewFromString(res[0].LastFundingRate)
}

func (svc *FuturesService) LongShortRatio(ctx context.Context, symbol exchange.Symbol) (decimal.Decimal, error) {
	res, err := svc.cli.NewLongShortRatioService().
		Symbol(symbol.ToString()).
		Period("5m").
		Limit(1).
		Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("binance long/short ratio %s: %w", symbol.ToString(), err)
	}
	if len(res) == 0 {
		return decimal.Zero, exchange.ErrNoData
	}
	return decimal.NewFromString(res[0].LongShortRatio)
}

func (svc *FuturesService) RecentKlines(ctx context.Context, symbol exchange.Symbol, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	res, err := svc.cli.NewKlinesService().
		Symbol(symbol.ToString()).
		Interval(interval.ToString()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance futures klines %s: %w", symbol.ToString(), err)
	}
	return convertFuturesKlines(res)
}

func convertFuturesKlines(klines []*futures.Kline) ([]exchange.Kline, error) {
	kls := make([]exchange.Kline, 0, len(klines))
	for _, k := range klines {
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
