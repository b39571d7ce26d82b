package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Symbol 交易对
type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) IsZero() bool {
	return s.Base == "" || s.Quote == ""
}

func (s Symbol) ToString() string {
	return fmt.Sprintf("%s%s", s.Base, s.Quote)
}

func (s Symbol) ToSlashString() string {
	return fmt.Sprintf("%s/%s", s.Base, s.Quote)
}

// ToDashString okx/kucoin 使用 BTC-USDT 格式
func (s Symbol) ToDashString() string {
	return fmt.Sprintf("%s-%s", s.Base, s.Quote)
}

func SplitSymbol(s string) (string, string) {
	s = strings.ToUpper(s)
	quotes := []string{"USDT", "USDC", "BUSD", "BTC", "ETH"}
	for _, q := range quotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	return s, ""
}

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

var (
	// ErrSymbolNotListed venue does not list the symbol at all.
	ErrSymbolNotListed = errors.New("symbol not listed on venue")
	// ErrBatchUnsupported venue has no batch ticker endpoint.
	ErrBatchUnsupported = errors.New("batch tickers unsupported")
	// ErrNoData the venue answered but returned nothing usable.
	ErrNoData = errors.New("no data returned")
)

// Ticker24h 24小时行情
type Ticker24h struct {
	Symbol      Symbol
	LastPrice   decimal.Decimal
	QuoteVolume decimal.Decimal // 24h 成交额(计价货币)
	PctChange   decimal.Decimal
}

type Kline struct {
	OpenTime         time.Time
	CloseTime        time.Time
	Open             decimal.Decimal
	Close            decimal.Decimal
	High             decimal.Decimal
	Low              decimal.Decimal
	Volume           decimal.Decimal // 成交量
	QuoteAssetVolume decimal.Decimal // 成交额
}

// NotionalVolume 该K线的成交额, 交易所未返回成交额时用 close*volume 估算
func (k Kline) NotionalVolume() decimal.Decimal {
	if !k.QuoteAssetVolume.IsZero() {
		return k.QuoteAssetVolume
	}
	return k.Close.Mul(k.Volume)
}

type OpenInterest struct {
	Symbol Symbol
	Value  decimal.Decimal
	Time   time.Time
}

// SpotMarketService 现货行情数据源, 每个候选交易所一个实现
type SpotMarketService interface {
	Name() string
	// AllTickers24h batch endpoint; venues without one return ErrBatchUnsupported.
	AllTickers24h(ctx context.Context, quote string) (map[Symbol]Ticker24h, error)
	Ticker24h(ctx context.Context, symbol Symbol) (Ticker24h, error)
	RecentKlines(ctx context.Context, symbol Symbol, interval Interval, limit int) ([]Kline, error)
}

// FuturesMarketService 合约行情数据源(参考合约所)
type FuturesMarketService interface {
	Name() string
	ListSymbols(ctx context.Context, quote string) ([]Symbol, error)
	OpenInterest(ctx context.Context, symbol Symbol) (OpenInterest, error)
	FundingRate(ctx context.Context, symbol Symbol) (decimal.Decimal, error)
	LongShortRatio(ctx context.Context, symbol Symbol) (decimal.Decimal, error)
	RecentKlines(ctx context.Context, symbol Symbol, interval Interval, limit int) ([]Kline, error)
}
