package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	bybit "github.com/bybit-exchange/bybit.go.api"
	"github.com/shopspring/decimal"
)

var _ exchange.SpotMarketService = (*SpotService)(nil)

// SpotService Bybit 现货行情 (v5 UTA 公共接口)
type SpotService struct {
	cli *bybit.Client
}

func NewSpotService(cli *bybit.Client) *SpotService {
	return &SpotService{cli: cli}
}

func (svc *SpotService) Name() string {
	return "bybit"
}

// bybit 返回的 Result 是 interface{}, 统一走一次 json 编解码转成强类型
type tickerList struct {
	Category string `json:"category"`
	List     []struct {
		Symbol       string `json:"symbol"`
		LastPrice    string `json:"lastPrice"`
		Turnover24h  string `json:"turnover24h"`
		Price24hPcnt string `json:"price24hPcnt"`
	} `json:"list"`
}

type klineList struct {
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	List     [][]string `json:"list"`
}

func (svc *SpotService) AllTickers24h(ctx context.Context, quote string) (map[exchange.Symbol]exchange.Ticker24h, error) {
	params := map[string]interface{}{
		"category": "spot",
	}
	resp, err := svc.cli.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("bybit market tickers: %w", err)
	}

	var tickers tickerList
	if err = decodeResult(resp.Result, &tickers); err != nil {
		return nil, err
	}

	res := make(map[exchange.Symbol]exchange.Ticker24h, len(tickers.List))
	for _, t := range tickers.List {
		if !strings.HasSuffix(t.Symbol, quote) {
			continue
		}
		last, err := decimal.NewFromString(t.LastPrice)
		if err != nil {
			slog.Debug("skip malformed bybit ticker", "symbol", t.Symbol, "error", err)
			continue
		}
		turnover, err := decimal.NewFromString(t.Turnover24h)
		if err != nil {
			slog.Debug("skip malformed bybit ticker", "symbol", t.Symbol, "error", err)
			continue
		}
		symbol := exchange.Symbol{
			Base:  strings.TrimSuffix(t.Symbol, quote),
			Quote: quote,
		}
		ticker := exchange.Ticker24h{
			Symbol:      symbol,
			LastPrice:   last,
			QuoteVolume: turnover,
		}
		if pct, err := decimal.NewFromString(t.Price24hPcnt); err == nil {
			// bybit 返回小数(0.012), 统一为百分比
			ticker.PctChange = pct.Mul(decimal.NewFromInt(100))
		}
		res[symbol] = ticker
	}
	return res, nil
}

func (svc *SpotService) Ticker24h(ctx context.Context, symbol exchange.Symbol) (exchange.Ticker24h, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   symbol.ToString(),
	}
	resp, err := svc.cli.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("bybit ticker %s: %w", symbol.ToString(), err)
	}

	var tickers tickerList
	if err = decodeResult(resp.Result, &tickers); err != nil {
		return exchange.Ticker24h{}, err
	}
	if len(tickers.List) == 0 {
		return exchange.Ticker24h{}, exchange.ErrSymbolNotListed
	}

	t := tickers.List[0]
	last, err := decimal.NewFromString(t.LastPrice)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse last price %q: %w", t.LastPrice, err)
	}
	turnover, err := decimal.NewFromString(t.Turnover24h)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse turnover %q: %w", t.Turnover24h, err)
	}
	ticker := exchange.Ticker24h{
		Symbol:      symbol,
		LastPrice:   last,
		QuoteVolume: turnover,
	}
	if pct, err := decimal.NewFromString(t.Price24hPcnt); err == nil {
		ticker.PctChange = pct.Mul(decimal.NewFromInt(100))
	}
	return ticker, nil
}

func (svc *SpotService) RecentKlines(ctx context.Context, symbol exchange.Symbol, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   symbol.ToString(),
		"interval": bybitInterval(interval),
		"limit":    limit,
	}
	resp, err := svc.cli.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("bybit klines %s: %w", symbol.ToString(), err)
	}

	var klines klineList
	if err = decodeResult(resp.Result, &klines); err != nil {
		return nil, err
	}

	// bybit 返回倒序(最新在前), 统一为时间升序
	kls := make([]exchange.Kline, 0, len(klines.List))
	for i := len(klines.List) - 1; i >= 0; i-- {
		row := klines.List[i]
		k, err := convertKlineRow(row, interval)
		if err != nil {
			return nil, err
		}
		kls = append(kls, k)
	}
	return kls, nil
}

// row: [startTime, open, high, low, close, volume, turnover]
func convertKlineRow(row []string, interval exchange.Interval) (exchange.Kline, error) {
	if len(row) < 7 {
		return exchange.Kline{}, fmt.Errorf("%w: short bybit kline row", exchange.ErrNoData)
	}
	startMs, err := decimal.NewFromString(row[0])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse kline start %q: %w", row[0], err)
	}
	open, err := decimal.NewFromString(row[1])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse kline open %q: %w", row[1], err)
	}
	high, err := decimal.NewFromString(row[2])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse kline high %q: %w", row[2], err)
	}
	low, err := decimal.NewFromString(row[3])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse kline low %q: %w", row[3], err)
	}
	cls, err := decimal.NewFromString(row[4])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse kline close %q: %w", row[4], err)
	}
	vol, err := decimal.NewFromString(row[5])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse kline volume %q: %w", row[5], err)
	}
	turnover, err := decimal.NewFromString(row[6])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse kline turnover %q: %w", row[6], err)
	}

	openTime := time.UnixMilli(startMs.IntPart())
	return exchange.Kline{
		OpenTime:         openTime,
		CloseTime:        openTime.Add(intervalDuration(interval)),
		Open:             open,
		Close:            cls,
		High:             high,
		Low:              low,
		Volume:           vol,
		QuoteAssetVolume: turnover,
	}, nil
}

func decodeResult(result any, v any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal bybit result: %w", err)
	}
	if err = json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode bybit result: %w", err)
	}
	return nil
}

func bybitInterval(interval exchange.Interval) string {
	switch interval {
	case exchange.Interval1m:
		return "1"
	case exchange.Interval5m:
		return "5"
	case exchange.Interval15m:
		return "15"
	case exchange.Interval1h:
		return "60"
	case exchange.Interval4h:
		return "240"
	case exchange.Interval1d:
		return "D"
	default:
		return "1"
	}
}

func intervalDuration(interval exchange.Interval) time.Duration {
	switch interval {
	case exchange.Interval1m:
		return time.Minute
	case exchange.Interval5m:
		return 5 * time.Minute
	case exchange.Interval15m:
		return 15 * time.Minute
	case exchange.Interval1h:
		return time.Hour
	case exchange.Interval4h:
		return 4 * time.Hour
	case exchange.Interval1d:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}
