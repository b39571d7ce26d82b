package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.okx.com"

var _ exchange.SpotMarketService = (*SpotService)(nil)

// SpotService OKX 现货行情, 公共 REST 接口无需鉴权
type SpotService struct {
	cli     *http.Client
	baseURL string
	limiter *rate.Limiter
}

type Option func(svc *SpotService)

func WithBaseURL(base string) Option {
	return func(svc *SpotService) {
		svc.baseURL = strings.TrimRight(base, "/")
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(svc *SpotService) {
		svc.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewSpotService(cli *http.Client, opts ...Option) *SpotService {
	svc := &SpotService{
		cli:     cli,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *SpotService) Name() string {
	return "okx"
}

type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type tickerPayload struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	VolCcy24h string `json:"volCcy24h"` // 现货为计价货币成交额
	Open24h   string `json:"open24h"`
}

func (svc *SpotService) AllTickers24h(ctx context.Context, quote string) (map[exchange.Symbol]exchange.Ticker24h, error) {
	var tickers []tickerPayload
	err := svc.get(ctx, "/api/v5/market/tickers", url.Values{"instType": {"SPOT"}}, &tickers)
	if err != nil {
		return nil, fmt.Errorf("okx market tickers: %w", err)
	}

	suffix := "-" + quote
	res := make(map[exchange.Symbol]exchange.Ticker24h, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.InstID, suffix) {
			continue
		}
		ticker, err := convertTicker(t, quote)
		if err != nil {
			slog.Debug("skip malformed okx ticker", "instId", t.InstID, "error", err)
			continue
		}
		res[ticker.Symbol] = ticker
	}
	return res, nil
}

func (svc *SpotService) Ticker24h(ctx context.Context, symbol exchange.Symbol) (exchange.Ticker24h, error) {
	var tickers []tickerPayload
	err := svc.get(ctx, "/api/v5/market/ticker", url.Values{"instId": {symbol.ToDashString()}}, &tickers)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("okx ticker %s: %w", symbol.ToDashString(), err)
	}
	if len(tickers) == 0 {
		return exchange.Ticker24h{}, exchange.ErrSymbolNotListed
	}
	return convertTicker(tickers[0], symbol.Quote)
}

func (svc *SpotService) RecentKlines(ctx context.Context, symbol exchange.Symbol, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	var rows [][]string
	params := url.Values{
		"instId": {symbol.ToDashString()},
		"bar":    {okxBar(interval)},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := svc.get(ctx, "/api/v5/market/candles", params, &rows); err != nil {
		return nil, fmt.Errorf("okx candles %s: %w", symbol.ToDashString(), err)
	}

	// okx 返回倒序(最新在前), 统一为时间升序
	kls := make([]exchange.Kline, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		k, err := convertCandleRow(rows[i], interval)
		if err != nil {
			return nil, err
		}
		kls = append(kls, k)
	}
	return kls, nil
}

// row: [ts, open, high, low, close, vol(base), volCcy(quote), ...]
func convertCandleRow(row []string, interval exchange.Interval) (exchange.Kline, error) {
	if len(row) < 7 {
		return exchange.Kline{}, fmt.Errorf("%w: short okx candle row", exchange.ErrNoData)
	}
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle ts %q: %w", row[0], err)
	}
	open, err := decimal.NewFromString(row[1])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle open %q: %w", row[1], err)
	}
	high, err := decimal.NewFromString(row[2])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle high %q: %w", row[2], err)
	}
	low, err := decimal.NewFromString(row[3])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle low %q: %w", row[3], err)
	}
	cls, err := decimal.NewFromString(row[4])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle close %q: %w", row[4], err)
	}
	vol, err := decimal.NewFromString(row[5])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle volume %q: %w", row[5], err)
	}
	quoteVol, err := decimal.NewFromString(row[6])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle quote volume %q: %w", row[6], err)
	}

	openTime := time.UnixMilli(ms)
	return exchange.Kline{
		OpenTime:         openTime,
		CloseTime:        openTime.Add(barDuration(interval)),
		Open:             open,
		Close:            cls,
		High:             high,
		Low:              low,
		Volume:           vol,
		QuoteAssetVolume: quoteVol,
	}, nil
}

func convertTicker(t tickerPayload, quote string) (exchange.Ticker24h, error) {
	last, err := decimal.NewFromString(t.Last)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse last price %q: %w", t.Last, err)
	}
	quoteVol, err := decimal.NewFromString(t.VolCcy24h)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse quote volume %q: %w", t.VolCcy24h, err)
	}
	ticker := exchange.Ticker24h{
		Symbol: exchange.Symbol{
			Base:  strings.TrimSuffix(t.InstID, "-"+quote),
			Quote: quote,
		},
		LastPrice:   last,
		QuoteVolume: quoteVol,
	}
	if open, err := decimal.NewFromString(t.Open24h); err == nil && open.IsPositive() {
		ticker.PctChange = last.Sub(open).Div(open).Mul(decimal.NewFromInt(100))
	}
	return ticker, nil
}

func (svc *SpotService) get(ctx context.Context, path string, params url.Values, v any) error {
	if err := svc.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := svc.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("okx http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var apiResp apiResponse
	if err = json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("decode okx response: %w", err)
	}
	if apiResp.Code != "0" {
		return fmt.Errorf("okx api error %s: %s", apiResp.Code, apiResp.Msg)
	}
	return json.Unmarshal(apiResp.Data, v)
}

func okxBar(interval exchange.Interval) string {
	switch interval {
	case exchange.Interval1m:
		return "1m"
	case exchange.Interval5m:
		return "5m"
	case exchange.Interval15m:
		return "15m"
	case exchange.Interval1h:
		return "1H"
	case exchange.Interval4h:
		return "4H"
	case exchange.Interval1d:
		return "1D"
	default:
		return "1m"
	}
}

func barDuration(interval exchange.Interval) time.Duration {
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
