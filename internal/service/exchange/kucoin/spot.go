package kucoin

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
)

const defaultBaseURL = "https://api.kucoin.com"

var _ exchange.SpotMarketService = (*SpotService)(nil)

// SpotService KuCoin 现货行情, 公共 REST 接口无需鉴权
type SpotService struct {
	cli     *http.Client
	baseURL string
}

func NewSpotService(cli *http.Client, baseURL string) *SpotService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &SpotService{
		cli:     cli,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (svc *SpotService) Name() string {
	return "kucoin"
}

type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type tickerPayload struct {
	Symbol     string `json:"symbol"`
	Last       string `json:"last"`
	VolValue   string `json:"volValue"` // 24h 成交额(计价货币)
	ChangeRate string `json:"changeRate"`
}

func (svc *SpotService) AllTickers24h(ctx context.Context, quote string) (map[exchange.Symbol]exchange.Ticker24h, error) {
	var payload struct {
		Time   int64           `json:"time"`
		Ticker []tickerPayload `json:"ticker"`
	}
	if err := svc.get(ctx, "/api/v1/market/allTickers", nil, &payload); err != nil {
		return nil, fmt.Errorf("kucoin all tickers: %w", err)
	}

	suffix := "-" + quote
	res := make(map[exchange.Symbol]exchange.Ticker24h, len(payload.Ticker))
	for _, t := range payload.Ticker {
		if !strings.HasSuffix(t.Symbol, suffix) {
			continue
		}
		ticker, err := convertTicker(t, quote)
		if err != nil {
			slog.Debug("skip malformed kucoin ticker", "symbol", t.Symbol, "error", err)
			continue
		}
		res[ticker.Symbol] = ticker
	}
	return res, nil
}

func (svc *SpotService) Ticker24h(ctx context.Context, symbol exchange.Symbol) (exchange.Ticker24h, error) {
	var t tickerPayload
	params := url.Values{"symbol": {symbol.ToDashString()}}
	if err := svc.get(ctx, "/api/v1/market/stats", params, &t); err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("kucoin market stats %s: %w", symbol.ToDashString(), err)
	}
	if t.Last == "" {
		// kucoin 对不存在的交易对返回空字段而非错误码
		return exchange.Ticker24h{}, exchange.ErrSymbolNotListed
	}
	t.Symbol = symbol.ToDashString()
	return convertTicker(t, symbol.Quote)
}

func (svc *SpotService) RecentKlines(ctx context.Context, symbol exchange.Symbol, interval exchange.Interval, limit int) ([]exchange.Kline, error) {
	var rows [][]string
	params := url.Values{
		"symbol": {symbol.ToDashString()},
		"type":   {kucoinType(interval)},
	}
	if err := svc.get(ctx, "/api/v1/market/candles", params, &rows); err != nil {
		return nil, fmt.Errorf("kucoin candles %s: %w", symbol.ToDashString(), err)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	// kucoin 返回倒序(最新在前), 统一为时间升序
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

// row: [ts(秒), open, close, high, low, volume(base), turnover(quote)]
// 注意 kucoin 的列序是 open, close, high, low
func convertCandleRow(row []string, interval exchange.Interval) (exchange.Kline, error) {
	if len(row) < 7 {
		return exchange.Kline{}, fmt.Errorf("%w: short kucoin candle row", exchange.ErrNoData)
	}
	sec, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle ts %q: %w", row[0], err)
	}
	open, err := decimal.NewFromString(row[1])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle open %q: %w", row[1], err)
	}
	cls, err := decimal.NewFromString(row[2])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle close %q: %w", row[2], err)
	}
	high, err := decimal.NewFromString(row[3])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle high %q: %w", row[3], err)
	}
	low, err := decimal.NewFromString(row[4])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle low %q: %w", row[4], err)
	}
	vol, err := decimal.NewFromString(row[5])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle volume %q: %w", row[5], err)
	}
	turnover, err := decimal.NewFromString(row[6])
	if err != nil {
		return exchange.Kline{}, fmt.Errorf("parse candle turnover %q: %w", row[6], err)
	}

	openTime := time.Unix(sec, 0)
	return exchange.Kline{
		OpenTime:         openTime,
		CloseTime:        openTime.Add(typeDuration(interval)),
		Open:             open,
		Close:            cls,
		High:             high,
		Low:              low,
		Volume:           vol,
		QuoteAssetVolume: turnover,
	}, nil
}

func convertTicker(t tickerPayload, quote string) (exchange.Ticker24h, error) {
	last, err := decimal.NewFromString(t.Last)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse last price %q: %w", t.Last, err)
	}
	volValue, err := decimal.NewFromString(t.VolValue)
	if err != nil {
		return exchange.Ticker24h{}, fmt.Errorf("parse vol value %q: %w", t.VolValue, err)
	}
	ticker := exchange.Ticker24h{
		Symbol: exchange.Symbol{
			Base:  strings.TrimSuffix(t.Symbol, "-"+quote),
			Quote: quote,
		},
		LastPrice:   last,
		QuoteVolume: volValue,
	}
	if rate, err := decimal.NewFromString(t.ChangeRate); err == nil {
		ticker.PctChange = rate.Mul(decimal.NewFromInt(100))
	}
	return ticker, nil
}

func (svc *SpotService) get(ctx context.Context, path string, params url.Values, v any) error {
	u := svc.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := svc.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kucoin http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var apiResp apiResponse
	if err = json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("decode kucoin response: %w", err)
	}
	if apiResp.Code != "200000" {
		return fmt.Errorf("kucoin api error %s: %s", apiResp.Code, apiResp.Msg)
	}
	return json.Unmarshal(apiResp.Data, v)
}

func kucoinType(interval exchange.Interval) string {
	switch interval {
	case exchange.Interval1m:
		return "1min"
	case exchange.Interval5m:
		return "5min"
	case exchange.Interval15m:
		return "15min"
	case exchange.Interval1h:
		return "1hour"
	case exchange.Interval4h:
		return "4hour"
	case exchange.Interval1d:
		return "1day"
	default:
		return "1min"
	}
}

func typeDuration(interval exchange.Interval) time.Duration {
	switch interval {
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
