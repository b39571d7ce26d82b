package ioc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/KNICEX/market-sentry/internal/service/exchange/binance"
	"github.com/KNICEX/market-sentry/internal/service/exchange/bybit"
	"github.com/KNICEX/market-sentry/internal/service/exchange/kucoin"
	"github.com/KNICEX/market-sentry/internal/service/exchange/okx"
	"github.com/spf13/viper"
)

// InitSpotSources 按配置的优先级顺序构建现货数据源
func InitSpotSources() []exchange.SpotMarketService {
	type Config struct {
		Priority []string `mapstructure:"priority"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("monitor.sources", &cfg); err != nil {
		panic(err)
	}
	if len(cfg.Priority) == 0 {
		cfg.Priority = []string{"binance", "okx", "bybit", "kucoin"}
	}

	httpCli := &http.Client{Timeout: 10 * time.Second}

	res := make([]exchange.SpotMarketService, 0, len(cfg.Priority))
	for _, name := range cfg.Priority {
		switch name {
		case "binance":
			res = append(res, binance.NewSpotService(InitBinanceSpotCli()))
		case "okx":
			res = append(res, okx.NewSpotService(httpCli))
		case "bybit":
			res = append(res, bybit.NewSpotService(InitBybitCli()))
		case "kucoin":
			res = append(res, kucoin.NewSpotService(httpCli, ""))
		default:
			panic(fmt.Sprintf("unknown spot source: %s", name))
		}
	}
	return res
}
