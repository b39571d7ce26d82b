package ioc

import (
	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/spf13/viper"
)

type binanceConfig struct {
	ApiKey    string `mapstructure:"api_key"`
	ApiSecret string `mapstructure:"api_secret"`
}

func loadBinanceConfig() binanceConfig {
	var cfg binanceConfig
	if err := viper.UnmarshalKey("cex.binance", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

// InitBinanceSpotCli 行情接口不需要密钥, 留空即可
func InitBinanceSpotCli() *binance.Client {
	cfg := loadBinanceConfig()
	return binance.NewClient(cfg.ApiKey, cfg.ApiSecret)
}

func InitBinanceFuturesCli() *futures.Client {
	cfg := loadBinanceConfig()
	return binance.NewFuturesClient(cfg.ApiKey, cfg.ApiSecret)
}
