package ioc

import (
	bybit "github.com/bybit-exchange/bybit.go.api"
)

// InitBybitCli 只走公共行情接口, 无需密钥
func InitBybitCli() *bybit.Client {
	return bybit.NewBybitHttpClient("", "")
}
