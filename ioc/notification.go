package ioc

import (
	"net/http"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/notification"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"
)

// InitChannels 构建所有配置的推送通道, 一个都没有时直接 panic
// 光检测不推送没有意义
func InitChannels() []notification.Channel {
	type Config struct {
		WeCom struct {
			Webhook string `mapstructure:"webhook"`
		} `mapstructure:"wecom"`
		Telegram struct {
			BotToken string `mapstructure:"bot_token"`
			ChatId   int64  `mapstructure:"chat_id"`
		} `mapstructure:"telegram"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("notify", &cfg); err != nil {
		panic(err)
	}

	var channels []notification.Channel
	if cfg.WeCom.Webhook != "" {
		channels = append(channels, notification.NewWeComChannel(cfg.WeCom.Webhook))
	}
	if cfg.Telegram.BotToken != "" {
		// 默认客户端没有超时, 换成带超时的, 避免连接卡死
		bot, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.BotToken, tgbotapi.APIEndpoint,
			&http.Client{Timeout: 30 * time.Second})
		if err != nil {
			panic(err)
		}
		channels = append(channels, notification.NewTelegramChannel(bot, cfg.Telegram.ChatId))
	}

	if len(channels) == 0 {
		panic("no notification channel configured")
	}
	return channels
}
