package notification

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel 通过 bot 向固定会话推送
type TelegramChannel struct {
	bot    telegramSender
	chatId int64
}

func NewTelegramChannel(bot *tgbotapi.BotAPI, chatId int64) *TelegramChannel {
	return &TelegramChannel{
		bot:    bot,
		chatId: chatId,
	}
}

func (c *TelegramChannel) Name() string {
	return "telegram"
}

// Send 把 bot.Send 放到单独的 goroutine 里与 ctx 赛跑
// tgbotapi 不接收 context, 卡住的连接不能拖住调度循环
func (c *TelegramChannel) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.chatId, text)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.bot.Send(msg)
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
		return nil
	}
}
