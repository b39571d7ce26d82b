package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/monitor"
)

const defaultSendTimeout = 10 * time.Second

// Dispatcher 把警报广播到所有通道
// 单个通道失败只记录日志, 不影响其他通道, 也不向上传播
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
}

type DispatcherOption func(*Dispatcher)

func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func NewDispatcher(channels []Channel, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		channels: channels,
		timeout:  defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Notify(ctx context.Context, event monitor.AlertEvent) error {
	text := FormatAlert(event)
	for _, ch := range d.channels {
		d.send(ctx, ch, text, event)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, text string, event monitor.AlertEvent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := ch.Send(ctx, text); err != nil {
		slog.Error("send alert failed",
			slog.String("channel", ch.Name()),
			slog.String("symbol", event.Symbol.ToString()),
			slog.String("kind", string(event.Kind)),
			slog.Any("err", err))
		return
	}
	slog.Info("alert sent",
		slog.String("channel", ch.Name()),
		slog.String("symbol", event.Symbol.ToString()),
		slog.String("kind", string(event.Kind)))
}
