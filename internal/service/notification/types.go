package notification

import (
	"context"
)

// Channel 单个推送通道, 失败与否由调度方决定如何处理
type Channel interface {
	Name() string
	Send(ctx context.Context, text string) error
}
