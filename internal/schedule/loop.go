package schedule

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultInterval = time.Minute
	DefaultMinSleep = 10 * time.Second
	DefaultBackoff  = time.Minute
)

// Loop 以固定周期驱动一个 Task, 周期 = 间隔 - 本轮耗时, 防止漂移
// 整轮失败时退避更长时间后重试, 不退出进程
type Loop struct {
	task     Task
	interval time.Duration
	minSleep time.Duration
	backoff  time.Duration
}

type LoopOption func(l *Loop)

func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

func WithMinSleep(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.minSleep = d
		}
	}
}

func WithBackoff(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.backoff = d
		}
	}
}

func NewLoop(task Task, opts ...LoopOption) *Loop {
	l := &Loop{
		task:     task,
		interval: DefaultInterval,
		minSleep: DefaultMinSleep,
		backoff:  DefaultBackoff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("loop started", "task", l.task.Name(),
		"interval", l.interval, "minSleep", l.minSleep)

	for {
		start := time.Now()
		err := l.task.Run(ctx)
		elapsed := time.Since(start)

		if ctx.Err() != nil {
			slog.Info("loop stopped", "task", l.task.Name())
			return ctx.Err()
		}

		sleep := SleepDuration(l.interval, l.minSleep, elapsed)
		if err != nil {
			slog.Error("cycle failed, backing off", "task", l.task.Name(),
				"elapsed", elapsed, "backoff", l.backoff, "error", err)
			sleep = l.backoff
		} else {
			slog.Info("cycle finished", "task", l.task.Name(),
				"elapsed", elapsed, "sleep", sleep)
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("loop stopped", "task", l.task.Name())
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// SleepDuration 保证平均节奏贴近 interval, 同时为过长的周期保留底线休眠
func SleepDuration(interval, minSleep, elapsed time.Duration) time.Duration {
	sleep := interval - elapsed
	if sleep < minSleep {
		return minSleep
	}
	return sleep
}
