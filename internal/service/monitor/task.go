package monitor

import (
	"context"
	"log/slog"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
	"github.com/samber/lo"
)

// MonitorTask 一轮完整的监控流程, 交给调度循环按固定节奏执行
type MonitorTask struct {
	resolver *UniverseResolver
	engine   *Engine

	snapshots *SnapshotStore // 可选
	reject    map[exchange.Symbol]struct{}
	limit     int
}

type TaskOption func(*MonitorTask)

// WithReject 剔除不需要监控的交易对, 如稳定币对
func WithReject(symbols []exchange.Symbol) TaskOption {
	return func(t *MonitorTask) {
		for _, s := range symbols {
			t.reject[s] = struct{}{}
		}
	}
}

// WithLimit 只监控列表前 n 个交易对, 用于控制请求量
func WithLimit(n int) TaskOption {
	return func(t *MonitorTask) {
		t.limit = n
	}
}

func WithSnapshotStore(store *SnapshotStore) TaskOption {
	return func(t *MonitorTask) {
		t.snapshots = store
	}
}

func NewMonitorTask(resolver *UniverseResolver, engine *Engine, opts ...TaskOption) *MonitorTask {
	t := &MonitorTask{
		resolver: resolver,
		engine:   engine,
		reject:   make(map[exchange.Symbol]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *MonitorTask) Name() string {
	return "market-monitor"
}

func (t *MonitorTask) Run(ctx context.Context) error {
	symbols, err := t.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	symbols = lo.Reject(symbols, func(s exchange.Symbol, _ int) bool {
		_, rejected := t.reject[s]
		return rejected
	})
	if t.limit > 0 && len(symbols) > t.limit {
		symbols = symbols[:t.limit]
	}

	if err = t.engine.Scan(ctx, symbols); err != nil {
		return err
	}

	if t.snapshots != nil {
		if err = t.snapshots.Save(t.engine); err != nil {
			slog.Error("save snapshot failed", slog.Any("err", err))
		}
	}
	return nil
}
