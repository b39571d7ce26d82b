package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/exchange"
)

const defaultCooldown = 10 * time.Minute

// CooldownGate 对 (交易对, 告警类型) 做静默窗口去重
type CooldownGate struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastFire map[string]time.Time
}

func NewCooldownGate(cooldown time.Duration) *CooldownGate {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &CooldownGate{
		cooldown: cooldown,
		lastFire: make(map[string]time.Time),
	}
}

func gateKey(symbol exchange.Symbol, kind AlertKind) string {
	return fmt.Sprintf("%s:%s", symbol.ToString(), kind)
}

// ShouldFire 原子地判断并占用静默窗口
// 返回 true 表示本次允许触发, 同时记录触发时间
func (g *CooldownGate) ShouldFire(symbol exchange.Symbol, kind AlertKind, now time.Time) bool {
	key := gateKey(symbol, kind)

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.lastFire[key]; ok && now.Sub(last) < g.cooldown {
		return false
	}
	g.lastFire[key] = now
	g.purgeLocked(now)
	return true
}

func (g *CooldownGate) purgeLocked(now time.Time) {
	for key, last := range g.lastFire {
		if now.Sub(last) >= g.cooldown {
			delete(g.lastFire, key)
		}
	}
}

// Snapshot 导出尚在静默期内的记录
func (g *CooldownGate) Snapshot(now time.Time) map[string]time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	res := make(map[string]time.Time, len(g.lastFire))
	for key, last := range g.lastFire {
		if now.Sub(last) < g.cooldown {
			res[key] = last
		}
	}
	return res
}

// Restore 从快照恢复, 已过期的记录直接丢弃
func (g *CooldownGate) Restore(snapshot map[string]time.Time, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key, last := range snapshot {
		if now.Sub(last) < g.cooldown {
			g.lastFire[key] = last
		}
	}
}
