package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// snapshot 跨重启保留的滚动窗口和静默状态
type snapshot struct {
	SavedAt  time.Time                `json:"saved_at"`
	LastFire map[string]time.Time     `json:"last_fire"`
	Windows  map[string]symbolWindows `json:"windows,omitempty"`
}

type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Load 恢复引擎状态, 文件不存在不算错误
func (s *SnapshotStore) Load(e *Engine) error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snap snapshot
	if err = json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot %s: %w", s.path, err)
	}
	e.gate.Restore(snap.LastFire, time.Now())
	e.states.restore(snap.Windows)
	return nil
}

// Save 先写临时文件再改名, 避免写一半被打断留下坏文件
func (s *SnapshotStore) Save(e *Engine) error {
	now := time.Now()
	raw, err := json.Marshal(snapshot{
		SavedAt:  now,
		LastFire: e.gate.Snapshot(now),
		Windows:  e.states.export(),
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir snapshot dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename snapshot %s: %w", s.path, err)
	}
	return nil
}
