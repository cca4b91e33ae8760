package task

import (
	"log/slog"
)

// ==================== 向导会话清理 ====================

// SessionSweeper 过期会话清理
type SessionSweeper interface {
	Sweep() int
}

// SessionSweepTask 定时清理过期的发布向导会话
type SessionSweepTask struct {
	sweeper SessionSweeper
}

func NewSessionSweepTask(sweeper SessionSweeper) *SessionSweepTask {
	return &SessionSweepTask{sweeper: sweeper}
}

// RunOnce 执行一次清理，返回清理数量
func (t *SessionSweepTask) RunOnce() int {
	n := t.sweeper.Sweep()
	if n > 0 {
		slog.Info("wizard_sessions_swept", "count", n)
	}
	return n
}
