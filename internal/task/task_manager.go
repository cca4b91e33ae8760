package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理后台定时任务
// 管理范围：向导会话清理、媒体缺失巡检
type TaskManager struct {
	cron *cron.Cron

	sweepTask *SessionSweepTask
	auditTask *MediaAuditTask
	cfg       *TaskManagerConfig
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Sessions SessionSweeper
	Audit    *MediaAuditTask // 远端后台模式下为 nil，不做巡检
}

// TaskManagerConfig 任务管理器配置（6 段 cron，含秒）
type TaskManagerConfig struct {
	SweepSpec string
	AuditSpec string
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		SweepSpec: "0 */5 * * * *",
		AuditSpec: "0 0 * * * *",
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{
		cron: cron.New(cron.WithSeconds()),
		cfg:  cfg,
	}
	if deps.Sessions != nil {
		tm.sweepTask = NewSessionSweepTask(deps.Sessions)
	}
	if deps.Audit != nil {
		tm.auditTask = deps.Audit
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 注册并启动所有任务
func (tm *TaskManager) Start() error {
	slog.Info("task_manager_starting")

	if tm.sweepTask != nil {
		if _, err := tm.cron.AddFunc(tm.cfg.SweepSpec, func() {
			tm.sweepTask.RunOnce()
		}); err != nil {
			return err
		}
	}

	if tm.auditTask != nil {
		if _, err := tm.cron.AddFunc(tm.cfg.AuditSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			_, _ = tm.auditTask.RunOnce(ctx)
		}); err != nil {
			return err
		}
	}

	tm.cron.Start()
	slog.Info("task_manager_started", "jobs", len(tm.cron.Entries()))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (tm *TaskManager) Stop() {
	ctx := tm.cron.Stop()
	<-ctx.Done()
	slog.Info("task_manager_stopped")
}

// ==================== 手动触发接口 ====================

// TriggerSweep 立即清理过期会话
func (tm *TaskManager) TriggerSweep() (int, error) {
	if tm.sweepTask == nil {
		return 0, ErrTaskDisabled
	}
	return tm.sweepTask.RunOnce(), nil
}

// TriggerMediaAudit 立即执行媒体巡检
func (tm *TaskManager) TriggerMediaAudit(ctx context.Context) (int, error) {
	if tm.auditTask == nil {
		return 0, ErrTaskDisabled
	}
	return tm.auditTask.RunOnce(ctx)
}

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"session_sweep": tm.sweepTask != nil,
		"media_audit":   tm.auditTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
