package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_admin_v1/internal/task"
)

// TaskController 后台任务控制器
type TaskController struct {
	taskManager *task.TaskManager
}

// NewTaskController 创建任务控制器
func NewTaskController(taskManager *task.TaskManager) *TaskController {
	return &TaskController{taskManager: taskManager}
}

// ==================== Handler 实现 ====================

// Status 任务启用状态
// @Summary 查看后台任务
// @Tags Task
// @Success 200 {object} map[string]bool
// @Router /api/tasks [get]
func (ctrl *TaskController) Status(c *gin.Context) {
	success(c, http.StatusOK, "success", ctrl.taskManager.Status())
}

// TriggerSweep 清理过期向导会话
// @Summary 手动清理过期向导会话
// @Tags Task
// @Success 200 {object} map[string]interface{}
// @Router /api/tasks/session-sweep [post]
func (ctrl *TaskController) TriggerSweep(c *gin.Context) {
	n, err := ctrl.taskManager.TriggerSweep()
	if err != nil {
		ctrl.respondTaskError(c, err)
		return
	}
	success(c, http.StatusOK, "会话清理完成", gin.H{"swept": n})
}

// TriggerMediaAudit 媒体缺失巡检
// @Summary 手动执行媒体缺失巡检
// @Tags Task
// @Success 200 {object} map[string]interface{}
// @Router /api/tasks/media-audit [post]
func (ctrl *TaskController) TriggerMediaAudit(c *gin.Context) {
	n, err := ctrl.taskManager.TriggerMediaAudit(c.Request.Context())
	if err != nil {
		ctrl.respondTaskError(c, err)
		return
	}
	success(c, http.StatusOK, "巡检完成", gin.H{"incomplete": n})
}

func (ctrl *TaskController) respondTaskError(c *gin.Context, err error) {
	if errors.Is(err, task.ErrTaskDisabled) {
		fail(c, http.StatusConflict, "任务未启用")
		return
	}
	respondError(c, err)
}
