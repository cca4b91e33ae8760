package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"market_admin_v1/internal/logging"
	"market_admin_v1/internal/model"
	"market_admin_v1/internal/service"
)

// ==================== 响应辅助 ====================

func success(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"code":    0,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

func parseID(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "无效的ID")
		return 0, false
	}
	return id, true
}

// respondError 流水线错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var rf *service.RequestFailure

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"code":    http.StatusUnprocessableEntity,
			"message": err.Error(),
			"data": gin.H{
				"step":   verr.Step,
				"errors": verr.Fields,
			},
		})
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrAssetNotFound),
		errors.Is(err, model.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSaving),
		errors.Is(err, service.ErrWizardClosed):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStepLocked),
		errors.Is(err, service.ErrNotEditMode),
		errors.Is(err, service.ErrVendorRequired),
		errors.Is(err, model.ErrUnknownField):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &rf):
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    http.StatusBadGateway,
			"message": err.Error(),
			"data":    gin.H{"phase": rf.Phase},
		})
	default:
		logging.FromContext(c.Request.Context()).Error("request_failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}
