package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"market_admin_v1/internal/api/dto"
	"market_admin_v1/internal/model"
	"market_admin_v1/internal/service"
)

// VendorController 商家审核控制器
type VendorController struct {
	catalog *service.CatalogService
	status  *service.Coordinator[model.VendorStatus]
}

func NewVendorController(catalog *service.CatalogService, status *service.Coordinator[model.VendorStatus]) *VendorController {
	return &VendorController{catalog: catalog, status: status}
}

// List 商家列表
// @Summary 获取商家列表
// @Tags Vendor
// @Param status query string false "pending, approved, rejected"
// @Success 200 {array} model.Vendor
// @Router /api/vendors [get]
func (ctrl *VendorController) List(c *gin.Context) {
	status := model.VendorStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		fail(c, http.StatusBadRequest, "无效的商家状态")
		return
	}
	vendors, err := ctrl.catalog.ListVendors(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", vendors)
}

// SetStatus 审核单个商家
// @Summary 商家审核
// @Tags Vendor
// @Param id path int true "商家ID"
// @Param request body dto.VendorStatusRequest true "目标状态与原因"
// @Router /api/vendors/{id}/status [post]
func (ctrl *VendorController) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.VendorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	target := model.VendorStatus(req.Status)
	err := ctrl.status.Transition(c.Request.Context(), model.StatusTransitionRequest[model.VendorStatus]{
		EntityID:      id,
		Target:        target,
		Justification: req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", gin.H{"id": id, "status": target})
}

// BulkSetStatus 批量审核
// @Summary 批量商家审核
// @Tags Vendor
// @Param request body dto.BulkVendorStatusRequest true "批量参数"
// @Success 200 {object} dto.BulkStatusResponse[model.VendorStatus]
// @Failure 429 {object} map[string]interface{} "操作过于频繁"
// @Router /api/vendors/bulk/status [post]
func (ctrl *VendorController) BulkSetStatus(c *gin.Context) {
	var req dto.BulkVendorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	result, err := ctrl.status.BulkTransition(c.Request.Context(), req.IDs, model.VendorStatus(req.Status), req.Reason)
	respondBulk(c, result, ctrl.status.View(), err)
}
