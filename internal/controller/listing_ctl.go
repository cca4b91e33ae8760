package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"market_admin_v1/internal/api/dto"
	"market_admin_v1/internal/middleware"
	"market_admin_v1/internal/model"
	"market_admin_v1/internal/repository"
	"market_admin_v1/internal/service"
)

// ListingController 商品控制器
type ListingController struct {
	catalog *service.CatalogService
	active  *service.Coordinator[bool]
	auction *service.Coordinator[model.AuctionStatus]
}

// NewListingController 创建商品控制器
func NewListingController(catalog *service.CatalogService, active *service.Coordinator[bool], auction *service.Coordinator[model.AuctionStatus]) *ListingController {
	return &ListingController{
		catalog: catalog,
		active:  active,
		auction: auction,
	}
}

// ==================== 查询接口 ====================

// List 商品列表
// @Summary 获取商品列表
// @Tags Listing
// @Param vendor_id query int false "商家ID"
// @Param auction_status query string false "拍卖状态"
// @Param is_active query bool false "是否上架"
// @Param keyword query string false "名称搜索"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/listings [get]
func (ctrl *ListingController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	vendorID, _ := strconv.ParseInt(c.Query("vendor_id"), 10, 64)

	filter := repository.ListingFilter{
		VendorID:      vendorID,
		AuctionStatus: model.AuctionStatus(c.Query("auction_status")),
		Keyword:       c.Query("keyword"),
		Page:          page,
		PageSize:      pageSize,
	}
	if v := c.Query("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail(c, http.StatusBadRequest, "无效的 is_active")
			return
		}
		filter.IsActive = &b
	}

	listings, total, err := ctrl.catalog.ListListings(c.Request.Context(), middleware.GetSession(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, "success", gin.H{
		"list":      listings,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get 商品详情
// @Summary 获取单个商品详情
// @Tags Listing
// @Param id path int true "商品ID"
// @Success 200 {object} model.Listing
// @Router /api/listings/{id} [get]
func (ctrl *ListingController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	listing, err := ctrl.catalog.GetListing(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", listing)
}

// ==================== 上下架 ====================

// SetActive 上架/下架
// @Summary 商品上下架
// @Tags Listing
// @Param id path int true "商品ID"
// @Param request body dto.ListingActiveRequest true "目标状态"
// @Router /api/listings/{id}/active [post]
func (ctrl *ListingController) SetActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ListingActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	err := ctrl.active.Transition(c.Request.Context(), model.StatusTransitionRequest[bool]{
		EntityID: id,
		Target:   *req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", gin.H{"id": id, "is_active": *req.IsActive})
}

// BulkSetActive 批量上下架
// @Summary 批量上下架
// @Description 全部请求结束后统计成功/失败数并重新拉取列表
// @Tags Listing
// @Param request body dto.BulkListingActiveRequest true "批量参数"
// @Success 200 {object} dto.BulkStatusResponse[bool]
// @Failure 429 {object} map[string]interface{} "操作过于频繁"
// @Router /api/listings/bulk/active [post]
func (ctrl *ListingController) BulkSetActive(c *gin.Context) {
	var req dto.BulkListingActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	result, err := ctrl.active.BulkTransition(c.Request.Context(), req.IDs, *req.IsActive, "")
	respondBulk(c, result, ctrl.active.View(), err)
}

// ==================== 拍卖状态 ====================

// SetAuctionStatus 拍卖状态变更
// @Summary 拍卖状态变更
// @Tags Listing
// @Param id path int true "商品ID"
// @Param request body dto.AuctionStatusRequest true "目标状态"
// @Router /api/listings/{id}/auction-status [post]
func (ctrl *ListingController) SetAuctionStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AuctionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	target := model.AuctionStatus(req.Status)
	err := ctrl.auction.Transition(c.Request.Context(), model.StatusTransitionRequest[model.AuctionStatus]{
		EntityID: id,
		Target:   target,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", gin.H{"id": id, "auction_status": target})
}

// BulkSetAuctionStatus 批量拍卖状态变更
// @Summary 批量拍卖状态变更
// @Tags Listing
// @Param request body dto.BulkAuctionStatusRequest true "批量参数"
// @Success 200 {object} dto.BulkStatusResponse[model.AuctionStatus]
// @Failure 429 {object} map[string]interface{} "操作过于频繁"
// @Router /api/listings/bulk/auction-status [post]
func (ctrl *ListingController) BulkSetAuctionStatus(c *gin.Context) {
	var req dto.BulkAuctionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	result, err := ctrl.auction.BulkTransition(c.Request.Context(), req.IDs, model.AuctionStatus(req.Status), "")
	respondBulk(c, result, ctrl.auction.View(), err)
}

// respondBulk 批量结果；刷新失败时仍返回统计，列表为回滚后的本地视图
func respondBulk[S comparable](c *gin.Context, result model.BulkOperationResult, view map[int64]S, err error) {
	if err != nil && result.SucceededCount+result.FailedCount == 0 {
		respondError(c, err)
		return
	}
	message := "success"
	if err != nil {
		message = "批量操作已完成，列表刷新失败: " + err.Error()
	} else if result.FailedCount > 0 {
		message = "部分操作失败"
	}
	success(c, http.StatusOK, message, dto.BulkStatusResponse[S]{
		BulkOperationResult: result,
		Items:               view,
	})
}
