package controller

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"market_admin_v1/internal/api/dto"
	"market_admin_v1/internal/middleware"
	"market_admin_v1/internal/model"
	"market_admin_v1/internal/service"
)

// WizardController 发布向导控制器
type WizardController struct {
	wizardService *service.WizardService
	spoolDir      string
}

// NewWizardController 创建向导控制器
// spoolDir 为上传文件的落盘目录，按会话分子目录，会话结束后删除
func NewWizardController(wizardService *service.WizardService, spoolDir string) *WizardController {
	if spoolDir == "" {
		spoolDir = filepath.Join(os.TempDir(), "market-admin-spool")
	}
	return &WizardController{
		wizardService: wizardService,
		spoolDir:      spoolDir,
	}
}

// ==================== 会话 ====================

// Create 创建向导会话
// @Summary 创建发布向导
// @Description listing_id 非空时进入编辑模式，预填已有商品
// @Tags Wizard
// @Accept json
// @Produce json
// @Param request body dto.CreateWizardRequest false "创建参数"
// @Param listing_id query int false "编辑的商品ID"
// @Success 201 {object} dto.WizardStateResponse
// @Router /api/wizards [post]
func (ctrl *WizardController) Create(c *gin.Context) {
	var req dto.CreateWizardRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
			return
		}
	}
	if q := c.Query("listing_id"); q != "" {
		id, err := strconv.ParseInt(q, 10, 64)
		if err != nil || id <= 0 {
			fail(c, http.StatusBadRequest, "无效的商品ID")
			return
		}
		req.ListingID = id
	}

	session := middleware.GetSession(c)
	ctx := c.Request.Context()

	var (
		w   *service.WizardController
		err error
	)
	if req.ListingID > 0 {
		w, err = ctrl.wizardService.CreateEdit(ctx, session, req.ListingID)
	} else {
		w, err = ctrl.wizardService.Create(ctx, session, req.VendorID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusCreated, "创建成功", w.Snapshot())
}

// Get 获取向导状态
// @Summary 获取向导状态
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 200 {object} dto.WizardStateResponse
// @Router /api/wizards/{id} [get]
func (ctrl *WizardController) Get(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	success(c, http.StatusOK, "success", w.Snapshot())
}

// Discard 关闭向导，未发布的草稿丢弃
// @Summary 关闭向导
// @Tags Wizard
// @Param id path string true "会话ID"
// @Router /api/wizards/{id} [delete]
func (ctrl *WizardController) Discard(c *gin.Context) {
	id := c.Param("id")
	if _, ok := ctrl.wizard(c); !ok {
		return
	}
	ctrl.wizardService.Discard(id)
	ctrl.clearSpool(id)
	success(c, http.StatusOK, "已关闭", nil)
}

// ==================== 表单与导航 ====================

// UpdateFields 更新草稿字段
// @Summary 更新草稿字段
// @Description 原始字符串输入，数值字段无法解析时按 0 处理
// @Tags Wizard
// @Accept json
// @Param id path string true "会话ID"
// @Param request body dto.UpdateFieldsRequest true "字段"
// @Success 200 {object} dto.WizardStateResponse
// @Router /api/wizards/{id}/fields [patch]
func (ctrl *WizardController) UpdateFields(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	var req dto.UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if err := w.UpdateFields(model.DraftPatch(req.Fields)); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", w.Snapshot())
}

// Next 下一步
// @Summary 校验当前步骤并前进
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 200 {object} dto.WizardStateResponse
// @Failure 422 {object} map[string]interface{} "校验失败"
// @Router /api/wizards/{id}/next [post]
func (ctrl *WizardController) Next(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	if err := w.Next(); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", w.Snapshot())
}

// Back 上一步
// @Summary 后退一步，不做校验
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 200 {object} dto.WizardStateResponse
// @Router /api/wizards/{id}/back [post]
func (ctrl *WizardController) Back(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	w.Back()
	success(c, http.StatusOK, "success", w.Snapshot())
}

// Jump 跳转到指定步骤
// @Summary 跳转步骤
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param step path int true "目标步骤（0-3）"
// @Success 200 {object} dto.WizardStateResponse
// @Router /api/wizards/{id}/jump/{step} [post]
func (ctrl *WizardController) Jump(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		fail(c, http.StatusBadRequest, "无效的步骤")
		return
	}
	if err := w.JumpTo(step); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", w.Snapshot())
}

// ==================== 媒体 ====================

// AddFiles 添加媒体文件
// @Summary 上传媒体到向导（仅暂存，提交时才写入存储）
// @Tags Wizard
// @Accept multipart/form-data
// @Param id path string true "会话ID"
// @Param kind query string true "image, video, document, manifest"
// @Param files formData file true "文件，可重复"
// @Success 200 {object} dto.AddFilesResponse
// @Router /api/wizards/{id}/files [post]
func (ctrl *WizardController) AddFiles(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	kind, err := model.ParseMediaKind(c.Query("kind"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, "读取上传文件失败: "+err.Error())
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		fail(c, http.StatusBadRequest, "未选择文件")
		return
	}

	dir := filepath.Join(ctrl.spoolDir, w.ID())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		respondError(c, fmt.Errorf("创建暂存目录失败: %w", err))
		return
	}

	files := make([]model.FileHandle, 0, len(headers))
	spooled := make(map[string][]string, len(headers))
	for _, fh := range headers {
		dst := filepath.Join(dir, uuid.NewString()+filepath.Ext(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			respondError(c, fmt.Errorf("暂存文件失败: %w", err))
			return
		}
		f, err := model.DiskFile(dst, fh.Filename, fh.Header.Get("Content-Type"))
		if err != nil {
			respondError(c, err)
			return
		}
		files = append(files, f)
		spooled[fh.Filename] = append(spooled[fh.Filename], dst)
	}

	result, err := w.AddFiles(kind, files)
	if err != nil {
		for _, paths := range spooled {
			removeAll(paths)
		}
		respondError(c, err)
		return
	}

	accepted := make(map[string]bool, len(result.Accepted))
	for _, a := range result.Accepted {
		accepted[a.Name] = true
	}
	for _, rej := range result.Rejected {
		if !accepted[rej.FileName] {
			removeAll(spooled[rej.FileName])
		}
	}

	success(c, http.StatusOK, "success", dto.AddFilesResponse{
		Accepted: result.Accepted,
		Rejected: result.Messages(),
	})
}

// RemoveAsset 移除待上传媒体
// @Summary 移除待上传媒体
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param asset_id path string true "媒体ID"
// @Router /api/wizards/{id}/assets/{asset_id} [delete]
func (ctrl *WizardController) RemoveAsset(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	if err := w.RemoveAsset(c.Param("asset_id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "已移除", w.Snapshot())
}

// PromoteImage 设为主图
// @Summary 设为主图
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param asset_id path string true "媒体ID"
// @Router /api/wizards/{id}/assets/{asset_id}/main [post]
func (ctrl *WizardController) PromoteImage(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	if err := w.PromoteImage(c.Param("asset_id")); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "success", w.Snapshot())
}

// RemoveExisting 删除已持久化的媒体 URL（编辑模式）
// @Summary 删除已保存的媒体URL
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param url query string true "媒体URL"
// @Router /api/wizards/{id}/existing [delete]
func (ctrl *WizardController) RemoveExisting(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	url := c.Query("url")
	if url == "" {
		fail(c, http.StatusBadRequest, "url 不能为空")
		return
	}
	if err := w.RemoveExistingURL(url); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "已移除", w.Snapshot())
}

// PromoteExisting 指定已保存的图片为主图（编辑模式）
// @Summary 指定已保存图片为主图
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param url query string true "图片URL"
// @Router /api/wizards/{id}/existing/main [post]
func (ctrl *WizardController) PromoteExisting(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	url := c.Query("url")
	if url == "" {
		fail(c, http.StatusBadRequest, "url 不能为空")
		return
	}
	if err := w.PromoteExistingURL(url); err != nil {
		respondError(c, err)
		return
	}
	success(c, http.StatusOK, "已设为主图", w.Snapshot())
}

// ==================== 提交 ====================

// Submit 发布
// @Summary 提交发布
// @Description 先保存记录再上传媒体；媒体失败时记录仍保留并返回 warning
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 200 {object} dto.SubmitResponse
// @Failure 422 {object} map[string]interface{} "校验失败"
// @Failure 502 {object} map[string]interface{} "后台请求失败"
// @Router /api/wizards/{id}/submit [post]
func (ctrl *WizardController) Submit(c *gin.Context) {
	id := c.Param("id")
	result, err := ctrl.wizardService.Submit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.clearSpool(id)

	resp := dto.SubmitResponse{ListingID: result.ListingID, Closed: true}
	message := "发布成功"
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
		message = "商品已保存，媒体未完成"
	}
	success(c, http.StatusOK, message, resp)
}

// StreamProgress SSE 订阅上传进度
// @Summary SSE 实时推送上传进度
// @Tags Wizard
// @Param id path string true "会话ID"
// @Produce text/event-stream
// @Router /api/wizards/{id}/progress [get]
func (ctrl *WizardController) StreamProgress(c *gin.Context) {
	id := c.Param("id")
	if _, ok := ctrl.wizard(c); !ok {
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	hub := ctrl.wizardService.Progress()
	progressCh := hub.Subscribe(id)
	defer hub.Unsubscribe(id, progressCh)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			c.Writer.Flush()
		case event, ok := <-progressCh:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			c.SSEvent("progress", string(data))
			c.Writer.Flush()

			// 发布结束后关闭连接；单个文件失败时整批回滚，同样结束
			if event.Stage == dto.StageDone || event.Stage == dto.StageFailed {
				return
			}
		}
	}
}

// ==================== 辅助 ====================

func (ctrl *WizardController) wizard(c *gin.Context) (*service.WizardController, bool) {
	w, err := ctrl.wizardService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return w, true
}

func (ctrl *WizardController) clearSpool(id string) {
	dir := filepath.Join(ctrl.spoolDir, id)
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("spool_cleanup_failed", "dir", dir, "error", err)
	}
}

// PruneSpool 删除已过期会话遗留的暂存目录，返回删除数量
func (ctrl *WizardController) PruneSpool() int {
	entries, err := os.ReadDir(ctrl.spoolDir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || ctrl.wizardService.Alive(e.Name()) {
			continue
		}
		ctrl.clearSpool(e.Name())
		removed++
	}
	return removed
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
