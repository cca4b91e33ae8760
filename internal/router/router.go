package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"market_admin_v1/internal/controller"
	"market_admin_v1/internal/middleware"

	_ "market_admin_v1/docs"
)

// Controllers 控制器集合
type Controllers struct {
	Wizard  *controller.WizardController
	Listing *controller.ListingController
	Vendor  *controller.VendorController
	Task    *controller.TaskController
}

// Options 路由选项
type Options struct {
	// Limiter 批量操作冷却，为 nil 时新建
	Limiter *middleware.CooldownLimiter
	// UploadsDir 本地存储目录，非空时挂载 /uploads 静态文件
	UploadsDir string
	// MaxMultipartMemory 超过部分落盘，0 使用 gin 默认值
	MaxMultipartMemory int64
}

// SetupRouter 创建引擎并注册所有路由
func SetupRouter(ctrls *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	InitRoutes(r, ctrls, opts)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctrls *Controllers, opts Options) {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewCooldownLimiter()
	}

	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. 本地存储的媒体文件
	if opts.UploadsDir != "" {
		r.Static("/uploads", opts.UploadsDir)
	}

	// 3. API 路由组
	api := r.Group("/api", middleware.JWTAuth())
	{
		// 发布向导：管理员与商家均可使用，商家只能发布自己的商品
		wizards := api.Group("/wizards")
		{
			wizards.POST("", ctrls.Wizard.Create)
			wizards.GET("/:id", ctrls.Wizard.Get)
			wizards.DELETE("/:id", ctrls.Wizard.Discard)
			wizards.PATCH("/:id/fields", ctrls.Wizard.UpdateFields)
			wizards.POST("/:id/next", ctrls.Wizard.Next)
			wizards.POST("/:id/back", ctrls.Wizard.Back)
			wizards.POST("/:id/jump/:step", ctrls.Wizard.Jump)
			wizards.POST("/:id/files", ctrls.Wizard.AddFiles)
			wizards.DELETE("/:id/assets/:asset_id", ctrls.Wizard.RemoveAsset)
			wizards.POST("/:id/assets/:asset_id/main", ctrls.Wizard.PromoteImage)
			wizards.DELETE("/:id/existing", ctrls.Wizard.RemoveExisting)
			wizards.POST("/:id/existing/main", ctrls.Wizard.PromoteExisting)
			wizards.POST("/:id/submit", ctrls.Wizard.Submit)
			// GET /api/wizards/:id/progress  SSE
			wizards.GET("/:id/progress", ctrls.Wizard.StreamProgress)
		}

		listings := api.Group("/listings")
		{
			listings.GET("", ctrls.Listing.List)
			listings.GET("/:id", ctrls.Listing.Get)

			admin := listings.Group("", middleware.RequireRole("admin"))
			admin.POST("/:id/active", ctrls.Listing.SetActive)
			admin.POST("/:id/auction-status", ctrls.Listing.SetAuctionStatus)
			admin.POST("/bulk/active",
				middleware.BulkCooldown(limiter, middleware.OpBulkListingActive, 0),
				ctrls.Listing.BulkSetActive,
			)
			admin.POST("/bulk/auction-status",
				middleware.BulkCooldown(limiter, middleware.OpBulkAuctionStatus, 0),
				ctrls.Listing.BulkSetAuctionStatus,
			)
		}

		// 商家审核仅管理员
		vendors := api.Group("/vendors", middleware.RequireRole("admin"))
		{
			vendors.GET("", ctrls.Vendor.List)
			vendors.POST("/:id/status", ctrls.Vendor.SetStatus)
			vendors.POST("/bulk/status",
				middleware.BulkCooldown(limiter, middleware.OpBulkVendorStatus, 0),
				ctrls.Vendor.BulkSetStatus,
			)
		}

		if ctrls.Task != nil {
			tasks := api.Group("/tasks", middleware.RequireRole("admin"))
			{
				tasks.GET("", ctrls.Task.Status)
				tasks.POST("/session-sweep", ctrls.Task.TriggerSweep)
				tasks.POST("/media-audit", ctrls.Task.TriggerMediaAudit)
			}
		}
	}
}
