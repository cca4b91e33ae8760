package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"market_admin_v1/internal/config"
	"market_admin_v1/internal/controller"
	"market_admin_v1/internal/middleware"
	"market_admin_v1/internal/router"
	"market_admin_v1/internal/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "8080", "监听端口")
	serveCmd.Flags().Bool("no-tasks", false, "不启动定时任务")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noTasks, _ := cmd.Flags().GetBool("no-tasks"); noTasks {
		cfg.Tasks.Enabled = false
	}
	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()
	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	deps.refreshViews(ctx)

	ctrls := initControllers(deps)

	tm := initTasks(deps, ctrls.Wizard)
	if tm != nil {
		if err := tm.Start(); err != nil {
			return fmt.Errorf("定时任务启动失败: %w", err)
		}
		defer tm.Stop()
		ctrls.Task = controller.NewTaskController(tm)
	}

	r := router.SetupRouter(ctrls, router.Options{
		Limiter:    middleware.NewCooldownLimiter(),
		UploadsDir: deps.StorageRoot,
	})
	return startServer(r, cfg.Server)
}

// initControllers 初始化所有控制器
func initControllers(deps *Dependencies) *router.Controllers {
	s := deps.Services
	return &router.Controllers{
		Wizard:  controller.NewWizardController(s.Wizard, deps.Config.Server.SpoolDir),
		Listing: controller.NewListingController(s.Catalog, s.ListingActive, s.Auction),
		Vendor:  controller.NewVendorController(s.Catalog, s.VendorStatus),
	}
}

// spoolSweeper 清理过期会话后顺带清理其落盘文件
type spoolSweeper struct {
	deps *Dependencies
	ctrl *controller.WizardController
}

func (s spoolSweeper) Sweep() int {
	n := s.deps.Services.Wizard.Sweep()
	if pruned := s.ctrl.PruneSpool(); pruned > 0 {
		slog.Info("spool_pruned", "dirs", pruned)
	}
	return n
}

// initTasks 未启用时返回 nil
func initTasks(deps *Dependencies, wizardCtl *controller.WizardController) *task.TaskManager {
	cfg := deps.Config
	if !cfg.Tasks.Enabled {
		return nil
	}

	taskDeps := &task.TaskManagerDeps{
		Sessions: spoolSweeper{deps: deps, ctrl: wizardCtl},
	}
	// 媒体巡检需要直接查库，远端后台模式下不启用
	if deps.Repos != nil {
		taskDeps.Audit = task.NewMediaAuditTask(deps.Repos.Listing, deps.Events, cfg.Tasks.DegradedAfter)
	}

	return task.NewTaskManager(taskDeps, &task.TaskManagerConfig{
		SweepSpec: cfg.Tasks.SweepSpec,
		AuditSpec: cfg.Tasks.AuditSpec,
	})
}

// ==================== 服务启动 ====================

func startServer(r *gin.Engine, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
	}

	slog.Info("server_shutting_down")

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}

	slog.Info("server_exited")
	return nil
}
