package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"market_admin_v1/internal/config"
	"market_admin_v1/internal/middleware"
	"market_admin_v1/internal/model"
	"market_admin_v1/internal/repository"
	"market_admin_v1/internal/service"
	"market_admin_v1/pkg/backend"
	"market_admin_v1/pkg/database"
	"market_admin_v1/pkg/event"
)

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB      // 远端后台模式下为 nil
	Repos    *Repositories // 远端后台模式下为 nil
	Services *Services
	Events   event.Publisher

	// StorageRoot 本地存储目录，供 /uploads 静态服务
	StorageRoot string
}

// Repositories 仓库集合
type Repositories struct {
	Listing repository.ListingRepository
	Vendor  repository.VendorRepository
}

// Services 服务集合
type Services struct {
	Records       service.RecordService
	Catalog       *service.CatalogService
	Wizard        *service.WizardService
	Reconciler    *service.RecordReconciler
	VendorStatus  *service.Coordinator[model.VendorStatus]
	ListingActive *service.Coordinator[bool]
	Auction       *service.Coordinator[model.AuctionStatus]
}

// Close 释放外部连接
func (d *Dependencies) Close() {
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			slog.Warn("event_publisher_close_failed", "error", err)
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// ==================== 初始化函数 ====================

// initDependencies 按配置组装所有依赖
func initDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenTTL: cfg.JWT.TTL,
		Issuer:         "market-admin",
	})

	deps := &Dependencies{Config: cfg, Events: initEvents(cfg)}

	// -------- 记录服务 & 上传 --------
	storageCfg := storageConfig(cfg)
	hub := service.NewProgressHub()

	var (
		records  service.RecordService
		uploader service.UploadService
	)
	switch cfg.Backend.Mode {
	case "remote":
		client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)
		records, uploader = client, client
		slog.Info("backend_remote", "url", cfg.Backend.URL)
	default:
		db, err := initDatabase(cfg)
		if err != nil {
			return nil, err
		}
		deps.DB = db
		deps.Repos = initRepositories(db)
		records = repository.NewRecordStore(deps.Repos.Listing, deps.Repos.Vendor)

		provider, err := service.NewStorageProvider(ctx, storageCfg)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("存储服务初始化失败: %w", err)
		}
		if local, ok := provider.(*service.LocalStorage); ok {
			deps.StorageRoot = local.Root()
		}
		uploader = service.NewStorageBatchUploader(provider, hub, cfg.Storage.Concurrency)
	}

	deps.Services = initServices(cfg, records, uploader, storageCfg.PublicPrefix(), hub, deps)
	return deps, nil
}

// initDatabase 初始化数据库并注册审计回调
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}
	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Debug,
		&model.Listing{}, &model.Vendor{},
	)
	if err != nil {
		return nil, err
	}
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, fmt.Errorf("注册审计回调失败: %w", err)
	}
	return db, nil
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Listing: repository.NewListingRepository(db),
		Vendor:  repository.NewVendorRepository(db),
	}
}

func initServices(cfg *config.Config, records service.RecordService, uploader service.UploadService, publicPrefix string, hub *service.ProgressHub, deps *Dependencies) *Services {
	// 配置已校验，策略不会解析失败
	strategy, _ := service.ParsePublishStrategy(cfg.Publish.Strategy)
	uploads := service.NewUploadOrchestrator(uploader, publicPrefix)
	reconciler := service.NewRecordReconciler(records, uploads, deps.Events, strategy)

	var listings repository.ListingRepository
	if deps.Repos != nil {
		listings = deps.Repos.Listing
	}

	return &Services{
		Records:    records,
		Catalog:    service.NewCatalogService(records, listings),
		Reconciler: reconciler,
		Wizard: service.NewWizardService(
			service.NewWizardSessionStore(cfg.Publish.SessionTTL),
			records,
			service.NewMediaClassifier(service.ImagePreview),
			reconciler,
			hub,
		),
		VendorStatus:  service.NewVendorStatusCoordinator(records, deps.Events),
		ListingActive: service.NewListingActiveCoordinator(records, deps.Events),
		Auction:       service.NewAuctionStatusCoordinator(records, deps.Events),
	}
}

// initEvents 未配置 broker 时不发事件
func initEvents(cfg *config.Config) event.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return event.NopPublisher{}
	}
	slog.Info("kafka_publisher_enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

func storageConfig(cfg *config.Config) *service.StorageConfig {
	return &service.StorageConfig{
		Provider:        cfg.Storage.Provider,
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		AccessKey:       cfg.Storage.AccessKey,
		SecretKey:       cfg.Storage.SecretKey,
		Endpoint:        cfg.Storage.Endpoint,
		PublicURL:       cfg.Storage.PublicURL,
		BasePath:        cfg.Storage.BasePath,
		CredentialsFile: cfg.Storage.CredentialsFile,
	}
}

// refreshViews 启动时拉取状态列表，失败只记录日志
func (d *Dependencies) refreshViews(ctx context.Context) {
	s := d.Services
	for name, refresh := range map[string]func(context.Context) error{
		"vendor_status":  s.VendorStatus.Refresh,
		"listing_active": s.ListingActive.Refresh,
		"auction_status": s.Auction.Refresh,
	} {
		if err := refresh(ctx); err != nil {
			slog.Warn("status_view_refresh_failed", "view", name, "error", err)
		}
	}
}
