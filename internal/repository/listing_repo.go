package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"market_admin_v1/internal/model"
)

// ==================== 接口定义 ====================

// ListingRepository 商品记录仓储接口
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*model.Listing, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error)
	ListAll(ctx context.Context) ([]model.Listing, error)

	// ListDegraded 媒体字段全部为空且创建早于 before 的记录
	ListDegraded(ctx context.Context, before time.Time, limit int) ([]model.Listing, error)
}

// ==================== 过滤条件 ====================

// ListingFilter 商品过滤条件
type ListingFilter struct {
	VendorID      int64
	AuctionStatus model.AuctionStatus
	IsActive      *bool
	Keyword       string
	Page          int
	PageSize      int
}

// ==================== 仓储实现 ====================

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建商品仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) GetByIdempotencyKey(ctx context.Context, key string) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *listingRepo) List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error) {
	var listings []model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{})

	if filter.VendorID > 0 {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.AuctionStatus != "" {
		query = query.Where("auction_status = ?", filter.AuctionStatus)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Order("updated_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&listings).Error

	return listings, total, err
}

func (r *listingRepo) ListAll(ctx context.Context) ([]model.Listing, error) {
	var listings []model.Listing
	err := r.db.WithContext(ctx).Order("id ASC").Find(&listings).Error
	return listings, err
}

func (r *listingRepo) ListDegraded(ctx context.Context, before time.Time, limit int) ([]model.Listing, error) {
	var listings []model.Listing
	query := r.db.WithContext(ctx).
		Where("image_path = '' AND video_path = '' AND manifest_url = ''").
		Where("created_at < ?", before).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&listings).Error
	return listings, err
}
