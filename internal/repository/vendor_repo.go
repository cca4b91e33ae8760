package repository

import (
	"context"

	"gorm.io/gorm"

	"market_admin_v1/internal/model"
)

// VendorRepository 商家仓储接口
type VendorRepository interface {
	Create(ctx context.Context, vendor *model.Vendor) error
	GetByID(ctx context.Context, id int64) (*model.Vendor, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	ListAll(ctx context.Context) ([]model.Vendor, error)
	ListByStatus(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error)
}

type vendorRepo struct {
	db *gorm.DB
}

// NewVendorRepository 创建商家仓储
func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepo{db: db}
}

func (r *vendorRepo) Create(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *vendorRepo) GetByID(ctx context.Context, id int64) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Vendor{}).
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

func (r *vendorRepo) ListAll(ctx context.Context) ([]model.Vendor, error) {
	var vendors []model.Vendor
	err := r.db.WithContext(ctx).Order("id ASC").Find(&vendors).Error
	return vendors, err
}

func (r *vendorRepo) ListByStatus(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error) {
	var vendors []model.Vendor
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&vendors).Error
	return vendors, err
}
