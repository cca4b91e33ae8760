package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"market_admin_v1/internal/model"
	"market_admin_v1/internal/repository"
)

// ==================== 商品与商家查询 ====================

// CatalogService 管理后台列表查询
// 本地模式下分页走数据库；远端后台模式只有全量接口，在内存中过滤分页
type CatalogService struct {
	records  RecordService
	listings repository.ListingRepository
}

func NewCatalogService(records RecordService, listings repository.ListingRepository) *CatalogService {
	return &CatalogService{records: records, listings: listings}
}

// ListListings 商品列表；商家账号只能看到自己的商品
func (s *CatalogService) ListListings(ctx context.Context, session model.Session, filter repository.ListingFilter) ([]model.Listing, int64, error) {
	if session.VendorID != 0 {
		filter.VendorID = session.VendorID
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	if s.listings != nil {
		return s.listings.List(ctx, filter)
	}

	rows, err := s.records.GetAll(ctx, model.EntityKindListing)
	if err != nil {
		return nil, 0, fmt.Errorf("查询商品失败: %w", err)
	}

	matched := make([]model.Listing, 0, len(rows))
	for _, row := range rows {
		l, err := decodeListing(row)
		if err != nil {
			return nil, 0, err
		}
		if matchListing(l, filter) {
			matched = append(matched, *l)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return []model.Listing{}, total, nil
	}
	end := min(start+filter.PageSize, len(matched))
	return matched[start:end], total, nil
}

func matchListing(l *model.Listing, f repository.ListingFilter) bool {
	if f.VendorID != 0 && l.VendorID != f.VendorID {
		return false
	}
	if f.AuctionStatus != "" && l.AuctionStatus != f.AuctionStatus {
		return false
	}
	if f.IsActive != nil && l.IsActive != *f.IsActive {
		return false
	}
	if f.Keyword != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.Keyword)) {
		return false
	}
	return true
}

// GetListing 商品详情
func (s *CatalogService) GetListing(ctx context.Context, session model.Session, id int64) (*model.Listing, error) {
	row, err := s.records.GetByID(ctx, model.EntityKindListing, id)
	if err != nil {
		return nil, fmt.Errorf("获取商品失败: %w", err)
	}
	l, err := decodeListing(row)
	if err != nil {
		return nil, err
	}
	if session.VendorID != 0 && l.VendorID != session.VendorID {
		return nil, fmt.Errorf("获取商品失败: %w", model.ErrNotFound)
	}
	return l, nil
}

// ListVendors 商家列表，status 为空时返回全部
func (s *CatalogService) ListVendors(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error) {
	rows, err := s.records.GetAll(ctx, model.EntityKindVendor)
	if err != nil {
		return nil, fmt.Errorf("查询商家失败: %w", err)
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("解析商家失败: %v", err)
	}
	var vendors []model.Vendor
	if err := json.Unmarshal(data, &vendors); err != nil {
		return nil, fmt.Errorf("解析商家失败: %v", err)
	}

	if status == "" {
		return vendors, nil
	}
	out := vendors[:0]
	for _, v := range vendors {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out, nil
}
