package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"market_admin_v1/internal/model"
)

// ==================== 通用记录存储 ====================

// 允许通过通用接口写入的列
var (
	listingColumns = map[string]bool{
		"name": true, "description": true, "category_id": true, "location": true,
		"condition": true, "quantity": true, "tags": true,
		"starting_price": true, "reserve_price": true, "buy_now_price": true,
		"auction_start": true, "auction_end": true, "auction_status": true,
		"shipping_option": true, "weight": true, "length": true, "width": true, "height": true,
		"is_trending": true, "is_active": true,
		"image_path": true, "video_path": true, "manifest_url": true,
	}
	vendorColumns = map[string]bool{
		"name": true, "email": true, "phone": true, "status": true, "status_reason": true,
	}
)

// RecordStore 以实体类型 + 字段 map 的形式访问本地数据库
// products 对应 listings 表，vendors 对应 vendors 表
type RecordStore struct {
	listings ListingRepository
	vendors  VendorRepository
}

func NewRecordStore(listings ListingRepository, vendors VendorRepository) *RecordStore {
	return &RecordStore{listings: listings, vendors: vendors}
}

// Insert 创建记录
// 商品带 idempotency_key 时，已存在同键记录直接返回其 ID
func (s *RecordStore) Insert(ctx context.Context, kind string, fields map[string]interface{}) (int64, error) {
	switch kind {
	case model.EntityKindListing:
		var listing model.Listing
		if err := decodeFields(fields, &listing); err != nil {
			return 0, err
		}
		if listing.IdempotencyKey != nil && *listing.IdempotencyKey == "" {
			listing.IdempotencyKey = nil
		}
		if listing.IdempotencyKey != nil {
			if existing, err := s.listings.GetByIdempotencyKey(ctx, *listing.IdempotencyKey); err == nil {
				return existing.ID, nil
			}
		}
		if err := s.listings.Create(ctx, &listing); err != nil {
			// 并发重复提交时唯一索引冲突，回查一次
			if listing.IdempotencyKey != nil {
				if existing, e := s.listings.GetByIdempotencyKey(ctx, *listing.IdempotencyKey); e == nil {
					return existing.ID, nil
				}
			}
			return 0, fmt.Errorf("创建商品失败: %w", err)
		}
		return listing.ID, nil

	case model.EntityKindVendor:
		var vendor model.Vendor
		if err := decodeFields(fields, &vendor); err != nil {
			return 0, err
		}
		if err := s.vendors.Create(ctx, &vendor); err != nil {
			return 0, fmt.Errorf("创建商家失败: %w", err)
		}
		return vendor.ID, nil
	}
	return 0, unknownKind(kind)
}

// Update 局部更新
func (s *RecordStore) Update(ctx context.Context, kind string, id int64, fields map[string]interface{}) error {
	var err error
	switch kind {
	case model.EntityKindListing:
		var cols map[string]interface{}
		if cols, err = listingUpdates(fields); err != nil {
			return err
		}
		err = s.listings.UpdateFields(ctx, id, cols)
	case model.EntityKindVendor:
		var cols map[string]interface{}
		if cols, err = whitelist(fields, vendorColumns); err != nil {
			return err
		}
		if st, ok := cols["status"]; ok {
			if !model.VendorStatus(fmt.Sprint(st)).Valid() {
				return fmt.Errorf("非法商家状态: %v", st)
			}
		}
		err = s.vendors.UpdateFields(ctx, id, cols)
	default:
		return unknownKind(kind)
	}
	return mapNotFound(err)
}

func (s *RecordStore) GetByID(ctx context.Context, kind string, id int64) (map[string]interface{}, error) {
	var v interface{}
	var err error
	switch kind {
	case model.EntityKindListing:
		v, err = s.listings.GetByID(ctx, id)
	case model.EntityKindVendor:
		v, err = s.vendors.GetByID(ctx, id)
	default:
		return nil, unknownKind(kind)
	}
	if err != nil {
		return nil, mapNotFound(err)
	}
	return toMap(v)
}

func (s *RecordStore) GetAll(ctx context.Context, kind string) ([]map[string]interface{}, error) {
	var v interface{}
	var err error
	switch kind {
	case model.EntityKindListing:
		v, err = s.listings.ListAll(ctx)
	case model.EntityKindVendor:
		v, err = s.vendors.ListAll(ctx)
	default:
		return nil, unknownKind(kind)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0)
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ==================== 辅助函数 ====================

func unknownKind(kind string) error {
	return fmt.Errorf("未知实体类型: %s", kind)
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNotFound
	}
	return err
}

func decodeFields(fields map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("字段序列化失败: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("字段格式错误: %w", err)
	}
	return nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	row := make(map[string]interface{})
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func whitelist(fields map[string]interface{}, allowed map[string]bool) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if !allowed[k] {
			return nil, fmt.Errorf("不支持的字段: %s", k)
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil, errors.New("没有可更新的字段")
	}
	return out, nil
}

// listingUpdates 把通用字段转换为列值：tags 转 JSON 数组，拍卖时间解析为时间
func listingUpdates(fields map[string]interface{}) (map[string]interface{}, error) {
	cols, err := whitelist(fields, listingColumns)
	if err != nil {
		return nil, err
	}

	if v, ok := cols["tags"]; ok {
		tags, err := toStringSlice(v)
		if err != nil {
			return nil, err
		}
		cols["tags"] = datatypes.JSONSlice[string](tags)
	}
	for _, key := range []string{"auction_start", "auction_end"} {
		v, ok := cols[key]
		if !ok {
			continue
		}
		t, err := toTime(v)
		if err != nil {
			return nil, fmt.Errorf("%s 格式错误: %w", key, err)
		}
		cols[key] = t
	}
	if v, ok := cols["auction_status"]; ok {
		if !model.AuctionStatus(fmt.Sprint(v)).Valid() {
			return nil, fmt.Errorf("非法拍卖状态: %v", v)
		}
	}
	return cols, nil
}

func toStringSlice(v interface{}) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return val, nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags 元素必须为字符串: %v", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("tags 必须为数组: %T", v)
}

// toTime nil 或空串返回 nil（清空列）
func toTime(v interface{}) (*time.Time, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if val.IsZero() {
			return nil, nil
		}
		return &val, nil
	case *time.Time:
		return val, nil
	case string:
		if val == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	return nil, fmt.Errorf("不支持的时间类型: %T", v)
}
