package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ==================== 向导步骤 ====================

const (
	StepInfo     = 0 // 基本信息
	StepPricing  = 1 // 价格与拍卖
	StepShipping = 2 // 物流与清单
	StepMedia    = 3 // 媒体与发布

	StepCount = 4
)

// ErrUnknownField 表单中出现草稿没有的字段
var ErrUnknownField = errors.New("未知字段")

// 输入的时间格式，datetime-local 不带时区
var draftTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// ListingDraft 发布中的商品草稿，一次发布尝试内由向导独占
type ListingDraft struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	Location    string   `json:"location"`
	Condition   string   `json:"condition"`
	Quantity    int      `json:"quantity"`
	Tags        []string `json:"tags"`

	StartingPrice float64   `json:"starting_price"`
	ReservePrice  float64   `json:"reserve_price"`
	BuyNowPrice   float64   `json:"buy_now_price"`
	AuctionStart  time.Time `json:"auction_start"`
	AuctionEnd    time.Time `json:"auction_end"`

	ShippingOption string  `json:"shipping_option"`
	Weight         float64 `json:"weight"`
	Length         float64 `json:"length"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`

	IsTrending bool `json:"is_trending"`
	IsActive   bool `json:"is_active"`
}

// NewListingDraft 空草稿，数量默认 1
func NewListingDraft() ListingDraft {
	return ListingDraft{Quantity: 1}
}

// DraftFromListing 编辑模式下从已有记录还原草稿
func DraftFromListing(l *Listing) ListingDraft {
	d := ListingDraft{
		Name:           l.Name,
		Description:    l.Description,
		CategoryID:     l.CategoryID,
		Location:       l.Location,
		Condition:      l.Condition,
		Quantity:       l.Quantity,
		Tags:           append([]string(nil), l.Tags...),
		StartingPrice:  l.StartingPrice,
		ReservePrice:   l.ReservePrice,
		BuyNowPrice:    l.BuyNowPrice,
		ShippingOption: l.ShippingOption,
		Weight:         l.Weight,
		Length:         l.Length,
		Width:          l.Width,
		Height:         l.Height,
		IsTrending:     l.IsTrending,
		IsActive:       l.IsActive,
	}
	if l.AuctionStart != nil {
		d.AuctionStart = *l.AuctionStart
	}
	if l.AuctionEnd != nil {
		d.AuctionEnd = *l.AuctionEnd
	}
	return d
}

// Fields 持久化字段（不含媒体路径），数值均已是数字类型
func (d *ListingDraft) Fields() map[string]interface{} {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"name":            d.Name,
		"description":     d.Description,
		"category_id":     d.CategoryID,
		"location":        d.Location,
		"condition":       d.Condition,
		"quantity":        d.Quantity,
		"tags":            tags,
		"starting_price":  d.StartingPrice,
		"reserve_price":   d.ReservePrice,
		"buy_now_price":   d.BuyNowPrice,
		"auction_start":   formatDraftTime(d.AuctionStart),
		"auction_end":     formatDraftTime(d.AuctionEnd),
		"shipping_option": d.ShippingOption,
		"weight":          d.Weight,
		"length":          d.Length,
		"width":           d.Width,
		"height":          d.Height,
		"is_trending":     d.IsTrending,
		"is_active":       d.IsActive,
	}
}

// Diff 与旧草稿相比发生变化的字段
func (d *ListingDraft) Diff(prev ListingDraft) map[string]interface{} {
	cur := d.Fields()
	old := prev.Fields()
	changed := make(map[string]interface{})
	for k, v := range cur {
		if !fieldEqual(v, old[k]) {
			changed[k] = v
		}
	}
	return changed
}

func fieldEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		return ok && slices.Equal(av, bv)
	default:
		return a == b
	}
}

func formatDraftTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// ==================== 校验 ====================

// ValidateStep 单步校验，返回 字段 -> 错误信息；imageCount 仅第 3 步使用
func (d *ListingDraft) ValidateStep(step int, imageCount int) map[string]string {
	errs := make(map[string]string)
	switch step {
	case StepInfo:
		if strings.TrimSpace(d.Name) == "" {
			errs["name"] = "商品名称不能为空"
		}
		if strings.TrimSpace(d.Description) == "" {
			errs["description"] = "商品描述不能为空"
		}
		if strings.TrimSpace(d.CategoryID) == "" {
			errs["category_id"] = "请选择商品分类"
		}
		if strings.TrimSpace(d.Location) == "" {
			errs["location"] = "请填写所在地"
		}
		if strings.TrimSpace(d.Condition) == "" {
			errs["condition"] = "请选择商品成色"
		}
		if d.Quantity <= 0 {
			errs["quantity"] = "数量必须大于0"
		}
	case StepPricing:
		if d.StartingPrice <= 0 {
			errs["starting_price"] = "起拍价必须大于0"
		}
		if d.AuctionStart.IsZero() {
			errs["auction_start"] = "请选择拍卖开始时间"
		}
		if d.AuctionEnd.IsZero() {
			errs["auction_end"] = "请选择拍卖结束时间"
		}
		if !d.AuctionStart.IsZero() && !d.AuctionEnd.IsZero() && !d.AuctionEnd.After(d.AuctionStart) {
			errs["auction_end"] = "拍卖结束时间必须晚于开始时间"
		}
	case StepShipping:
		if strings.TrimSpace(d.ShippingOption) == "" {
			errs["shipping_option"] = "请选择物流方式"
		}
	case StepMedia:
		if imageCount < 1 {
			errs["images"] = "至少上传一张图片"
		}
	}
	return errs
}

// ==================== 原始输入 ====================

// DraftPatch 表单原始输入，键为持久化字段名，值为用户输入的字符串
type DraftPatch map[string]string

// Apply 将原始输入转换为数字/时间后写入草稿
// 数量为空时取 1，非法时取 0（由第 0 步校验拦截）；价格与尺寸非法时取 0；时间非法时视为未填写
func (p DraftPatch) Apply(d *ListingDraft) error {
	for key, raw := range p {
		v := strings.TrimSpace(raw)
		switch key {
		case "name":
			d.Name = v
		case "description":
			d.Description = v
		case "category_id":
			d.CategoryID = v
		case "location":
			d.Location = v
		case "condition":
			d.Condition = v
		case "shipping_option":
			d.ShippingOption = v
		case "quantity":
			d.Quantity = coerceQuantity(v)
		case "tags":
			d.Tags = splitTags(v)
		case "starting_price":
			d.StartingPrice = coerceFloat(v)
		case "reserve_price":
			d.ReservePrice = coerceFloat(v)
		case "buy_now_price":
			d.BuyNowPrice = coerceFloat(v)
		case "weight":
			d.Weight = coerceFloat(v)
		case "length":
			d.Length = coerceFloat(v)
		case "width":
			d.Width = coerceFloat(v)
		case "height":
			d.Height = coerceFloat(v)
		case "auction_start":
			d.AuctionStart = coerceTime(v)
		case "auction_end":
			d.AuctionEnd = coerceTime(v)
		case "is_trending":
			d.IsTrending = coerceBool(v)
		case "is_active":
			d.IsActive = coerceBool(v)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
	}
	return nil
}

func coerceQuantity(v string) int {
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func coerceFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func coerceBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func coerceTime(v string) time.Time {
	for _, layout := range draftTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func splitTags(v string) []string {
	var tags []string
	for _, t := range strings.Split(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
