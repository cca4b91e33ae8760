package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 实体类型 ====================

const (
	EntityKindListing = "products"
	EntityKindVendor  = "vendors"

	// StorageKindProducts 存储路径中的实体段
	StorageKindProducts = "Products"
)

// ==================== 拍卖状态 ====================

type AuctionStatus string

const (
	AuctionStatusDraft     AuctionStatus = "draft"
	AuctionStatusScheduled AuctionStatus = "scheduled"
	AuctionStatusLive      AuctionStatus = "live"
	AuctionStatusEnded     AuctionStatus = "ended"
)

func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionStatusDraft, AuctionStatusScheduled, AuctionStatusLive, AuctionStatusEnded:
		return true
	}
	return false
}

// Listing 已持久化的商品记录
// image_path / video_path / manifest_url 为逗号拼接的有序 URL 列表，允许为空（已创建但媒体未完成）
type Listing struct {
	BaseModel
	VendorID int64 `gorm:"index;not null" json:"vendor_id"`

	// --- 基本信息 ---
	Name        string `gorm:"size:255;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CategoryID  string `gorm:"size:64;index" json:"category_id"`
	Location    string `gorm:"size:128" json:"location"`
	Condition   string `gorm:"size:32" json:"condition"`
	Quantity    int    `gorm:"default:1" json:"quantity"`

	Tags datatypes.JSONSlice[string] `json:"tags"`

	// --- 价格与拍卖 ---
	StartingPrice float64       `gorm:"default:0" json:"starting_price"`
	ReservePrice  float64       `gorm:"default:0" json:"reserve_price"`
	BuyNowPrice   float64       `gorm:"default:0" json:"buy_now_price"`
	AuctionStart  *time.Time    `json:"auction_start"`
	AuctionEnd    *time.Time    `json:"auction_end"`
	AuctionStatus AuctionStatus `gorm:"size:20;default:draft;index" json:"auction_status"`

	// --- 物流 ---
	ShippingOption string  `gorm:"size:64" json:"shipping_option"`
	Weight         float64 `gorm:"default:0" json:"weight"`
	Length         float64 `gorm:"default:0" json:"length"`
	Width          float64 `gorm:"default:0" json:"width"`
	Height         float64 `gorm:"default:0" json:"height"`

	// --- 开关 ---
	IsTrending bool `gorm:"default:false" json:"is_trending"`
	IsActive   bool `gorm:"default:false;index" json:"is_active"`

	// --- 媒体路径 ---
	ImagePath   string `gorm:"column:image_path;type:text" json:"image_path"`
	VideoPath   string `gorm:"column:video_path;type:text" json:"video_path"`
	ManifestURL string `gorm:"column:manifest_url;type:text" json:"manifest_url"`

	// 每次发布尝试的幂等键，重复提交返回同一条记录
	IdempotencyKey *string `gorm:"size:64;uniqueIndex" json:"idempotency_key,omitempty"`
}

func (Listing) TableName() string {
	return "listings"
}

// MediaPaths 拆分三个路径字段
func (l *Listing) MediaPaths() MediaPaths {
	return MediaPaths{
		Images:   SplitPaths(l.ImagePath),
		Videos:   SplitPaths(l.VideoPath),
		Manifest: l.ManifestURL,
	}
}

// HasMedia 是否已挂载任何媒体
func (l *Listing) HasMedia() bool {
	return l.ImagePath != "" || l.VideoPath != "" || l.ManifestURL != ""
}
