package dto

import "market_admin_v1/internal/model"

// ==================== 商家状态 ====================

// VendorStatusRequest 单个商家状态变更
type VendorStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
	Reason string `json:"reason"`
}

// BulkVendorStatusRequest 批量商家状态变更
type BulkVendorStatusRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1"`
	Status string  `json:"status" binding:"required,oneof=pending approved rejected"`
	Reason string  `json:"reason"`
}

// ==================== 商品开关 ====================

// ListingActiveRequest 上下架
type ListingActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type BulkListingActiveRequest struct {
	IDs      []int64 `json:"ids" binding:"required,min=1"`
	IsActive *bool   `json:"is_active" binding:"required"`
}

// AuctionStatusRequest 拍卖状态变更
type AuctionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft scheduled live ended"`
}

type BulkAuctionStatusRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1"`
	Status string  `json:"status" binding:"required,oneof=draft scheduled live ended"`
}

// ==================== 响应 ====================

// BulkStatusResponse 批量结果，Items 为重新拉取后的权威状态
type BulkStatusResponse[S comparable] struct {
	model.BulkOperationResult
	Items map[int64]S `json:"items"`
}
