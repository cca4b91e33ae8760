package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_admin_v1/internal/model"
	"market_admin_v1/internal/repository"
)

func seedCatalog(records *mockRecords) {
	records.seed(model.EntityKindListing, 1, map[string]interface{}{"vendor_id": float64(7), "name": "Vintage Camera", "is_active": true, "auction_status": "live"})
	records.seed(model.EntityKindListing, 2, map[string]interface{}{"vendor_id": float64(7), "name": "Lens", "is_active": false, "auction_status": "draft"})
	records.seed(model.EntityKindListing, 3, map[string]interface{}{"vendor_id": float64(8), "name": "camera strap", "is_active": true, "auction_status": "live"})
}

func TestCatalogService_ListListings_InMemoryFilter(t *testing.T) {
	records := newMockRecords()
	seedCatalog(records)
	svc := NewCatalogService(records, nil)
	ctx := context.Background()

	active := true
	list, total, err := svc.ListListings(ctx, model.Session{}, repository.ListingFilter{IsActive: &active, Keyword: "CAMERA"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(1), list[1].ID)

	list, total, err = svc.ListListings(ctx, model.Session{}, repository.ListingFilter{AuctionStatus: model.AuctionStatusDraft})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Lens", list[0].Name)
}

func TestCatalogService_ListListings_VendorScoped(t *testing.T) {
	records := newMockRecords()
	seedCatalog(records)
	svc := NewCatalogService(records, nil)

	// 商家账号传入其他商家ID也只返回自己的商品
	list, total, err := svc.ListListings(context.Background(), model.Session{VendorID: 8}, repository.ListingFilter{VendorID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(8), list[0].VendorID)
}

func TestCatalogService_ListListings_Pagination(t *testing.T) {
	records := newMockRecords()
	seedCatalog(records)
	svc := NewCatalogService(records, nil)

	list, total, err := svc.ListListings(context.Background(), model.Session{}, repository.ListingFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)

	list, _, err = svc.ListListings(context.Background(), model.Session{}, repository.ListingFilter{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCatalogService_GetListing(t *testing.T) {
	records := newMockRecords()
	seedCatalog(records)
	svc := NewCatalogService(records, nil)
	ctx := context.Background()

	l, err := svc.GetListing(ctx, model.Session{}, 2)
	require.NoError(t, err)
	assert.Equal(t, "Lens", l.Name)

	_, err = svc.GetListing(ctx, model.Session{VendorID: 8}, 2)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.GetListing(ctx, model.Session{}, 99)
	assert.Error(t, err)
}

func TestCatalogService_ListVendors(t *testing.T) {
	records := newMockRecords()
	records.seed(model.EntityKindVendor, 1, map[string]interface{}{"name": "A", "status": "pending"})
	records.seed(model.EntityKindVendor, 2, map[string]interface{}{"name": "B", "status": "approved"})
	svc := NewCatalogService(records, nil)

	all, err := svc.ListVendors(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListVendors(context.Background(), model.VendorStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "A", pending[0].Name)
}

func TestCatalogService_ListVendors_BackendError(t *testing.T) {
	records := newMockRecords()
	records.getAllFn = func(kind string) ([]map[string]interface{}, error) {
		return nil, errors.New("timeout")
	}
	_, err := NewCatalogService(records, nil).ListVendors(context.Background(), "")
	assert.Error(t, err)
}
