package controller

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_admin_v1/internal/api/dto"
	"market_admin_v1/internal/model"
)

func setupListingRouter(t *testing.T, session model.Session) (*gin.Engine, *testStack) {
	t.Helper()
	stack := newTestStack(t)
	ctrl := NewListingController(stack.catalog, stack.active, stack.auction)

	r := setupRouter(session)
	listings := r.Group("/api/listings")
	{
		listings.GET("", ctrl.List)
		listings.GET("/:id", ctrl.Get)
		listings.POST("/:id/active", ctrl.SetActive)
		listings.POST("/bulk/active", ctrl.BulkSetActive)
		listings.POST("/:id/auction-status", ctrl.SetAuctionStatus)
		listings.POST("/bulk/auction-status", ctrl.BulkSetAuctionStatus)
	}
	return r, stack
}

// ==================== 查询 ====================

func TestListingController_List(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})
	stack.seedListing(t, 7, "Vintage Camera")
	stack.seedListing(t, 7, "Lens")
	stack.seedListing(t, 8, "Camera Strap")

	w := performRequest(r, http.MethodGet, "/api/listings?keyword=Camera&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		List  []model.Listing `json:"list"`
		Total int64           `json:"total"`
	}
	decodeResponse(t, w, &data)
	assert.Equal(t, int64(2), data.Total)
	assert.Len(t, data.List, 2)
}

func TestListingController_List_VendorScoped(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 2, Role: "vendor", VendorID: 8})
	stack.seedListing(t, 7, "Lens")
	stack.seedListing(t, 8, "Camera Strap")

	w := performRequest(r, http.MethodGet, "/api/listings", nil)

	var data struct {
		List  []model.Listing `json:"list"`
		Total int64           `json:"total"`
	}
	decodeResponse(t, w, &data)
	require.Equal(t, int64(1), data.Total)
	assert.Equal(t, "Camera Strap", data.List[0].Name)
}

func TestListingController_List_BadActiveFlag(t *testing.T) {
	r, _ := setupListingRouter(t, model.Session{AdminID: 1})

	w := performRequest(r, http.MethodGet, "/api/listings?is_active=maybe", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingController_Get(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})
	l := stack.seedListing(t, 7, "Lens")

	w := performRequest(r, http.MethodGet, fmt.Sprintf("/api/listings/%d", l.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Listing
	decodeResponse(t, w, &got)
	assert.Equal(t, "Lens", got.Name)

	assert.Equal(t, http.StatusNotFound, performRequest(r, http.MethodGet, "/api/listings/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, performRequest(r, http.MethodGet, "/api/listings/abc", nil).Code)
}

// ==================== 状态变更 ====================

func TestListingController_SetActive(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})
	l := stack.seedListing(t, 7, "Lens")

	w := performRequest(r, http.MethodPost, fmt.Sprintf("/api/listings/%d/active", l.ID), gin.H{"is_active": true})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err := stack.listings.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	v, ok := stack.active.Get(l.ID)
	assert.True(t, ok)
	assert.True(t, v)
}

func TestListingController_SetActive_MissingFlag(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})
	l := stack.seedListing(t, 7, "Lens")

	w := performRequest(r, http.MethodPost, fmt.Sprintf("/api/listings/%d/active", l.ID), gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingController_SetActive_UnknownListingReverts(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})

	w := performRequest(r, http.MethodPost, "/api/listings/404/active", gin.H{"is_active": true})

	assert.Equal(t, http.StatusNotFound, w.Code)
	_, ok := stack.active.Get(404)
	assert.False(t, ok)
}

func TestListingController_BulkSetActive_PartialFailure(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})
	a := stack.seedListing(t, 7, "A")
	b := stack.seedListing(t, 7, "B")

	w := performRequest(r, http.MethodPost, "/api/listings/bulk/active", dto.BulkListingActiveRequest{
		IDs:      []int64{a.ID, b.ID, 999},
		IsActive: ptrBool(true),
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.BulkStatusResponse[bool]
	decodeResponse(t, w, &resp)
	assert.Equal(t, 2, resp.SucceededCount)
	assert.Equal(t, 1, resp.FailedCount)
	assert.Equal(t, []int64{999}, resp.FailedIDs)

	// 列表来自重新拉取：不存在的记录不在其中
	assert.True(t, resp.Items[a.ID])
	assert.True(t, resp.Items[b.ID])
	assert.NotContains(t, resp.Items, int64(999))
}

func TestListingController_SetAuctionStatus(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})
	l := stack.seedListing(t, 7, "Lens")

	w := performRequest(r, http.MethodPost, fmt.Sprintf("/api/listings/%d/auction-status", l.ID), dto.AuctionStatusRequest{Status: "live"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, _ := stack.listings.GetByID(context.Background(), l.ID)
	assert.Equal(t, model.AuctionStatusLive, got.AuctionStatus)

	w = performRequest(r, http.MethodPost, fmt.Sprintf("/api/listings/%d/auction-status", l.ID), dto.AuctionStatusRequest{Status: "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingController_BulkSetAuctionStatus(t *testing.T) {
	r, stack := setupListingRouter(t, model.Session{AdminID: 1})
	a := stack.seedListing(t, 7, "A")
	b := stack.seedListing(t, 7, "B")

	w := performRequest(r, http.MethodPost, "/api/listings/bulk/auction-status", dto.BulkAuctionStatusRequest{
		IDs:    []int64{a.ID, b.ID},
		Status: "ended",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.BulkStatusResponse[model.AuctionStatus]
	decodeResponse(t, w, &resp)
	assert.Equal(t, 2, resp.SucceededCount)
	assert.Zero(t, resp.FailedCount)
	assert.Equal(t, model.AuctionStatusEnded, resp.Items[a.ID])
	assert.Equal(t, model.AuctionStatusEnded, resp.Items[b.ID])
}

func ptrBool(b bool) *bool { return &b }
