package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"market_admin_v1/internal/middleware"
	"market_admin_v1/internal/model"
	"market_admin_v1/internal/repository"
	"market_admin_v1/internal/service"
	"market_admin_v1/pkg/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 请求构造辅助 ====================

func setupRouter(session model.Session) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeySession, session)
		c.Next()
	})
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// performUpload multipart 上传，files 为 文件名 -> 内容
func performUpload(r http.Handler, path string, files map[string][]byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, _ := mw.CreateFormFile("files", name)
		_, _ = part.Write(data)
	}
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ==================== 测试依赖 ====================

type testStack struct {
	listings     repository.ListingRepository
	vendors      repository.VendorRepository
	records      *repository.RecordStore
	wizards      *service.WizardService
	catalog      *service.CatalogService
	vendorStatus *service.Coordinator[model.VendorStatus]
	active       *service.Coordinator[bool]
	auction      *service.Coordinator[model.AuctionStatus]
	storageRoot  string
	spoolDir     string
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := database.InitDB("sqlite", ":memory:", false, &model.Listing{}, &model.Vendor{})
	require.NoError(t, err)

	listings := repository.NewListingRepository(db)
	vendors := repository.NewVendorRepository(db)
	records := repository.NewRecordStore(listings, vendors)

	storageCfg := &service.StorageConfig{Provider: "local", BasePath: t.TempDir()}
	storage, err := service.NewStorageProvider(context.Background(), storageCfg)
	require.NoError(t, err)

	hub := service.NewProgressHub()
	uploads := service.NewUploadOrchestrator(service.NewStorageBatchUploader(storage, hub, 2), storageCfg.PublicPrefix())
	reconciler := service.NewRecordReconciler(records, uploads, nil, service.StrategyTwoPhase)
	wizards := service.NewWizardService(service.NewWizardSessionStore(time.Hour), records, service.NewMediaClassifier(nil), reconciler, hub)

	return &testStack{
		listings:     listings,
		vendors:      vendors,
		records:      records,
		wizards:      wizards,
		catalog:      service.NewCatalogService(records, listings),
		vendorStatus: service.NewVendorStatusCoordinator(records, nil),
		active:       service.NewListingActiveCoordinator(records, nil),
		auction:      service.NewAuctionStatusCoordinator(records, nil),
		storageRoot:  storageCfg.BasePath,
		spoolDir:     t.TempDir(),
	}
}

func (s *testStack) seedListing(t *testing.T, vendorID int64, name string) *model.Listing {
	t.Helper()
	l := &model.Listing{VendorID: vendorID, Name: name, Quantity: 1, AuctionStatus: model.AuctionStatusDraft}
	require.NoError(t, s.listings.Create(context.Background(), l))
	return l
}

func (s *testStack) seedVendor(t *testing.T, name string) *model.Vendor {
	t.Helper()
	v := &model.Vendor{Name: name, Status: model.VendorStatusPending}
	require.NoError(t, s.vendors.Create(context.Background(), v))
	return v
}
