package handlers_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/api/handlers"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/importer"
	"github.com/hugh/stockroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The create path stops before the enqueue step on every error, so a nil
// asynq client is fine for the failure cases exercised here. The enqueue
// itself needs Redis and is covered by the worker integration flow.
func setupImportTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup, *models.AssetType, *importer.Service) {
	tc := testutil.NewTestContext(t)
	at := testutil.CreateTestAssetType(t, tc.DB, tc.Org.ID)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := importer.NewService(tc.DB, logger)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService))

	handler := handlers.NewImportHandler(tc.DB, svc, nil, 100)
	r.Route("/api/v1/imports", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.Get)
		r.Post("/{id}/cancel", handler.Cancel)
	})
	r.Get("/api/v1/asset-types/{id}/template", handler.Template)
	r.Get("/api/v1/asset-types/{id}/export", handler.Export)

	return r, tc, at, svc
}

func TestImportHandler_CreateValidation(t *testing.T) {
	router, tc, at, _ := setupImportTestRouter(t)
	defer tc.Cleanup()

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "missing csv body",
			body:       map[string]interface{}{"asset_type_id": at.ID.String()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad type id",
			body: map[string]interface{}{
				"asset_type_id": "nope",
				"csv_body":      "Name\nBox",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown type",
			body: map[string]interface{}{
				"asset_type_id": uuid.New().String(),
				"csv_body":      "Name\nBox",
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/imports", tt.body, tc.Token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestImportHandler_CreateRowLimit(t *testing.T) {
	router, tc, at, _ := setupImportTestRouter(t)
	defer tc.Cleanup()

	body := map[string]interface{}{
		"asset_type_id": at.ID.String(),
		"csv_body":      "Name\n" + strings.Repeat("Box\n", 101),
	}
	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/imports", body, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, rr.Body.String(), "maximum of 100 rows")

	// No stranded pending job behind the rejection
	var count int64
	require.NoError(t, tc.DB.Model(&models.ImportJob{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportHandler_GetAndCancel(t *testing.T) {
	router, tc, at, svc := setupImportTestRouter(t)
	defer tc.Cleanup()

	job, err := svc.Start(testutil.TestContext(t), tc.Org.ID, tc.User.ID, importer.StartInput{
		AssetTypeID: at.ID,
		FileName:    "pending.csv",
		CSVBody:     "Name\nBox",
	})
	require.NoError(t, err)

	t.Run("get pending job", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/imports/"+job.ID.String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp models.ImportJob
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, models.ImportStatusPending, resp.Status)
		assert.Equal(t, 1, resp.TotalRows)
	})

	t.Run("cancel pending job", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/imports/"+job.ID.String()+"/cancel", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp models.ImportJob
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, models.ImportStatusFailed, resp.Status)
	})

	t.Run("cancel completed job is rejected", func(t *testing.T) {
		csvBody := "Name\nBox"
		done, err := svc.Start(testutil.TestContext(t), tc.Org.ID, tc.User.ID, importer.StartInput{
			AssetTypeID: at.ID,
			FileName:    "done.csv",
			CSVBody:     csvBody,
		})
		require.NoError(t, err)
		require.NoError(t, svc.Process(testutil.TestContext(t), done.ID, csvBody))

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/imports/"+done.ID.String()+"/cancel", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown job", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/imports/"+uuid.New().String(), nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestImportHandler_List(t *testing.T) {
	router, tc, at, svc := setupImportTestRouter(t)
	defer tc.Cleanup()

	for _, name := range []string{"a.csv", "b.csv"} {
		_, err := svc.Start(testutil.TestContext(t), tc.Org.ID, tc.User.ID, importer.StartInput{
			AssetTypeID: at.ID,
			FileName:    name,
			CSVBody:     "Name\nBox",
		})
		require.NoError(t, err)
	}

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/imports", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data  []models.ImportJob `json:"data"`
		Total int64              `json:"total"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.EqualValues(t, 2, resp.Total)
	assert.Len(t, resp.Data, 2)
}

func TestImportHandler_TemplateAndExport(t *testing.T) {
	router, tc, at, _ := setupImportTestRouter(t)
	defer tc.Cleanup()

	t.Run("template", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/asset-types/"+at.ID.String()+"/template", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
		assert.Equal(t, "Asset Tag,Name,Status,Serial Number,RAM (GB),Purchase Date,Managed", rr.Body.String())
	})

	t.Run("export", func(t *testing.T) {
		asset := testutil.CreateTestAsset(t, tc.DB, tc.Org.ID, at.ID, "AST-00001", "MacBook", models.StatusInUse)
		asset.Attributes = models.AttributeMap{"serialNumber": "SN-1"}
		require.NoError(t, tc.DB.Save(asset).Error)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/asset-types/"+at.ID.String()+"/export", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "AST-00001,MacBook,in_use,SN-1")
	})

	t.Run("unknown type", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/asset-types/"+uuid.New().String()+"/template", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}
