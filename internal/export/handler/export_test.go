package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/export/client"
	"github.com/wareflow/wareflow-backend/internal/export/handler"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/service"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/testutil"
)

// warehouseAPI stands in for the remote warehouse service
type warehouseAPI struct {
	mu          sync.Mutex
	failDetails bool
	details     []map[string]any
	auth        []string
}

func (a *warehouseAPI) server(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.mu.Lock()
			a.auth = append(a.auth, r.Header.Get("Authorization"))
			a.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/inventories", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[{"product":{"id":1,"name":"Gloves"},"zone":{"id":"z1","name":"Zone 1","warehouseId":"wh-1"},"expiredAt":"2030-01-01T00:00:00Z","quantity":10}]}`)
	})
	r.Post("/exports", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"id":42}}`)
	})
	r.Post("/export-details", func(w http.ResponseWriter, r *http.Request) {
		if a.failDetails {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"message":"stock changed"}`)
			return
		}
		var body []map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		a.mu.Lock()
		a.details = append(a.details, body...)
		a.mu.Unlock()
		io.WriteString(w, `{"data":null}`)
	})
	r.Get("/exports/by-warehouse/{wid}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"content":[{"id":42}],"page":`+r.URL.Query().Get("pageNo")+`}}`)
	})
	r.Get("/exports/by-warehouse/total/{wid}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":3}`)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
}

func parse(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	return env
}

func newRouter(t *testing.T, api *warehouseAPI, warehouseID string) http.Handler {
	t.Helper()
	srv := api.server(t)
	log := logger.Nop()

	svc := service.NewExportService(
		repository.NewMemoryDraftStore(time.Hour),
		client.New(srv.URL, 5*time.Second, log),
		nil,
		nil,
		log,
	)
	h := handler.NewExportHandler(svc, log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := httputil.WithUserContext(r.Context(), "user-1", "staff", warehouseID, "token-1")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Route("/api/v1/exports", h.Routes)
	return r
}

func do(h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	return testutil.ExecuteRequest(h, testutil.NewHTTPRequest(method, path, body))
}

func startDraft(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := do(h, http.MethodPost, "/api/v1/exports/drafts", nil)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	var view service.DraftView
	require.NoError(t, json.Unmarshal(parse(t, rr).Data, &view))
	return view.ID
}

func TestExportHandler_CreateFlow(t *testing.T) {
	api := &warehouseAPI{}
	h := newRouter(t, api, "wh-1")
	id := startDraft(t, h)
	base := "/api/v1/exports/drafts/" + id

	rr := do(h, http.MethodPut, base+"/header", map[string]string{
		"description": "Weekly delivery",
		"type":        "CUSTOMER",
		"customer_id": "cust-1",
		"export_date": "2025-02-01",
	})
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = do(h, http.MethodPost, base+"/next", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"step":"PRODUCTS"`)

	rr = do(h, http.MethodGet, base+"/options", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"name":"Gloves"`)

	rr = do(h, http.MethodPost, base+"/lines", map[string]any{
		"product_id": "1",
		"zone_id":    "z1",
		"expired_at": "2030-01-01",
		"quantity":   4,
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = do(h, http.MethodPost, base+"/next", map[string]string{"step": "REVIEW"})
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"step":"REVIEW"`)

	rr = do(h, http.MethodGet, base+"/diff", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var preview service.Preview
	require.NoError(t, json.Unmarshal(parse(t, rr).Data, &preview))
	assert.Len(t, preview.Diff.ToCreate, 1)

	rr = do(h, http.MethodPost, base+"/submit", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var res service.SubmitResult
	require.NoError(t, json.Unmarshal(parse(t, rr).Data, &res))
	assert.Equal(t, "42", res.ExportID)

	require.Len(t, api.details, 1)
	assert.Equal(t, "42", api.details[0]["exportId"])
	assert.Equal(t, "2030-01-01T00:00:00Z", api.details[0]["expiredAt"])
	assert.EqualValues(t, 4, api.details[0]["quantity"])
	for _, header := range api.auth {
		assert.Equal(t, "Bearer token-1", header)
	}

	rr = do(h, http.MethodGet, base, nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestExportHandler_HeaderGate(t *testing.T) {
	h := newRouter(t, &warehouseAPI{}, "wh-1")
	id := startDraft(t, h)
	base := "/api/v1/exports/drafts/" + id

	rr := do(h, http.MethodPut, base+"/header", map[string]string{"description": "Gift", "type": "CUSTOMER"})
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = do(h, http.MethodPost, base+"/next", nil)
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	env := parse(t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "HEADER_VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "customer_id")
}

func TestExportHandler_SubmitFailureReportsPhase(t *testing.T) {
	api := &warehouseAPI{failDetails: true}
	h := newRouter(t, api, "wh-1")
	id := startDraft(t, h)
	base := "/api/v1/exports/drafts/" + id

	do(h, http.MethodPut, base+"/header", map[string]string{"description": "Disposal", "type": "WASTE"})
	rr := do(h, http.MethodPost, base+"/lines", map[string]any{"product_id": "1", "zone_id": "z1", "expired_at": "2030-01-01", "quantity": 1})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	rr = do(h, http.MethodPost, base+"/next", map[string]string{"step": "REVIEW"})
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = do(h, http.MethodPost, base+"/submit", nil)
	testutil.AssertStatus(t, rr, http.StatusBadGateway)
	env := parse(t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SUBMIT_FAILED", env.Error.Code)
	assert.Equal(t, "create", env.Error.Details["phase"])
	assert.Equal(t, "42", env.Error.Details["export_id"])
	assert.Contains(t, env.Error.Message, "stock changed")
}

func TestExportHandler_QuantityExceedsStock(t *testing.T) {
	h := newRouter(t, &warehouseAPI{}, "wh-1")
	id := startDraft(t, h)
	base := "/api/v1/exports/drafts/" + id

	do(h, http.MethodPut, base+"/header", map[string]string{"description": "Disposal", "type": "WASTE"})
	do(h, http.MethodPost, base+"/lines", map[string]any{"product_id": "1", "zone_id": "z1", "expired_at": "2030-01-01", "quantity": 11})

	rr := do(h, http.MethodPost, base+"/next", map[string]string{"step": "REVIEW"})
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	assert.Equal(t, "QUANTITY_EXCEEDS_STOCK", parse(t, rr).Error.Code)
}

func TestExportHandler_Listing(t *testing.T) {
	h := newRouter(t, &warehouseAPI{}, "wh-1")

	rr := do(h, http.MethodGet, "/api/v1/exports/by-warehouse/wh-1?pageNo=2&sortBy=exportDate", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"content":[{"id":42}],"page":2}`, string(parse(t, rr).Data))

	rr = do(h, http.MethodGet, "/api/v1/exports/by-warehouse/wh-1/total?status=PENDING", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"total":3}`, string(parse(t, rr).Data))

	rr = do(h, http.MethodGet, "/api/v1/exports/by-warehouse/wh-2", nil)
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	rr = do(h, http.MethodGet, "/api/v1/exports/submissions/incomplete", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `[]`, string(parse(t, rr).Data))
}

func TestExportHandler_BadRequests(t *testing.T) {
	h := newRouter(t, &warehouseAPI{}, "wh-1")
	id := startDraft(t, h)
	base := "/api/v1/exports/drafts/" + id

	rr := do(h, http.MethodGet, "/api/v1/exports/drafts/missing", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	req := httptest.NewRequest(http.MethodPost, base+"/lines", strings.NewReader("{"))
	rr = testutil.ExecuteRequest(h, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = do(h, http.MethodPost, base+"/auto-select", map[string]any{"quantity": 3})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	env := parse(t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "product_id")

	rr = do(h, http.MethodPost, base+"/next", map[string]string{"step": "SUBMITTED"})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = do(h, http.MethodPost, base+"/submit", nil)
	testutil.AssertStatus(t, rr, http.StatusConflict)

	rr = do(h, http.MethodDelete, base, nil)
	testutil.AssertStatus(t, rr, http.StatusNoContent)
}

func TestExportHandler_NoWarehouse(t *testing.T) {
	h := newRouter(t, &warehouseAPI{}, "")

	rr := do(h, http.MethodPost, "/api/v1/exports/drafts", nil)
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}
