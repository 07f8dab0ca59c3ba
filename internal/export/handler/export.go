package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wareflow/wareflow-backend/internal/export/client"
	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/selection"
	"github.com/wareflow/wareflow-backend/internal/export/service"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// ExportHandler handles export draft and export endpoints
type ExportHandler struct {
	service *service.ExportService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.ExportService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts every export endpoint on r. Callers add authentication.
func (h *ExportHandler) Routes(r chi.Router) {
	r.Get("/reference", h.Reference)
	r.Get("/submissions/incomplete", h.IncompleteSubmissions)

	r.Route("/by-warehouse/{warehouseId}", func(r chi.Router) {
		r.Get("/", h.ListByWarehouse)
		r.Get("/total", h.CountByWarehouse)
	})

	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", h.StartDraft)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Delete("/", h.CancelDraft)
			r.Put("/header", h.UpdateHeader)
			r.Post("/lines", h.AddLine)
			r.Patch("/lines/{lineId}", h.PatchLine)
			r.Delete("/lines/{lineId}", h.RemoveLine)
			r.Post("/auto-select", h.AutoSelect)
			r.Get("/options", h.Options)
			r.Post("/next", h.Next)
			r.Post("/back", h.Back)
			r.Get("/diff", h.Diff)
			r.Post("/submit", h.Submit)
		})
	})

	r.Post("/{exportId}/drafts", h.OpenEdit)
	r.Get("/{exportId}/submissions", h.SubmissionHistory)
	r.Delete("/{exportId}", h.DeleteExport)
}

type headerRequest struct {
	Description   string      `json:"description" validate:"max=500"`
	Type          string      `json:"type" validate:"omitempty,oneof=CUSTOMER WAREHOUSE WASTE"`
	ExportDate    domain.Date `json:"export_date"`
	WarehouseIDTo string      `json:"warehouse_id_to"`
	CustomerID    string      `json:"customer_id"`
}

type lineRequest struct {
	ProductID string      `json:"product_id"`
	ZoneID    string      `json:"zone_id"`
	ExpiredAt domain.Date `json:"expired_at"`
	Quantity  int         `json:"quantity" validate:"gte=0"`
}

type patchLineRequest struct {
	ProductID *string      `json:"product_id"`
	ZoneID    *string      `json:"zone_id"`
	ExpiredAt *domain.Date `json:"expired_at"`
	Quantity  *int         `json:"quantity" validate:"omitempty,gte=0"`
}

type autoSelectRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Replace   bool   `json:"replace"`
}

type nextRequest struct {
	Step string `json:"step" validate:"omitempty,oneof=INFO PRODUCTS REVIEW"`
}

type lineResponse struct {
	Draft *service.DraftView   `json:"draft"`
	Line  domain.SelectionLine `json:"line"`
}

type autoSelectResponse struct {
	Draft      *service.DraftView         `json:"draft"`
	Allocation selection.AutoSelectResult `json:"allocation"`
}

// StartDraft opens a new-export wizard
func (h *ExportHandler) StartDraft(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.StartDraft(r.Context(), actorFrom(r))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.Created(w, view)
}

// OpenEdit opens an edit session of a saved export
func (h *ExportHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.OpenEdit(r.Context(), actorFrom(r), chi.URLParam(r, "exportId"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.Created(w, view)
}

// GetDraft returns a draft
func (h *ExportHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetDraft(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// CancelDraft discards a draft
func (h *ExportHandler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelDraft(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		h.error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// UpdateHeader replaces the editable header fields
func (h *ExportHandler) UpdateHeader(w http.ResponseWriter, r *http.Request) {
	var req headerRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.UpdateHeader(r.Context(), actorFrom(r), chi.URLParam(r, "id"), service.HeaderInput{
		Description:   req.Description,
		Type:          domain.ExportType(req.Type),
		ExportDate:    req.ExportDate.Time(),
		WarehouseIDTo: req.WarehouseIDTo,
		CustomerID:    req.CustomerID,
	})
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// AddLine appends a line to a draft
func (h *ExportHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	view, line, err := h.service.AddLine(r.Context(), actorFrom(r), chi.URLParam(r, "id"), domain.SelectionLine{
		ProductID: req.ProductID,
		ZoneID:    req.ZoneID,
		ExpiredAt: req.ExpiredAt,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.Created(w, lineResponse{Draft: view, Line: line})
}

// PatchLine changes fields of a line
func (h *ExportHandler) PatchLine(w http.ResponseWriter, r *http.Request) {
	var req patchLineRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.PatchLine(r.Context(), actorFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "lineId"), service.LinePatch{
		ProductID: req.ProductID,
		ZoneID:    req.ZoneID,
		ExpiredAt: req.ExpiredAt,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// RemoveLine deletes a line from a draft
func (h *ExportHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveLine(r.Context(), actorFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "lineId"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// AutoSelect allocates a product quantity first-expiry-first-out
func (h *ExportHandler) AutoSelect(w http.ResponseWriter, r *http.Request) {
	var req autoSelectRequest
	if err := decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	view, res, err := h.service.AutoSelect(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.ProductID, req.Quantity, req.Replace)
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, autoSelectResponse{Draft: view, Allocation: res})
}

// Options returns the choices left for a line
func (h *ExportHandler) Options(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := h.service.LineOptions(r.Context(), actorFrom(r), chi.URLParam(r, "id"),
		q.Get("line_id"), q.Get("product_id"), q.Get("zone_id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, opts)
}

// Next moves the wizard forward, optionally up to a given step
func (h *ExportHandler) Next(w http.ResponseWriter, r *http.Request) {
	// The body is optional; without it the wizard moves one step.
	var req nextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		httputil.Error(w, errors.BadRequest("invalid JSON body"))
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.Next(r.Context(), actorFrom(r), chi.URLParam(r, "id"), wizard.Step(req.Step))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// Back moves the wizard one step back
func (h *ExportHandler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Back(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// Diff previews what a submit would send
func (h *ExportHandler) Diff(w http.ResponseWriter, r *http.Request) {
	preview, err := h.service.Preview(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, preview)
}

// Submit creates the export or saves the edit session
func (h *ExportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Submit(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

// DeleteExport deletes a saved export with its details
func (h *ExportHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteExport(r.Context(), actorFrom(r), chi.URLParam(r, "exportId")); err != nil {
		h.error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// ListByWarehouse proxies the export listing of a warehouse
func (h *ExportHandler) ListByWarehouse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("pageNo"))

	raw, err := h.service.ListExports(r.Context(), actorFrom(r), chi.URLParam(r, "warehouseId"), client.ListQuery{
		PageNo:    page,
		SortBy:    q.Get("sortBy"),
		Direction: q.Get("direction"),
		Status:    q.Get("status"),
		Search:    q.Get("search"),
	})
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, raw)
}

// CountByWarehouse proxies the export count of a warehouse
func (h *ExportHandler) CountByWarehouse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	total, err := h.service.CountExports(r.Context(), actorFrom(r), chi.URLParam(r, "warehouseId"), q.Get("status"), q.Get("search"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int{"total": total})
}

// IncompleteSubmissions lists exports left without all of their lines
func (h *ExportHandler) IncompleteSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subs, err := h.service.IncompleteSubmissions(r.Context(), actorFrom(r), r.URL.Query().Get("warehouse_id"), limit)
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, subs)
}

// SubmissionHistory lists the journaled submit attempts of one export
func (h *ExportHandler) SubmissionHistory(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.SubmissionHistory(r.Context(), actorFrom(r), chi.URLParam(r, "exportId"))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, subs)
}

// Reference returns the lookup lists of the header form
func (h *ExportHandler) Reference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.service.Reference(r.Context(), actorFrom(r))
	if err != nil {
		h.error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, ref)
}

func actorFrom(r *http.Request) service.Actor {
	ctx := r.Context()
	return service.Actor{
		UserID:      httputil.GetUserID(ctx),
		Role:        httputil.GetUserRole(ctx),
		WarehouseID: httputil.GetWarehouseID(ctx),
		Credentials: client.Credentials{Token: httputil.GetBearerToken(ctx)},
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := httputil.DecodeJSON(r, v); err != nil {
		return err
	}
	return httputil.Validate(v)
}

func (h *ExportHandler) error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error().
			Err(err).
			Str("request_id", httputil.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("export request failed")
	}
	httputil.Error(w, appErr)
}
