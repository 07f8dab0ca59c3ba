// Package client calls the warehouse REST API that owns exports, export
// details and inventory. Every call carries the caller's own bearer token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// RemoteError is a failed warehouse API call. StatusCode is 0 when no
// response was received.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v: %s", e.Op, domain.ErrRemoteRequestFailed, msg)
	}
	return fmt.Sprintf("%s: %v (status %d): %s", e.Op, domain.ErrRemoteRequestFailed, e.StatusCode, msg)
}

func (e *RemoteError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrRemoteRequestFailed, e.Err}
	}
	return []error{domain.ErrRemoteRequestFailed}
}

// NotFound reports whether the remote resource does not exist
func (e *RemoteError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Client is the warehouse API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a warehouse API client. baseURL includes the API prefix,
// e.g. http://warehouse:8080/api/v1.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithComponent("warehouse-client"),
	}
}

// FetchInventory returns the inventory rows of one warehouse
func (c *Client) FetchInventory(ctx context.Context, cred Credentials, warehouseID string) ([]domain.InventoryLot, error) {
	var rows []inventoryRow
	q := url.Values{"warehouseId": {warehouseID}}
	if err := c.do(ctx, cred, "fetch inventory", http.MethodGet, "/inventories", q, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]domain.InventoryLot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.lot(warehouseID))
	}
	return out, nil
}

func (c *Client) FetchProducts(ctx context.Context, cred Credentials) ([]Product, error) {
	var out []Product
	err := c.do(ctx, cred, "fetch products", http.MethodGet, "/products", nil, nil, &out)
	return out, err
}

func (c *Client) FetchZones(ctx context.Context, cred Credentials) ([]Zone, error) {
	var out []Zone
	err := c.do(ctx, cred, "fetch zones", http.MethodGet, "/zones", nil, nil, &out)
	return out, err
}

func (c *Client) FetchCustomers(ctx context.Context, cred Credentials) ([]Customer, error) {
	var out []Customer
	err := c.do(ctx, cred, "fetch customers", http.MethodGet, "/customers", nil, nil, &out)
	return out, err
}

func (c *Client) FetchWarehouses(ctx context.Context, cred Credentials) ([]Warehouse, error) {
	var out []Warehouse
	err := c.do(ctx, cred, "fetch warehouses", http.MethodGet, "/warehouses", nil, nil, &out)
	return out, err
}

// CreateExport persists a header and returns its id
func (c *Client) CreateExport(ctx context.Context, cred Credentials, h domain.ExportHeader) (string, error) {
	h = h.Normalize()
	req := createExportRequest{
		Description:     h.Description,
		Status:          h.Status,
		ExportType:      h.Type,
		WarehouseIDFrom: h.WarehouseIDFrom,
		WarehouseIDTo:   optional(h.WarehouseIDTo),
		CustomerID:      optional(h.CustomerID),
	}
	if !h.ExportDate.IsZero() {
		req.ExportDate = h.ExportDate.UTC().Format(time.RFC3339)
	}

	var created struct {
		ID ID `json:"id"`
	}
	if err := c.do(ctx, cred, "create export", http.MethodPost, "/exports", nil, req, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &RemoteError{Op: "create export", StatusCode: http.StatusOK, Message: "response carries no export id"}
	}

	c.logger.Info().Str("export_id", created.ID.String()).Str("type", string(h.Type)).Msg("export header created")
	return created.ID.String(), nil
}

// GetExport loads one export header
func (c *Client) GetExport(ctx context.Context, cred Credentials, exportID string) (domain.ExportHeader, error) {
	var row exportRow
	if err := c.do(ctx, cred, "get export", http.MethodGet, "/exports/"+url.PathEscape(exportID), nil, nil, &row); err != nil {
		return domain.ExportHeader{}, err
	}
	h, err := row.header()
	if err != nil {
		return domain.ExportHeader{}, &RemoteError{Op: "get export", StatusCode: http.StatusOK, Message: err.Error()}
	}
	if h.ID == "" {
		h.ID = exportID
	}
	return h, nil
}

// UpdateExport replaces the editable header fields. Only the destination
// matching the type is sent.
func (c *Client) UpdateExport(ctx context.Context, cred Credentials, exportID string, h domain.ExportHeader) error {
	h = h.Normalize()
	req := updateExportRequest{
		Description: h.Description,
		Type:        h.Type,
	}
	if !h.ExportDate.IsZero() {
		req.ExportDate = optional(h.ExportDate.UTC().Format(time.RFC3339))
	}
	if h.Type == domain.ExportTypeWarehouse {
		req.WarehouseIDTo = optional(h.WarehouseIDTo)
	} else {
		req.CustomerID = optional(h.CustomerID)
	}
	return c.do(ctx, cred, "update export", http.MethodPut, "/exports/"+url.PathEscape(exportID), nil, req, nil)
}

// DeleteExport removes a header. Its details must be deleted first.
func (c *Client) DeleteExport(ctx context.Context, cred Credentials, exportID string) error {
	return c.do(ctx, cred, "delete export", http.MethodDelete, "/exports/"+url.PathEscape(exportID), nil, nil, nil)
}

// ListExportsByWarehouse proxies the paged export listing unchanged
func (c *Client) ListExportsByWarehouse(ctx context.Context, cred Credentials, warehouseID string, q ListQuery) (json.RawMessage, error) {
	params := url.Values{}
	if q.PageNo > 0 {
		params.Set("pageNo", strconv.Itoa(q.PageNo))
	}
	setIf(params, "sortBy", q.SortBy)
	setIf(params, "direction", q.Direction)
	setIf(params, "status", q.Status)
	setIf(params, "search", q.Search)

	var out json.RawMessage
	err := c.do(ctx, cred, "list exports", http.MethodGet, "/exports/by-warehouse/"+url.PathEscape(warehouseID), params, nil, &out)
	return out, err
}

// CountExportsByWarehouse returns how many exports match status and search
func (c *Client) CountExportsByWarehouse(ctx context.Context, cred Credentials, warehouseID, status, search string) (int, error) {
	params := url.Values{}
	setIf(params, "status", status)
	setIf(params, "search", search)

	var n json.Number
	if err := c.do(ctx, cred, "count exports", http.MethodGet, "/exports/by-warehouse/total/"+url.PathEscape(warehouseID), params, nil, &n); err != nil {
		return 0, err
	}
	total, err := n.Int64()
	if err != nil {
		return 0, &RemoteError{Op: "count exports", StatusCode: http.StatusOK, Message: "total is not a number"}
	}
	return int(total), nil
}

// FetchExportDetails returns the saved lines of an export
func (c *Client) FetchExportDetails(ctx context.Context, cred Credentials, exportID string) ([]domain.SelectionLine, error) {
	var rows []detailRow
	if err := c.do(ctx, cred, "fetch export details", http.MethodGet, "/export-details/export/"+url.PathEscape(exportID), nil, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.SelectionLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.line())
	}
	return out, nil
}

// CreateExportDetails creates lines under exportID in one request
func (c *Client) CreateExportDetails(ctx context.Context, cred Credentials, exportID string, lines []domain.SelectionLine) error {
	req := make([]detailRequest, 0, len(lines))
	for _, l := range lines {
		req = append(req, detailRequest{
			ProductID: l.ProductID,
			ExportID:  exportID,
			Quantity:  l.Quantity,
			ExpiredAt: l.ExpiredAt.RFC3339(),
			ZoneID:    l.ZoneID,
		})
	}
	return c.do(ctx, cred, "create export details", http.MethodPost, "/export-details", nil, req, nil)
}

// UpdateExportDetails changes the quantity of saved lines
func (c *Client) UpdateExportDetails(ctx context.Context, cred Credentials, updates []domain.QuantityUpdate) error {
	return c.do(ctx, cred, "update export details", http.MethodPut, "/export-details", nil, updates, nil)
}

// DeleteExportDetails removes saved lines by id
func (c *Client) DeleteExportDetails(ctx context.Context, cred Credentials, ids []string) error {
	return c.do(ctx, cred, "delete export details", http.MethodDelete, "/export-details", nil, ids, nil)
}

func (c *Client) do(ctx context.Context, cred Credentials, op, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	c.logger.Debug().Str("op", op).Str("method", method).Str("path", path).Msg("calling warehouse API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("warehouse API unreachable")
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
		c.logger.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("message", rerr.Message).
			Msg("warehouse API request failed")
		return rerr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	// Responses are wrapped in {"data": ...}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	return nil
}

func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil {
		if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 200 {
			return s
		}
		return fallback
	}
	if body.Message != "" {
		return body.Message
	}
	var s string
	if json.Unmarshal(body.Error, &s) == nil && s != "" {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
		return nested.Message
	}
	return fallback
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
