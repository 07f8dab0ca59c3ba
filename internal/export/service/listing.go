package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wareflow/wareflow-backend/internal/export/client"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
)

// ListExports proxies the export listing of a warehouse
func (s *ExportService) ListExports(ctx context.Context, actor Actor, warehouseID string, q client.ListQuery) (json.RawMessage, error) {
	if err := s.checkWarehouse(actor, warehouseID); err != nil {
		return nil, err
	}
	if q.PageNo < 1 {
		q.PageNo = 1
	}
	return s.api.ListExportsByWarehouse(ctx, actor.Credentials, warehouseID, q)
}

// CountExports proxies the export count of a warehouse
func (s *ExportService) CountExports(ctx context.Context, actor Actor, warehouseID, status, search string) (int, error) {
	if err := s.checkWarehouse(actor, warehouseID); err != nil {
		return 0, err
	}
	return s.api.CountExportsByWarehouse(ctx, actor.Credentials, warehouseID, status, search)
}

// IncompleteSubmissions lists journal entries of exports left without all
// of their lines. An empty warehouseID means the caller's own warehouse.
func (s *ExportService) IncompleteSubmissions(ctx context.Context, actor Actor, warehouseID string, limit int) ([]repository.Submission, error) {
	if warehouseID == "" {
		warehouseID = actor.WarehouseID
	}
	if err := s.checkWarehouse(actor, warehouseID); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []repository.Submission{}, nil
	}
	subs, err := s.journal.ListIncomplete(ctx, warehouseID, limit)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []repository.Submission{}
	}
	return subs, nil
}

// SubmissionHistory returns every journaled attempt against a saved export
func (s *ExportService) SubmissionHistory(ctx context.Context, actor Actor, exportID string) ([]repository.Submission, error) {
	header, err := s.api.GetExport(ctx, actor.Credentials, exportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load export: %w", err)
	}
	if header.WarehouseIDFrom != "" {
		if err := s.checkWarehouse(actor, header.WarehouseIDFrom); err != nil {
			return nil, ErrForeignExport
		}
	}

	if s.journal == nil {
		return []repository.Submission{}, nil
	}
	subs, err := s.journal.ListByExport(ctx, exportID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []repository.Submission{}
	}
	return subs, nil
}

// ReferenceData holds the lookup lists the header form offers
type ReferenceData struct {
	Products   []client.Product   `json:"products"`
	Zones      []client.Zone      `json:"zones"`
	Customers  []client.Customer  `json:"customers"`
	Warehouses []client.Warehouse `json:"warehouses"`
}

// Reference loads products, the caller's zones, customers and the
// warehouses stock can be sent to. The caller's own warehouse is left out.
func (s *ExportService) Reference(ctx context.Context, actor Actor) (*ReferenceData, error) {
	products, err := s.api.FetchProducts(ctx, actor.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	zones, err := s.api.FetchZones(ctx, actor.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	customers, err := s.api.FetchCustomers(ctx, actor.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	warehouses, err := s.api.FetchWarehouses(ctx, actor.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouses: %w", err)
	}

	ref := &ReferenceData{
		Products:   products,
		Zones:      make([]client.Zone, 0, len(zones)),
		Customers:  customers,
		Warehouses: make([]client.Warehouse, 0, len(warehouses)),
	}
	for _, z := range zones {
		if actor.WarehouseID == "" || z.WarehouseID == "" || z.WarehouseID.String() == actor.WarehouseID {
			ref.Zones = append(ref.Zones, z)
		}
	}
	for _, w := range warehouses {
		if w.ID.String() != actor.WarehouseID {
			ref.Warehouses = append(ref.Warehouses, w)
		}
	}
	if ref.Products == nil {
		ref.Products = []client.Product{}
	}
	if ref.Customers == nil {
		ref.Customers = []client.Customer{}
	}
	return ref, nil
}
