package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
)

// Credentials carries the caller's bearer token to the warehouse API
type Credentials struct {
	Token string
}

// ID accepts both numeric and string ids from the warehouse API
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Ref is a nested {id, name} object
type Ref struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

// Product is a catalogue entry
type Product struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

// Zone is a storage area of one warehouse
type Zone struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	WarehouseID ID     `json:"warehouseId"`
}

// Customer is an export destination outside the company
type Customer struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Warehouse is a source or destination of stock
type Warehouse struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Description string `json:"description,omitempty"`
}

type inventoryRow struct {
	Product Ref `json:"product"`
	Zone    struct {
		ID          ID     `json:"id"`
		Name        string `json:"name"`
		WarehouseID ID     `json:"warehouseId"`
	} `json:"zone"`
	ExpiredAt domain.Date `json:"expiredAt"`
	Quantity  int         `json:"quantity"`
}

func (r inventoryRow) lot(warehouseID string) domain.InventoryLot {
	wid := r.Zone.WarehouseID.String()
	if wid == "" {
		wid = warehouseID
	}
	return domain.InventoryLot{
		ProductID:   r.Product.ID.String(),
		ProductName: r.Product.Name,
		ZoneID:      r.Zone.ID.String(),
		ZoneName:    r.Zone.Name,
		WarehouseID: wid,
		ExpiredAt:   r.ExpiredAt,
		Quantity:    r.Quantity,
	}
}

type exportRow struct {
	ID            ID                  `json:"id"`
	Description   string              `json:"description"`
	Status        domain.ExportStatus `json:"status"`
	ExportDate    string              `json:"exportDate"`
	ExportType    domain.ExportType   `json:"exportType"`
	Type          domain.ExportType   `json:"type"`
	WarehouseFrom *Ref                `json:"warehouseFrom"`
	WarehouseTo   *Ref                `json:"warehouseTo"`
	Customer      *Ref                `json:"customer"`
}

func (r exportRow) header() (domain.ExportHeader, error) {
	h := domain.ExportHeader{
		ID:          r.ID.String(),
		Description: r.Description,
		Status:      r.Status,
		Type:        r.ExportType,
	}
	if h.Type == "" {
		h.Type = r.Type
	}
	if r.ExportDate != "" {
		t, err := parseTimestamp(r.ExportDate)
		if err != nil {
			return domain.ExportHeader{}, err
		}
		h.ExportDate = t
	}
	if r.WarehouseFrom != nil {
		h.WarehouseIDFrom = r.WarehouseFrom.ID.String()
	}
	if r.WarehouseTo != nil {
		h.WarehouseIDTo = r.WarehouseTo.ID.String()
	}
	if r.Customer != nil {
		h.CustomerID = r.Customer.ID.String()
	}
	return h, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

type createExportRequest struct {
	Description     string              `json:"description"`
	Status          domain.ExportStatus `json:"status"`
	ExportDate      string              `json:"exportDate,omitempty"`
	ExportType      domain.ExportType   `json:"exportType"`
	WarehouseIDFrom string              `json:"warehouseIdFrom"`
	WarehouseIDTo   *string             `json:"warehouseIdTo"`
	CustomerID      *string             `json:"customerId"`
}

type updateExportRequest struct {
	Description   string            `json:"description"`
	Type          domain.ExportType `json:"type"`
	ExportDate    *string           `json:"exportDate"`
	WarehouseIDTo *string           `json:"warehouseIdTo"`
	CustomerID    *string           `json:"customerId"`
}

type detailRow struct {
	ID        ID          `json:"id"`
	Product   Ref         `json:"product"`
	Zone      Ref         `json:"zone"`
	ExpiredAt domain.Date `json:"expiredAt"`
	Quantity  int         `json:"quantity"`
}

func (r detailRow) line() domain.SelectionLine {
	return domain.SelectionLine{
		LocalID:   r.ID.String(),
		ProductID: r.Product.ID.String(),
		ZoneID:    r.Zone.ID.String(),
		ExpiredAt: r.ExpiredAt,
		Quantity:  r.Quantity,
	}
}

type detailRequest struct {
	ProductID string `json:"productId"`
	ExportID  string `json:"exportId"`
	Quantity  int    `json:"quantity"`
	ExpiredAt string `json:"expiredAt"`
	ZoneID    string `json:"zoneId"`
}

// ListQuery filters the export listing of a warehouse
type ListQuery struct {
	PageNo    int
	SortBy    string
	Direction string
	Status    string
	Search    string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
