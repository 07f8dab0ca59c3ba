package domain

import (
	"time"
)

// ExportType is where exported stock goes
type ExportType string

const (
	ExportTypeCustomer  ExportType = "CUSTOMER"
	ExportTypeWarehouse ExportType = "WAREHOUSE"
	ExportTypeWaste     ExportType = "WASTE"
)

// Valid reports whether t is a known export type
func (t ExportType) Valid() bool {
	switch t {
	case ExportTypeCustomer, ExportTypeWarehouse, ExportTypeWaste:
		return true
	}
	return false
}

// ExportStatus is owned by the warehouse API; new exports start as PENDING
type ExportStatus string

const StatusPending ExportStatus = "PENDING"

// InventoryLot is a quantity of one product in one zone with one expiry date
type InventoryLot struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	ZoneID      string `json:"zone_id"`
	ZoneName    string `json:"zone_name,omitempty"`
	WarehouseID string `json:"warehouse_id"`
	ExpiredAt   Date   `json:"expired_at"`
	Quantity    int    `json:"quantity"`
}

// Key returns the lot identity
func (l InventoryLot) Key() LotKey {
	return LotKey{ProductID: l.ProductID, ZoneID: l.ZoneID, Expiry: l.ExpiredAt}
}

// LotKey identifies a lot by product, zone and expiry day
type LotKey struct {
	ProductID string
	ZoneID    string
	Expiry    Date
}

// SelectionLine is one product/zone/expiry/quantity row of an export being built.
// LocalID is the server detail id for saved lines and a generated id for new ones.
type SelectionLine struct {
	LocalID   string `json:"local_id"`
	ProductID string `json:"product_id,omitempty"`
	ZoneID    string `json:"zone_id,omitempty"`
	ExpiredAt Date   `json:"expired_at,omitempty"`
	Quantity  int    `json:"quantity"`
	IsNew     bool   `json:"is_new"`
	IsDirty   bool   `json:"is_dirty"`
}

// Key returns the lot this line draws from
func (l SelectionLine) Key() LotKey {
	return LotKey{ProductID: l.ProductID, ZoneID: l.ZoneID, Expiry: l.ExpiredAt}
}

// References reports whether the line points at a fully identified lot
func (l SelectionLine) References() bool {
	return l.ProductID != "" && l.ZoneID != "" && !l.ExpiredAt.IsZero()
}

// Complete reports whether every field required for submission is set
func (l SelectionLine) Complete() bool {
	return l.References() && l.Quantity > 0
}

// ExportHeader is the metadata of an export
type ExportHeader struct {
	ID              string       `json:"id,omitempty"`
	Description     string       `json:"description" validate:"required,max=500"`
	Type            ExportType   `json:"type" validate:"required,oneof=CUSTOMER WAREHOUSE WASTE"`
	ExportDate      time.Time    `json:"export_date"`
	Status          ExportStatus `json:"status,omitempty"`
	WarehouseIDFrom string       `json:"warehouse_id_from" validate:"required"`
	WarehouseIDTo   string       `json:"warehouse_id_to,omitempty" validate:"required_if=Type WAREHOUSE"`
	CustomerID      string       `json:"customer_id,omitempty" validate:"required_if=Type CUSTOMER"`
}

// Normalize keeps only the destination the type calls for and defaults the status.
func (h ExportHeader) Normalize() ExportHeader {
	switch h.Type {
	case ExportTypeWarehouse:
		h.CustomerID = ""
	case ExportTypeCustomer:
		h.WarehouseIDTo = ""
	case ExportTypeWaste:
		h.CustomerID = ""
		h.WarehouseIDTo = ""
	}
	if h.Status == "" {
		h.Status = StatusPending
	}
	return h
}

// Equal reports whether two headers would produce the same update payload
func (h ExportHeader) Equal(o ExportHeader) bool {
	a, b := h.Normalize(), o.Normalize()
	return a.Description == b.Description &&
		a.Type == b.Type &&
		a.ExportDate.Equal(b.ExportDate) &&
		a.WarehouseIDTo == b.WarehouseIDTo &&
		a.CustomerID == b.CustomerID
}

// QuantityUpdate changes the quantity of a saved line
type QuantityUpdate struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// DiffResult is what must be sent to bring the server in line with local edits
type DiffResult struct {
	ToCreate []SelectionLine  `json:"to_create"`
	ToUpdate []QuantityUpdate `json:"to_update"`
	ToDelete []string         `json:"to_delete"`
}

// Empty reports whether nothing needs to be sent
func (d DiffResult) Empty() bool {
	return len(d.ToCreate) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

// SummaryRow is one product/expiry group of the review summary
type SummaryRow struct {
	ProductID string `json:"product_id"`
	ExpiredAt Date   `json:"expired_at"`
	Quantity  int    `json:"quantity"`
	Lines     int    `json:"lines"`
}
