package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// DefaultWarehouseID is the acting warehouse of fixtures
const DefaultWarehouseID = "wh-1"

// Lot creates an inventory lot fixture in DefaultWarehouseID
func (f *FixtureFactory) Lot(opts ...func(*domain.InventoryLot)) domain.InventoryLot {
	seq := f.nextSeq()
	lot := domain.InventoryLot{
		ProductID:   fmt.Sprintf("prod-%d", seq),
		ProductName: fmt.Sprintf("Product %d", seq),
		ZoneID:      "zone-a",
		ZoneName:    "Zone A",
		WarehouseID: DefaultWarehouseID,
		ExpiredAt:   domain.DateOf(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, seq)),
		Quantity:    10,
	}
	for _, opt := range opts {
		opt(&lot)
	}
	return lot
}

// WithLot sets product, zone and expiry of a lot fixture
func WithLot(productID, zoneID string, expiry domain.Date) func(*domain.InventoryLot) {
	return func(l *domain.InventoryLot) {
		l.ProductID = productID
		l.ZoneID = zoneID
		l.ExpiredAt = expiry
	}
}

// WithQuantity sets the quantity of a lot fixture
func WithQuantity(qty int) func(*domain.InventoryLot) {
	return func(l *domain.InventoryLot) {
		l.Quantity = qty
	}
}

// WithWarehouse moves a lot fixture to another warehouse
func WithWarehouse(warehouseID string) func(*domain.InventoryLot) {
	return func(l *domain.InventoryLot) {
		l.WarehouseID = warehouseID
	}
}

// SavedLine creates a line as loaded from the warehouse API for lot
func (f *FixtureFactory) SavedLine(lot domain.InventoryLot, qty int) domain.SelectionLine {
	return domain.SelectionLine{
		LocalID:   fmt.Sprintf("detail-%d", f.nextSeq()),
		ProductID: lot.ProductID,
		ZoneID:    lot.ZoneID,
		ExpiredAt: lot.ExpiredAt,
		Quantity:  qty,
	}
}

// NewLine creates an unsaved line drawing qty from lot
func (f *FixtureFactory) NewLine(lot domain.InventoryLot, qty int) domain.SelectionLine {
	return domain.SelectionLine{
		LocalID:   uuid.New().String(),
		ProductID: lot.ProductID,
		ZoneID:    lot.ZoneID,
		ExpiredAt: lot.ExpiredAt,
		Quantity:  qty,
		IsNew:     true,
	}
}

// Header creates a valid CUSTOMER export header leaving DefaultWarehouseID
func (f *FixtureFactory) Header(opts ...func(*domain.ExportHeader)) domain.ExportHeader {
	seq := f.nextSeq()
	h := domain.ExportHeader{
		Description:     fmt.Sprintf("Export %d", seq),
		Type:            domain.ExportTypeCustomer,
		ExportDate:      time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:          domain.StatusPending,
		WarehouseIDFrom: DefaultWarehouseID,
		CustomerID:      fmt.Sprintf("cust-%d", seq),
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// ToWarehouse turns a header fixture into a WAREHOUSE export
func ToWarehouse(warehouseID string) func(*domain.ExportHeader) {
	return func(h *domain.ExportHeader) {
		h.Type = domain.ExportTypeWarehouse
		h.WarehouseIDTo = warehouseID
		h.CustomerID = ""
	}
}

// AsWaste turns a header fixture into a WASTE export
func AsWaste() func(*domain.ExportHeader) {
	return func(h *domain.ExportHeader) {
		h.Type = domain.ExportTypeWaste
		h.CustomerID = ""
		h.WarehouseIDTo = ""
	}
}
