// Package lots indexes a point-in-time inventory snapshot of one warehouse
// by product, zone and expiry day.
package lots

import (
	"sort"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
)

// Index maps product -> zone -> expiry -> quantity. It is read-only once built.
type Index struct {
	warehouseID string
	byProduct   map[string]map[string]map[domain.Date]int
}

// Build indexes the lots of warehouseID that still hold stock.
// Rows sharing an identity are summed.
func Build(all []domain.InventoryLot, warehouseID string) *Index {
	idx := &Index{
		warehouseID: warehouseID,
		byProduct:   make(map[string]map[string]map[domain.Date]int),
	}

	for _, lot := range all {
		if lot.WarehouseID != warehouseID || lot.Quantity <= 0 {
			continue
		}
		if lot.ProductID == "" || lot.ZoneID == "" || lot.ExpiredAt.IsZero() {
			continue
		}
		idx.add(lot.Key(), lot.Quantity)
	}

	return idx
}

func (idx *Index) add(key domain.LotKey, qty int) {
	zones, ok := idx.byProduct[key.ProductID]
	if !ok {
		zones = make(map[string]map[domain.Date]int)
		idx.byProduct[key.ProductID] = zones
	}
	expiries, ok := zones[key.ZoneID]
	if !ok {
		expiries = make(map[domain.Date]int)
		zones[key.ZoneID] = expiries
	}
	expiries[key.Expiry] += qty
}

// Credit returns a copy of the index with the quantities of saved lines added
// back. The warehouse API has already deducted them from inventory, so an
// edit session may reuse that stock.
func (idx *Index) Credit(saved []domain.SelectionLine) *Index {
	out := &Index{
		warehouseID: idx.warehouseID,
		byProduct:   make(map[string]map[string]map[domain.Date]int, len(idx.byProduct)),
	}
	for product, zones := range idx.byProduct {
		for zone, expiries := range zones {
			for expiry, qty := range expiries {
				out.add(domain.LotKey{ProductID: product, ZoneID: zone, Expiry: expiry}, qty)
			}
		}
	}
	for _, line := range saved {
		if line.References() && line.Quantity > 0 {
			out.add(line.Key(), line.Quantity)
		}
	}
	return out
}

// WarehouseID returns the warehouse the index was built for
func (idx *Index) WarehouseID() string {
	return idx.warehouseID
}

// Lookup returns the quantity of a lot; ok is false when the lot is unknown.
func (idx *Index) Lookup(productID, zoneID string, expiry domain.Date) (qty int, ok bool) {
	qty, ok = idx.byProduct[productID][zoneID][expiry]
	return qty, ok
}

// LookupKey is Lookup by lot identity
func (idx *Index) LookupKey(key domain.LotKey) (int, bool) {
	return idx.Lookup(key.ProductID, key.ZoneID, key.Expiry)
}

// Products lists products with stock, sorted
func (idx *Index) Products() []string {
	out := make([]string, 0, len(idx.byProduct))
	for product := range idx.byProduct {
		out = append(out, product)
	}
	sort.Strings(out)
	return out
}

// Zones lists the zones holding a product, sorted
func (idx *Index) Zones(productID string) []string {
	zones := idx.byProduct[productID]
	out := make([]string, 0, len(zones))
	for zone := range zones {
		out = append(out, zone)
	}
	sort.Strings(out)
	return out
}

// Expiries lists the expiry days of a product in a zone, earliest first
func (idx *Index) Expiries(productID, zoneID string) []domain.Date {
	expiries := idx.byProduct[productID][zoneID]
	out := make([]domain.Date, 0, len(expiries))
	for expiry := range expiries {
		out = append(out, expiry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Lots returns every lot of a product ordered by expiry, then zone.
func (idx *Index) Lots(productID string) []domain.InventoryLot {
	var out []domain.InventoryLot
	for zone, expiries := range idx.byProduct[productID] {
		for expiry, qty := range expiries {
			out = append(out, domain.InventoryLot{
				ProductID:   productID,
				ZoneID:      zone,
				WarehouseID: idx.warehouseID,
				ExpiredAt:   expiry,
				Quantity:    qty,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiredAt != out[j].ExpiredAt {
			return out[i].ExpiredAt.Before(out[j].ExpiredAt)
		}
		return out[i].ZoneID < out[j].ZoneID
	})
	return out
}

// Total returns the stock of a product across all zones and expiries
func (idx *Index) Total(productID string) int {
	total := 0
	for _, expiries := range idx.byProduct[productID] {
		for _, qty := range expiries {
			total += qty
		}
	}
	return total
}
