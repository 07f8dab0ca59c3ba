package selection

import (
	"sort"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/lots"
)

// Claimed sums the quantity other lines already take from a lot.
// The line with excludeID is not counted.
func Claimed(lines []domain.SelectionLine, key domain.LotKey, excludeID string) int {
	total := 0
	for _, l := range lines {
		if l.LocalID == excludeID || !l.References() || l.Key() != key {
			continue
		}
		total += l.Quantity
	}
	return total
}

// AvailableQuantity is the lot quantity left for the line with excludeID
// after every sibling claim, never below zero. Pass an empty id to ask on
// behalf of a line that does not exist yet.
func AvailableQuantity(idx *lots.Index, lines []domain.SelectionLine, key domain.LotKey, excludeID string) int {
	qty, ok := idx.LookupKey(key)
	if !ok {
		return 0
	}
	left := qty - Claimed(lines, key, excludeID)
	if left < 0 {
		return 0
	}
	return left
}

// AvailableProducts lists products with at least one lot the line could still pick.
func AvailableProducts(idx *lots.Index, lines []domain.SelectionLine, lineID string) []string {
	self := findLine(lines, lineID)

	var out []string
	for _, product := range idx.Products() {
		if self != nil && self.ProductID == product {
			out = append(out, product)
			continue
		}
		for _, zone := range idx.Zones(product) {
			if len(selectableExpiries(idx, lines, product, zone, self)) > 0 {
				out = append(out, product)
				break
			}
		}
	}
	return out
}

// AvailableZones lists zones holding at least one lot of the product that is
// not fully claimed by other lines. The line's own zone always stays listed.
func AvailableZones(idx *lots.Index, lines []domain.SelectionLine, productID, lineID string) []string {
	self := findLine(lines, lineID)

	seen := make(map[string]bool)
	var out []string
	for _, zone := range idx.Zones(productID) {
		if len(selectableExpiries(idx, lines, productID, zone, self)) > 0 {
			seen[zone] = true
			out = append(out, zone)
		}
	}
	if self != nil && self.ProductID == productID && self.ZoneID != "" && !seen[self.ZoneID] {
		out = append(out, self.ZoneID)
		sort.Strings(out)
	}
	return out
}

// AvailableExpiries lists expiry days of the product in the zone that other
// lines have not fully claimed. The line's own expiry always stays listed.
func AvailableExpiries(idx *lots.Index, lines []domain.SelectionLine, productID, zoneID, lineID string) []domain.Date {
	self := findLine(lines, lineID)

	out := selectableExpiries(idx, lines, productID, zoneID, self)
	if self != nil && self.ProductID == productID && self.ZoneID == zoneID && !self.ExpiredAt.IsZero() {
		for _, d := range out {
			if d == self.ExpiredAt {
				return out
			}
		}
		out = append(out, self.ExpiredAt)
		sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	}
	return out
}

func selectableExpiries(idx *lots.Index, lines []domain.SelectionLine, productID, zoneID string, self *domain.SelectionLine) []domain.Date {
	var out []domain.Date
	for _, expiry := range idx.Expiries(productID, zoneID) {
		key := domain.LotKey{ProductID: productID, ZoneID: zoneID, Expiry: expiry}
		if selectable(idx, lines, key, self) {
			out = append(out, expiry)
		}
	}
	return out
}

// selectable reports whether self (nil for a line not yet added) may pick key.
// A lot held by a saved line is only reachable through that line.
func selectable(idx *lots.Index, lines []domain.SelectionLine, key domain.LotKey, self *domain.SelectionLine) bool {
	selfID := ""
	selfNew := true
	if self != nil {
		selfID = self.LocalID
		selfNew = self.IsNew
	}
	if selfNew && heldBySaved(lines, key, selfID) {
		return false
	}
	return AvailableQuantity(idx, lines, key, selfID) > 0
}

func heldBySaved(lines []domain.SelectionLine, key domain.LotKey, excludeID string) bool {
	for _, l := range lines {
		if l.LocalID != excludeID && !l.IsNew && l.References() && l.Key() == key {
			return true
		}
	}
	return false
}

func findLine(lines []domain.SelectionLine, id string) *domain.SelectionLine {
	if id == "" {
		return nil
	}
	for i := range lines {
		if lines[i].LocalID == id {
			return &lines[i]
		}
	}
	return nil
}
