package lots_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/lots"
)

func lot(product, zone string, expiry domain.Date, qty int) domain.InventoryLot {
	return domain.InventoryLot{ProductID: product, ZoneID: zone, WarehouseID: "w1", ExpiredAt: expiry, Quantity: qty}
}

func TestBuild_FiltersWarehouseAndEmptyLots(t *testing.T) {
	other := lot("p1", "z9", "2025-01-01", 50)
	other.WarehouseID = "w2"

	idx := lots.Build([]domain.InventoryLot{
		lot("p1", "z1", "2025-03-01", 10),
		lot("p1", "z1", "2025-04-01", 0),
		lot("p1", "z2", "2025-02-01", -3),
		lot("p2", "z1", "", 5),
		other,
	}, "w1")

	qty, ok := idx.Lookup("p1", "z1", "2025-03-01")
	require.True(t, ok)
	assert.Equal(t, 10, qty)

	_, ok = idx.Lookup("p1", "z1", "2025-04-01")
	assert.False(t, ok, "zero quantity lots are excluded")
	_, ok = idx.Lookup("p1", "z2", "2025-02-01")
	assert.False(t, ok, "negative quantity lots are excluded")
	_, ok = idx.Lookup("p1", "z9", "2025-01-01")
	assert.False(t, ok, "other warehouses are excluded")

	assert.Equal(t, []string{"p1"}, idx.Products())
	assert.Equal(t, "w1", idx.WarehouseID())
}

func TestBuild_SumsDuplicateIdentities(t *testing.T) {
	idx := lots.Build([]domain.InventoryLot{
		lot("p1", "z1", "2025-03-01", 4),
		lot("p1", "z1", "2025-03-01", 6),
	}, "w1")

	qty, _ := idx.Lookup("p1", "z1", "2025-03-01")
	assert.Equal(t, 10, qty)
	assert.Equal(t, 10, idx.Total("p1"))
}

func TestIndex_SortedAccessors(t *testing.T) {
	idx := lots.Build([]domain.InventoryLot{
		lot("p1", "z2", "2025-05-01", 1),
		lot("p1", "z1", "2025-06-01", 1),
		lot("p1", "z1", "2025-03-01", 1),
		lot("p1", "z3", "2025-03-01", 1),
	}, "w1")

	assert.Equal(t, []string{"z1", "z2", "z3"}, idx.Zones("p1"))
	assert.Equal(t, []domain.Date{"2025-03-01", "2025-06-01"}, idx.Expiries("p1", "z1"))
	assert.Empty(t, idx.Zones("unknown"))

	ordered := idx.Lots("p1")
	require.Len(t, ordered, 4)
	assert.Equal(t, domain.LotKey{ProductID: "p1", ZoneID: "z1", Expiry: "2025-03-01"}, ordered[0].Key())
	assert.Equal(t, domain.LotKey{ProductID: "p1", ZoneID: "z3", Expiry: "2025-03-01"}, ordered[1].Key())
	assert.Equal(t, domain.Date("2025-05-01"), ordered[2].ExpiredAt)
	assert.Equal(t, domain.Date("2025-06-01"), ordered[3].ExpiredAt)
}

func TestIndex_Credit(t *testing.T) {
	base := lots.Build([]domain.InventoryLot{lot("p1", "z1", "2025-03-01", 2)}, "w1")

	credited := base.Credit([]domain.SelectionLine{
		{LocalID: "d1", ProductID: "p1", ZoneID: "z1", ExpiredAt: "2025-03-01", Quantity: 5},
		{LocalID: "d2", ProductID: "p1", ZoneID: "z2", ExpiredAt: "2025-04-01", Quantity: 3},
		{LocalID: "d3", ProductID: "p1", Quantity: 9},
	})

	qty, _ := credited.Lookup("p1", "z1", "2025-03-01")
	assert.Equal(t, 7, qty)

	qty, ok := credited.Lookup("p1", "z2", "2025-04-01")
	assert.True(t, ok, "a lot fully consumed by the saved export reappears")
	assert.Equal(t, 3, qty)

	qty, _ = base.Lookup("p1", "z1", "2025-03-01")
	assert.Equal(t, 2, qty, "credit does not mutate the source index")
}
