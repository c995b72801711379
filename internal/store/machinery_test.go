package store

import (
	"testing"

	"github.com/dukerupert/nacp/internal/model"
)

func TestMachineryReplace(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMachineryStore(db)
	h := createHolder(t, db, "farmer")

	items := []model.MachineryItem{
		{EquipmentName: "Sprayers and dusters", HasItem: "Y", QuantityNew: 1, QuantityUsed: 2, Source: "O"},
		{EquipmentName: "Trucks (including pickups)", HasItem: "N"},
	}
	got, err := ms.Replace(h.ID, items)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(got) != 2 || got[0].QuantityUsed != 2 {
		t.Errorf("items = %+v", got)
	}

	got, _ = ms.Replace(h.ID, items[:1])
	if len(got) != 1 {
		t.Errorf("items = %d, want 1", len(got))
	}

	items[0].QuantityNew = 21
	if _, err := ms.Replace(h.ID, items); err == nil {
		t.Error("expected quantity check error")
	}
	kept, _ := ms.List(h.ID)
	if len(kept) != 1 {
		t.Errorf("failed replace should roll back, have %d rows", len(kept))
	}
}
