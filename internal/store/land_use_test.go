package store

import (
	"testing"

	"github.com/dukerupert/nacp/internal/model"
)

func sampleLandUse(area float64, location string) model.LandUse {
	return model.LandUse{
		TotalAreaAcres: area, YearsAgriculture: 12, MainPurpose: "For Sale Only/Commercial",
		NumParcels: 2, Location: location, CropMethods: []string{"Open Field", "Greenhouse"},
		Parcels: []model.Parcel{
			{ParcelNo: 1, TotalAcres: area / 2, DevelopedAcres: 1, Tenure: "privately_owned", UseOfLand: "temporary_crops", LandClearing: "hand_clearing"},
			{ParcelNo: 2, TotalAcres: area / 2, DevelopedAcres: 0, Tenure: "borrowed", UseOfLand: "wetland", LandClearing: "regenerative"},
		},
	}
}

func TestLandUseCreateUpdate(t *testing.T) {
	ls := NewLandUseStore(setupTestDB(t))

	created, err := ls.Create(sampleLandUse(10, "North Andros"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.Parcels) != 2 || created.Parcels[1].Tenure != "borrowed" {
		t.Errorf("parcels = %+v", created.Parcels)
	}
	if len(created.CropMethods) != 2 {
		t.Errorf("crop methods = %v", created.CropMethods)
	}

	upd := sampleLandUse(20, "Central Andros")
	upd.Parcels = upd.Parcels[:1]
	upd.NumParcels = 1
	updated, err := ls.Update(created.ID, upd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalAreaAcres != 20 || updated.Location != "Central Andros" {
		t.Errorf("updated = %+v", updated)
	}
	if len(updated.Parcels) != 1 {
		t.Errorf("parcels = %d, want 1", len(updated.Parcels))
	}
}

func TestLandUseFilterAndStats(t *testing.T) {
	ls := NewLandUseStore(setupTestDB(t))
	a, _ := ls.Create(sampleLandUse(10, "North Andros"))
	ls.Create(sampleLandUse(30, "Exuma Cays"))

	byLoc, err := ls.List(LandUseFilter{Location: "andros"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byLoc) != 1 || byLoc[0].ID != a.ID {
		t.Errorf("by location = %+v", byLoc)
	}

	byID, _ := ls.List(LandUseFilter{ID: a.ID})
	if len(byID) != 1 {
		t.Errorf("by id = %d, want 1", len(byID))
	}

	st, err := ls.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Count != 2 || st.TotalArea != 40 || st.MaxArea != 30 || st.MinArea != 10 || st.AverageParcels != 2 {
		t.Errorf("stats = %+v", st)
	}

	if err := ls.Delete(a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := ls.GetByID(a.ID); got != nil {
		t.Error("expected deleted")
	}
}

func TestLandUseRejectsNonPositiveArea(t *testing.T) {
	ls := NewLandUseStore(setupTestDB(t))
	if _, err := ls.Create(sampleLandUse(0, "Nowhere")); err == nil {
		t.Error("expected check constraint error")
	}
}
