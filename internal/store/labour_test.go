package store

import (
	"testing"

	"github.com/dukerupert/nacp/internal/model"
)

func TestLabourResponsesUpsert(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLabourStore(db)
	h := createHolder(t, db, "farmer")

	responses := []model.LabourResponse{
		{QuestionNo: 2, QuestionText: "Permanent workers", Male: ptr(2), Female: ptr(1), Total: ptr(3)},
		{QuestionNo: 5, QuestionText: "Work permits", OptionResponse: ptr("No")},
	}
	saved, err := ls.SaveResponses(h.ID, responses)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved = %d, want 2", len(saved))
	}
	if *saved[0].Total != 3 || saved[0].OptionResponse != nil {
		t.Errorf("q2 = %+v", saved[0])
	}
	if saved[1].Male != nil || *saved[1].OptionResponse != "No" {
		t.Errorf("q5 = %+v", saved[1])
	}

	responses[0].Male = ptr(5)
	responses[0].Total = ptr(6)
	saved, _ = ls.SaveResponses(h.ID, responses[:1])
	if len(saved) != 2 || *saved[0].Total != 6 {
		t.Errorf("after upsert = %+v", saved)
	}
}

func TestReplacePermanentWorkers(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLabourStore(db)
	h := createHolder(t, db, "farmer")

	w := model.PermanentWorker{PositionTitle: 2, Sex: "M", AgeGroup: 3, Nationality: "B", EducationLevel: 4, AgriTraining: "Y", MainDuties: 3, WorkingTime: "F"}
	if _, err := ls.ReplacePermanentWorkers(h.ID, []model.PermanentWorker{w, w, w}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := ls.ReplacePermanentWorkers(h.ID, []model.PermanentWorker{w})
	if err != nil {
		t.Fatalf("replace again: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("workers = %d, want 1", len(got))
	}
	if got[0].HolderID != h.ID || got[0].WorkingTime != "F" {
		t.Errorf("worker = %+v", got[0])
	}
}
