package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *SqliteStorage {
	t.Helper()
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSaveAndGetRequest(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	record := RequestRecord{
		RequestID:  "req-1",
		Query:      "book a flight",
		Strategy:   "deterministic_top1",
		Status:     StatusPlanned,
		Steps:      1,
		Candidates: 4,
		Plan:       json.RawMessage(`{"steps":[]}`),
		Timings:    map[string]float64{"retrieval": 1.5, "plan": 0.2},
		CreatedAt:  time.UnixMilli(1700000000000),
	}
	if err := storage.SaveRequest(ctx, record); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}

	got, err := storage.GetRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Query != "book a flight" || got.Steps != 1 || got.Candidates != 4 {
		t.Errorf("unexpected record: %+v", got)
	}
	if string(got.Plan) != `{"steps":[]}` {
		t.Errorf("plan = %s", got.Plan)
	}
	if got.Execution != nil {
		t.Errorf("expected no execution, got %s", got.Execution)
	}
	if got.Timings["retrieval"] != 1.5 {
		t.Errorf("timings = %v", got.Timings)
	}
	if !got.CreatedAt.Equal(record.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, record.CreatedAt)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	storage := newTestStorage(t)
	got, err := storage.GetRequest(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestSaveRequestGeneratesID(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	if err := storage.SaveRequest(ctx, RequestRecord{Query: "q", Status: StatusFailed, Error: "boom"}); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}
	records, err := storage.ListRequests(ctx, 0)
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].RequestID == "" {
		t.Error("expected generated request id")
	}
	if records[0].Error != "boom" {
		t.Errorf("error = %q", records[0].Error)
	}
}

func TestListRequestsNewestFirstWithLimit(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	base := time.UnixMilli(1700000000000)

	for i, id := range []string{"old", "mid", "new"} {
		record := RequestRecord{
			RequestID: id,
			Query:     id,
			Status:    StatusPlanned,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := storage.SaveRequest(ctx, record); err != nil {
			t.Fatalf("SaveRequest failed: %v", err)
		}
	}

	records, err := storage.ListRequests(ctx, 2)
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(records) != 2 || records[0].RequestID != "new" || records[1].RequestID != "mid" {
		t.Errorf("unexpected order: %+v", records)
	}
}

func TestSaveRequestReplaces(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	record := RequestRecord{RequestID: "r", Query: "q", Status: StatusPlanned}
	if err := storage.SaveRequest(ctx, record); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}
	record.Status = StatusExecuted
	record.Execution = json.RawMessage(`{"step_results":[]}`)
	if err := storage.SaveRequest(ctx, record); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}

	records, _ := storage.ListRequests(ctx, 0)
	if len(records) != 1 || records[0].Status != StatusExecuted {
		t.Errorf("expected one executed record, got %+v", records)
	}
}

func TestOpenSqliteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer storage.Close()

	if err := storage.SaveRequest(context.Background(), RequestRecord{RequestID: "x", Query: "q", Status: StatusPlanned}); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}
}
