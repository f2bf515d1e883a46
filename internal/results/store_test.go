package results

import (
	"context"
	"testing"
	"time"
)

func TestReportStoreRoundTrip(t *testing.T) {
	store, err := OpenReport(t.TempDir())
	if err != nil {
		t.Fatalf("OpenReport returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	started := time.Now()
	if err := store.StartRun(ctx, "run-1", "/images", started); err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}

	outcomes := []FileOutcome{
		{File: "cat.jpg", Status: StatusCompleted, PixivCount: 2, Destination: "search_complete/cat.jpg", ProcessedAt: started},
		{File: "dog.png", Status: StatusNoResults, Destination: "no_results/dog.png", ProcessedAt: started},
		{File: "bad.webp", Status: StatusSearchFailed, ProcessedAt: started},
	}
	for _, outcome := range outcomes {
		if err := store.RecordFile(ctx, "run-1", outcome); err != nil {
			t.Fatalf("RecordFile returned error: %v", err)
		}
	}

	if err := store.FinishRun(ctx, "run-1", started.Add(time.Minute)); err != nil {
		t.Fatalf("FinishRun returned error: %v", err)
	}

	got, err := store.FileOutcomes(ctx, "run-1")
	if err != nil {
		t.Fatalf("FileOutcomes returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(got))
	}
	if got[0].File != "cat.jpg" || got[0].Status != StatusCompleted || got[0].PixivCount != 2 {
		t.Fatalf("first outcome = %+v", got[0])
	}
	if got[2].Status != StatusSearchFailed || got[2].Destination != "" {
		t.Fatalf("failed outcome = %+v", got[2])
	}
}

func TestOpenReportRejectsForeignSchema(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenReport(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenReport(dir); err == nil {
		t.Fatal("expected schema version mismatch error")
	}
}
