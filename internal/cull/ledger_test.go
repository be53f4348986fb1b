package cull

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photocull/internal/logging"
)

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	dir := t.TempDir()
	return NewLedger(dir, logging.Nop()), dir
}

func TestLedger_AppendAndRecords(t *testing.T) {
	ledger, _ := newTestLedger(t)

	rec := Record{
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Retained:  "/photos/keep.jpg",
		Culled:    []string{"/photos/dup1.jpg", "/photos/dup2.jpg"},
		Action:    ActionMoved,
	}
	if err := ledger.Append(rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := ledger.Records()
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	got := records[0]
	if got.Retained != rec.Retained {
		t.Errorf("retained = %s, want %s", got.Retained, rec.Retained)
	}
	if len(got.Culled) != 2 {
		t.Errorf("culled = %d, want 2", len(got.Culled))
	}
	if got.Action != ActionMoved {
		t.Errorf("action = %s, want moved", got.Action)
	}
}

func TestLedger_EmptyLog(t *testing.T) {
	ledger, _ := newTestLedger(t)
	records, err := ledger.Records()
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestLedger_SkipsMalformedLines(t *testing.T) {
	ledger, dir := newTestLedger(t)

	if err := ledger.Append(Record{Timestamp: time.Now(), Retained: "a", Action: ActionMoved}); err != nil {
		t.Fatal(err)
	}
	// Corrupt line in the middle.
	f, err := os.OpenFile(filepath.Join(dir, HistoryFileName), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{garbage\n")
	f.Close()
	if err := ledger.Append(Record{Timestamp: time.Now(), Retained: "b", Action: ActionMoved}); err != nil {
		t.Fatal(err)
	}

	records, err := ledger.Records()
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2 (malformed line skipped)", len(records))
	}
}

func TestLedger_Restore(t *testing.T) {
	ledger, dir := newTestLedger(t)

	srcDir := t.TempDir()
	original := filepath.Join(srcDir, "dup.jpg")
	moved := filepath.Join(dir, "dup.jpg")
	if err := os.WriteFile(moved, []byte("photo"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ledger.Append(Record{
		Timestamp: time.Now(),
		Retained:  filepath.Join(srcDir, "keep.jpg"),
		Culled:    []string{original},
		Action:    ActionMoved,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := ledger.Restore(dir, 0)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if stats.Restored != 1 {
		t.Errorf("restored = %d, want 1", stats.Restored)
	}
	if stats.Removed != 1 {
		t.Errorf("removed = %d, want 1", stats.Removed)
	}

	if _, err := os.Stat(original); err != nil {
		t.Errorf("restored file missing at original path: %v", err)
	}
	if _, err := os.Stat(moved); !errors.Is(err, os.ErrNotExist) {
		t.Error("moved copy should be gone after restore")
	}

	records, err := ledger.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0 after restore", len(records))
	}
}

func TestLedger_RestoreSkipsMissingSource(t *testing.T) {
	ledger, dir := newTestLedger(t)

	if err := ledger.Append(Record{
		Timestamp: time.Now(),
		Retained:  "/photos/keep.jpg",
		Culled:    []string{"/photos/never-moved.jpg"},
		Action:    ActionMoved,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := ledger.Restore(dir, 0)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if stats.Restored != 0 || stats.Skipped != 1 {
		t.Errorf("restored, skipped = %d, %d, want 0, 1", stats.Restored, stats.Skipped)
	}
}

func TestLedger_RestoreRejectsDeleted(t *testing.T) {
	ledger, dir := newTestLedger(t)

	if err := ledger.Append(Record{
		Timestamp: time.Now(),
		Retained:  "/photos/keep.jpg",
		Culled:    []string{"/photos/gone.jpg"},
		Action:    ActionDeleted,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := ledger.Restore(dir, 0); !errors.Is(err, ErrNotReversible) {
		t.Errorf("expected ErrNotReversible, got %v", err)
	}

	// The record stays in the log.
	records, err := ledger.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
}

func TestLedger_RestoreBadIndex(t *testing.T) {
	ledger, dir := newTestLedger(t)
	if _, err := ledger.Restore(dir, 0); !errors.Is(err, ErrNoRecord) {
		t.Errorf("expected ErrNoRecord, got %v", err)
	}
}

func TestLedger_RestoreAllPreservesDeletedRecords(t *testing.T) {
	ledger, dir := newTestLedger(t)
	srcDir := t.TempDir()

	movedOriginal := filepath.Join(srcDir, "moved.jpg")
	if err := os.WriteFile(filepath.Join(dir, "moved.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ledger.Append(Record{Timestamp: time.Now(), Retained: "k1", Culled: []string{movedOriginal}, Action: ActionMoved})
	ledger.Append(Record{Timestamp: time.Now(), Retained: "k2", Culled: []string{"/gone.jpg"}, Action: ActionDeleted})

	stats, err := ledger.RestoreAll(dir)
	if err != nil {
		t.Fatalf("RestoreAll() error = %v", err)
	}
	if stats.Restored != 1 {
		t.Errorf("restored = %d, want 1", stats.Restored)
	}
	if stats.Removed != 1 {
		t.Errorf("removed = %d, want 1 (deleted record stays)", stats.Removed)
	}

	records, err := ledger.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Action != ActionDeleted {
		t.Errorf("expected only the deleted record to remain, got %v", records)
	}
}

func TestLedger_RewriteKeepsOrder(t *testing.T) {
	ledger, dir := newTestLedger(t)
	srcDir := t.TempDir()

	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if i == 1 {
			// Only b is restorable; its source file exists.
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		ledger.Append(Record{
			Timestamp: time.Now(),
			Retained:  "keep-" + name,
			Culled:    []string{filepath.Join(srcDir, name)},
			Action:    ActionMoved,
		})
	}

	if _, err := ledger.Restore(dir, 1); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	records, err := ledger.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !strings.HasSuffix(records[0].Retained, "a.jpg") || !strings.HasSuffix(records[1].Retained, "c.jpg") {
		t.Errorf("remaining records out of order: %s, %s", records[0].Retained, records[1].Retained)
	}
}
