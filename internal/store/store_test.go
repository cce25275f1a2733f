package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/quizprep/internal/batch"
	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/validation"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is checked in TestFileDatabase.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"runs", "run_records"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
	}
}

func sampleOutcome() *batch.Outcome {
	results := []validation.Result{
		{
			RecordID: "q1", Position: 1, Type: "numerical", Status: validation.StatusReady,
			Issues: []finding.Issue{{Severity: finding.Info, Code: finding.CodeUnicodeFound, Field: "question_text", Message: "replaced", Span: finding.SpanAt(4, 5)}},
		},
		{
			RecordID: "#2", Position: 2, Type: "true_false", Status: validation.StatusBlocked,
			Issues: []finding.Issue{{Severity: finding.Critical, Code: finding.CodeInvalidChoice, Field: "correct_answer", Message: "not True or False"}},
		},
	}
	return &batch.Outcome{
		Results: results,
		Report:  batch.BuildReport(results),
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestRunSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	run := NewRun("questions.json", sampleOutcome())
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected an assigned run id")
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Source != "questions.json" {
		t.Errorf("source = %q, want questions.json", got.Source)
	}
	if got.Total != 2 || got.Ready != 1 || got.Blocked != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", got.Total, got.Ready, got.Blocked)
	}
	if got.Elapsed != 1500*time.Millisecond {
		t.Errorf("elapsed = %v, want 1.5s", got.Elapsed)
	}
	if len(got.Report.BlockedIDs) != 1 || got.Report.BlockedIDs[0] != "#2" {
		t.Errorf("report blocked ids = %v, want [#2]", got.Report.BlockedIDs)
	}
	if len(got.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(got.Records))
	}
	rec := got.Records[1]
	if rec.Status != "blocked" || rec.Critical != 1 {
		t.Errorf("record 2 = %+v, want blocked with 1 critical", rec)
	}
	if len(got.Records[0].Issues) != 1 || got.Records[0].Issues[0].Span == nil || got.Records[0].Issues[0].Span.Start != 4 {
		t.Errorf("record 1 issues = %+v, want span at 4", got.Records[0].Issues)
	}
}

func TestRunGetByPrefix(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	for _, id := range []string{"abc111", "abc222", "def333"} {
		if err := repo.Save(ctx, &Run{ID: id, Source: "x"}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := repo.Get(ctx, "def")
	if err != nil {
		t.Fatalf("get def: %v", err)
	}
	if got.ID != "def333" {
		t.Errorf("id = %q, want def333", got.ID)
	}

	if _, err := repo.Get(ctx, "abc"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("get abc: err = %v, want ErrAmbiguous", err)
	}
	if _, err := repo.Get(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get zzz: err = %v, want ErrNotFound", err)
	}
}

func TestRunSaveManyRecords(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	const n = 2*recordChunk + 7
	run := &Run{Source: "big.jsonl", Total: n}
	for i := n; i >= 1; i-- {
		run.Records = append(run.Records, RunRecord{
			Position: i, RecordID: fmt.Sprintf("q%d", i), Type: "numerical", Status: "ready",
		})
	}
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Records) != n {
		t.Fatalf("records = %d, want %d", len(got.Records), n)
	}
	for i, rec := range got.Records {
		if rec.Position != i+1 {
			t.Fatalf("record %d has position %d, want %d", i, rec.Position, i+1)
		}
	}
	if got.Records[n-1].RecordID != fmt.Sprintf("q%d", n) {
		t.Errorf("last record id = %q", got.Records[n-1].RecordID)
	}
}

func TestRunListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		err := repo.Save(ctx, &Run{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Source:    "batch",
			Total:     i + 1,
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	runs, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Total != 3 || runs[1].Total != 2 {
		t.Errorf("totals = %d, %d, want 3, 2", runs[0].Total, runs[1].Total)
	}
	if !runs[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("started_at = %v, want %v", runs[0].StartedAt, base.Add(2*time.Minute))
	}
}

func TestRunPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 7; i++ {
		run := NewRun("batch", sampleOutcome())
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	// Prune to keep 5.
	if err := repo.Prune(ctx, 5); err != nil {
		t.Fatalf("prune: %v", err)
	}

	runs, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 5 {
		t.Errorf("remaining runs = %d, want 5", len(runs))
	}

	var orphans int
	err = s.DB().QueryRow(
		"SELECT COUNT(*) FROM run_records WHERE run_id NOT IN (SELECT id FROM runs)",
	).Scan(&orphans)
	if err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned records = %d, want 0", orphans)
	}

	// Prune with keep larger than the run count is a no-op.
	if err := repo.Prune(ctx, 10); err != nil {
		t.Fatalf("prune: %v", err)
	}
}
