package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/quizprep/internal/batch"
	"github.com/abhisek/quizprep/internal/finding"
)

// NewRun converts a batch outcome into a Run ready to save.
func NewRun(source string, out *batch.Outcome) *Run {
	run := &Run{
		StartedAt: time.Now().Add(-out.Elapsed),
		Elapsed:   out.Elapsed,
		Source:    source,
		Total:     out.Report.Total,
		Ready:     out.Report.Ready,
		Blocked:   out.Report.Blocked,
		Cancelled: out.Cancelled,
		Report:    out.Report,
	}
	for _, res := range out.Results {
		counts := finding.CountBySeverity(res.Issues)
		run.Records = append(run.Records, RunRecord{
			Position: res.Position,
			RecordID: res.RecordID,
			Type:     string(res.Type),
			Status:   string(res.Status),
			Critical: counts[finding.Critical],
			Warnings: counts[finding.Warning],
			Info:     counts[finding.Info],
			Issues:   res.Issues,
		})
	}
	return run
}

// recordChunk bounds the rows per INSERT so a statement stays under
// SQLite's bound-variable limit.
const recordChunk = 500

var (
	runColumns    = []string{"id", "started_at", "elapsed_ms", "source", "total", "ready", "blocked", "cancelled", "report"}
	recordColumns = []string{"position", "record_id", "type", "status", "critical", "warnings", "info", "issues"}
)

// runRepo implements RunRepo with ent's SQL builder over database/sql.
type runRepo struct {
	db *sql.DB
	sb *entsql.DialectBuilder
}

func newRunRepo(db *sql.DB) *runRepo {
	return &runRepo{db: db, sb: entsql.Dialect(dialect.SQLite)}
}

func (r *runRepo) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	query, args := r.sb.Insert("runs").
		Columns(runColumns...).
		Values(run.ID, run.StartedAt.UnixNano(), run.Elapsed.Milliseconds(), run.Source,
			run.Total, run.Ready, run.Blocked, run.Cancelled, string(report)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	for start := 0; start < len(run.Records); start += recordChunk {
		end := min(start+recordChunk, len(run.Records))
		insert := r.sb.Insert("run_records").Columns(append([]string{"run_id"}, recordColumns...)...)
		for _, rec := range run.Records[start:end] {
			issues, err := json.Marshal(rec.Issues)
			if err != nil {
				return fmt.Errorf("marshal issues for record %d: %w", rec.Position, err)
			}
			insert.Values(run.ID, rec.Position, rec.RecordID, rec.Type, rec.Status,
				rec.Critical, rec.Warnings, rec.Info, string(issues))
		}
		query, args := insert.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save records %d-%d: %w", start+1, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func (r *runRepo) List(ctx context.Context, limit int) ([]Run, error) {
	sel := r.sb.Select(runColumns...).
		From(entsql.Table("runs")).
		OrderBy(entsql.Desc("started_at"), "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (r *runRepo) Get(ctx context.Context, id string) (*Run, error) {
	query, args := r.sb.Select(runColumns...).
		From(entsql.Table("runs")).
		Where(entsql.Or(entsql.EQ("id", id), entsql.HasPrefix("id", id))).
		OrderBy("id").
		Limit(2).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate run: %w", err)
	}

	var run *Run
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) == 1:
		run = matches[0]
	case matches[0].ID == id:
		run = matches[0]
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}

	records, err := r.records(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Records = records
	return run, nil
}

func (r *runRepo) records(ctx context.Context, runID string) ([]RunRecord, error) {
	query, args := r.sb.Select(recordColumns...).
		From(entsql.Table("run_records")).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("position").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec    RunRecord
			issues string
		)
		if err := rows.Scan(&rec.Position, &rec.RecordID, &rec.Type, &rec.Status,
			&rec.Critical, &rec.Warnings, &rec.Info, &issues); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if err := json.Unmarshal([]byte(issues), &rec.Issues); err != nil {
			return nil, fmt.Errorf("unmarshal issues for record %d: %w", rec.Position, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}
	return out, nil
}

func (r *runRepo) Prune(ctx context.Context, keep int) error {
	// Find the threshold: the newest run that falls outside keep.
	query, args := r.sb.Select("started_at").
		From(entsql.Table("runs")).
		OrderBy(entsql.Desc("started_at")).
		Limit(1).
		Offset(keep).
		Query()
	var threshold int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
	if err == sql.ErrNoRows {
		return nil // fewer than keep runs exist
	}
	if err != nil {
		return fmt.Errorf("query runs for prune: %w", err)
	}

	query, args = r.sb.Delete("runs").Where(entsql.LTE("started_at", threshold)).Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		startedAt int64
		elapsedMs int64
		report    string
	)
	if err := row.Scan(&run.ID, &startedAt, &elapsedMs, &run.Source,
		&run.Total, &run.Ready, &run.Blocked, &run.Cancelled, &report); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedAt)
	run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	if err := json.Unmarshal([]byte(report), &run.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report for run %s: %w", run.ID, err)
	}
	return &run, nil
}
