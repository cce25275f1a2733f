package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/quizprep/internal/batch"
	"github.com/abhisek/quizprep/internal/finding"
)

// ErrNotFound is returned when a run id matches nothing.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when a run id prefix matches several runs.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// Run is one saved batch validation.
type Run struct {
	ID        string
	StartedAt time.Time
	Elapsed   time.Duration

	// Source names the input files, comma separated.
	Source    string
	Total     int
	Ready     int
	Blocked   int
	Cancelled bool
	Report    batch.Report

	// Records is filled by Get only.
	Records []RunRecord
}

// RunRecord is the saved outcome of one record in a run.
type RunRecord struct {
	Position int
	RecordID string
	Type     string
	Status   string
	Critical int
	Warnings int
	Info     int
	Issues   []finding.Issue
}

// RunRepo manages saved runs.
type RunRepo interface {
	// Save stores run and its records. An empty ID is assigned a new UUID
	// and a zero StartedAt is set to now.
	Save(ctx context.Context, run *Run) error

	// List returns the most recent runs first, without records.
	// limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]Run, error)

	// Get returns the run whose id equals or starts with id, including
	// its records.
	Get(ctx context.Context, id string) (*Run, error)

	// Prune deletes all but the keep most recent runs.
	Prune(ctx context.Context, keep int) error
}
