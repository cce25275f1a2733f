// Package validation runs the full check pipeline on one record:
// Unicode normalization of every free-text field, markup-math syntax
// checks, and schema validation of the normalized record.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/mathsyntax"
	"github.com/abhisek/quizprep/internal/normalize"
	"github.com/abhisek/quizprep/internal/question"
	"github.com/abhisek/quizprep/internal/schema"
	"github.com/abhisek/quizprep/internal/symbols"
)

// Status is the import readiness of a record.
type Status string

const (
	StatusReady   Status = "ready"
	StatusBlocked Status = "blocked"
)

// Conversion is a substitution made in one field.
type Conversion struct {
	Field string `json:"field"`
	normalize.Substitution
}

// UnknownSymbol is an unmapped math-like rune found in one field.
type UnknownSymbol struct {
	Field  string `json:"field"`
	Symbol string `json:"symbol"`
	Offset int    `json:"offset"`
}

// Result is the outcome of validating one record.
type Result struct {
	RecordID   string        `json:"record_id"`
	Position   int           `json:"position"`
	Type       question.Type `json:"type,omitempty"`
	Topic      string        `json:"topic,omitempty"`
	Difficulty string        `json:"difficulty,omitempty"`

	Status Status          `json:"status"`
	Issues []finding.Issue `json:"issues"`

	// Normalized is nil when the input could not be parsed.
	Normalized   *question.Record `json:"-"`
	Conversions  []Conversion     `json:"conversions,omitempty"`
	Unrecognized []UnknownSymbol  `json:"unrecognized,omitempty"`
	HasMath      bool             `json:"has_math"`
}

// Blocked reports whether the record has a critical issue.
func (r Result) Blocked() bool {
	return r.Status == StatusBlocked
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for per-record debug output.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager validates records. It holds only immutable collaborators and is
// safe for concurrent use.
type Manager struct {
	normalizer *normalize.Normalizer
	checker    *mathsyntax.Checker
	validator  *schema.Validator
	logger     *zap.Logger
}

// NewManager builds a Manager around the symbol map m.
func NewManager(m *symbols.Map, opts ...Option) (*Manager, error) {
	if m == nil {
		m = symbols.Default()
	}
	v, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("build schema validator: %w", err)
	}
	mgr := &Manager{
		normalizer: normalize.New(m),
		checker:    mathsyntax.New(m),
		validator:  v,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr, nil
}

// ValidateRaw decodes and validates one JSON record. Input that is not a
// record at all yields a single unparseable_record issue.
func (m *Manager) ValidateRaw(raw json.RawMessage, position int) Result {
	rec, err := question.Parse(raw)
	if err != nil {
		m.logger.Debug("unparseable record", zap.Int("position", position), zap.Error(err))
		return Unparseable(position, err)
	}
	return m.ValidateRecord(rec, position)
}

// Unparseable is the result for a record that could not be decoded.
func Unparseable(position int, err error) Result {
	return Result{
		RecordID: positionID(position),
		Position: position,
		Status:   StatusBlocked,
		Issues: []finding.Issue{{
			Severity: finding.Critical,
			Code:     finding.CodeUnparseableRecord,
			Message:  err.Error(),
		}},
	}
}

// ValidateRecord validates rec. rec is not modified; the normalized copy
// is returned in the result.
func (m *Manager) ValidateRecord(rec *question.Record, position int) Result {
	res := Result{
		RecordID:   rec.ID,
		Position:   position,
		Type:       rec.Type,
		Topic:      rec.Topic,
		Difficulty: rec.Difficulty,
	}
	if res.RecordID == "" {
		res.RecordID = positionID(position)
	}

	fields := rec.TextFields()
	order := make(map[string]int, len(fields))
	replaced := make(map[question.Path]string)
	var unicodeIssues, syntaxIssues []finding.Issue

	for i, tf := range fields {
		field := tf.Path.String()
		order[field] = i

		nres := m.normalizer.Normalize(tf.Value)
		if nres.Changed() {
			replaced[tf.Path] = nres.Text
		}
		for _, sub := range nres.Substitutions {
			res.Conversions = append(res.Conversions, Conversion{Field: field, Substitution: sub})
			unicodeIssues = append(unicodeIssues, finding.Issue{
				Severity: finding.Info,
				Code:     finding.CodeUnicodeFound,
				Field:    field,
				Message:  fmt.Sprintf("replaced %q with %s", sub.Original, sub.Replacement),
				Span:     finding.SpanAt(sub.Offset, sub.Offset+len([]rune(sub.Original))),
			})
		}
		for _, u := range nres.Unrecognized {
			res.Unrecognized = append(res.Unrecognized, UnknownSymbol{Field: field, Symbol: string(u.Rune), Offset: u.Offset})
			unicodeIssues = append(unicodeIssues, finding.Issue{
				Severity: finding.Info,
				Code:     finding.CodeUnrecognizedUnicode,
				Field:    field,
				Message:  fmt.Sprintf("no markup mapping for %q (U+%04X)", u.Rune, u.Rune),
				Span:     finding.SpanAt(u.Offset, u.Offset+1),
			})
		}
	}

	res.Normalized = rec.WithTexts(replaced)

	for _, tf := range res.Normalized.TextFields() {
		field := tf.Path.String()
		if mathsyntax.HasMath(tf.Value) {
			res.HasMath = true
		}
		for _, is := range m.checker.Check(tf.Value) {
			syntaxIssues = append(syntaxIssues, is.At(field))
		}
	}

	sortByField(unicodeIssues, order)
	sortByField(syntaxIssues, order)

	// Unicode spans index the original text and syntax spans the
	// normalized text, so the two groups are never interleaved.
	issues := m.validator.Validate(res.Normalized)
	issues = append(issues, unicodeIssues...)
	issues = append(issues, syntaxIssues...)
	res.Issues = finding.Dedup(issues)
	if res.Issues == nil {
		res.Issues = []finding.Issue{}
	}

	res.Status = StatusReady
	if finding.HasCritical(res.Issues) {
		res.Status = StatusBlocked
	}

	m.logger.Debug("validated record",
		zap.String("record_id", res.RecordID),
		zap.Int("position", position),
		zap.String("status", string(res.Status)),
		zap.Int("issues", len(res.Issues)),
		zap.Int("conversions", len(res.Conversions)))
	return res
}

func positionID(position int) string {
	return fmt.Sprintf("#%d", position)
}

// sortByField stably orders issues by canonical text field, then offset.
func sortByField(issues []finding.Issue, order map[string]int) {
	sort.SliceStable(issues, func(a, b int) bool {
		fa, fb := order[issues[a].Field], order[issues[b].Field]
		if fa != fb {
			return fa < fb
		}
		return spanStart(issues[a]) < spanStart(issues[b])
	})
}

func spanStart(is finding.Issue) int {
	if is.Span == nil {
		return -1
	}
	return is.Span.Start
}
