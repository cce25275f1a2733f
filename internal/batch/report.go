package batch

import (
	"sort"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/validation"
)

// Report aggregates the results of one batch run.
type Report struct {
	Total   int `json:"total"`
	Ready   int `json:"ready"`
	Blocked int `json:"blocked"`

	BySeverity   map[finding.Severity]int `json:"by_severity"`
	ByCode       map[finding.Code]int     `json:"by_code"`
	ByType       map[string]int           `json:"by_type"`
	ByTopic      map[string]int           `json:"by_topic"`
	ByDifficulty map[string]int           `json:"by_difficulty"`

	WithMath    int     `json:"with_math"`
	MathPercent float64 `json:"math_percent"`

	// BlockedIDs lists blocked record ids in input order.
	BlockedIDs []string `json:"blocked_ids"`

	// Conversions counts substitutions per original symbol.
	Conversions     map[string]int `json:"conversions"`
	ConversionTotal int            `json:"conversion_total"`

	// Unrecognized counts unmapped math-like symbols.
	Unrecognized map[string]int `json:"unrecognized"`

	// ConversionLog lists every substitution performed, in input order.
	ConversionLog []Conversion `json:"conversion_log"`
}

// Conversion is one substitution made in a record of the batch.
type Conversion struct {
	RecordID string `json:"record_id"`
	Position int    `json:"position"`
	validation.Conversion
}

type blockedRef struct {
	position int
	id       string
}

// partial is a Report under construction. add folds one result in and
// merge absorbs another partial; neither depends on the order results
// arrive in, because finish sorts the ordered lists by position.
type partial struct {
	Report
	blocked []blockedRef
}

func newPartial() partial {
	return partial{Report: Report{
		BySeverity:   make(map[finding.Severity]int),
		ByCode:       make(map[finding.Code]int),
		ByType:       make(map[string]int),
		ByTopic:      make(map[string]int),
		ByDifficulty: make(map[string]int),
		Conversions:  make(map[string]int),
		Unrecognized: make(map[string]int),
	}}
}

func (p *partial) add(res validation.Result) {
	p.Total++
	if res.Blocked() {
		p.Blocked++
		p.blocked = append(p.blocked, blockedRef{position: res.Position, id: res.RecordID})
	} else {
		p.Ready++
	}
	for _, is := range res.Issues {
		p.BySeverity[is.Severity]++
		p.ByCode[is.Code]++
	}
	if res.Type != "" {
		p.ByType[string(res.Type)]++
	}
	if res.Topic != "" {
		p.ByTopic[res.Topic]++
	}
	if res.Difficulty != "" {
		p.ByDifficulty[res.Difficulty]++
	}
	if res.HasMath {
		p.WithMath++
	}
	for _, c := range res.Conversions {
		p.Conversions[c.Original]++
		p.ConversionLog = append(p.ConversionLog, Conversion{RecordID: res.RecordID, Position: res.Position, Conversion: c})
	}
	p.ConversionTotal += len(res.Conversions)
	for _, u := range res.Unrecognized {
		p.Unrecognized[u.Symbol]++
	}
}

func (p *partial) merge(o partial) {
	p.Total += o.Total
	p.Ready += o.Ready
	p.Blocked += o.Blocked
	p.WithMath += o.WithMath
	p.ConversionTotal += o.ConversionTotal

	addCounts(p.BySeverity, o.BySeverity)
	addCounts(p.ByCode, o.ByCode)
	addCounts(p.ByType, o.ByType)
	addCounts(p.ByTopic, o.ByTopic)
	addCounts(p.ByDifficulty, o.ByDifficulty)
	addCounts(p.Conversions, o.Conversions)
	addCounts(p.Unrecognized, o.Unrecognized)

	p.blocked = append(p.blocked, o.blocked...)
	p.ConversionLog = append(p.ConversionLog, o.ConversionLog...)
}

func addCounts[K comparable](dst, src map[K]int) {
	for k, n := range src {
		dst[k] += n
	}
}

func (p partial) finish() Report {
	r := p.Report

	blocked := append([]blockedRef(nil), p.blocked...)
	sort.Slice(blocked, func(i, j int) bool {
		if blocked[i].position != blocked[j].position {
			return blocked[i].position < blocked[j].position
		}
		return blocked[i].id < blocked[j].id
	})
	r.BlockedIDs = make([]string, 0, len(blocked))
	for _, b := range blocked {
		r.BlockedIDs = append(r.BlockedIDs, b.id)
	}

	// A record's conversions stay contiguous and in field order through
	// merges, so a stable sort by position keeps them in that order.
	r.ConversionLog = append(make([]Conversion, 0, len(p.ConversionLog)), p.ConversionLog...)
	sort.SliceStable(r.ConversionLog, func(i, j int) bool {
		return r.ConversionLog[i].Position < r.ConversionLog[j].Position
	})

	if r.Total > 0 {
		r.MathPercent = 100 * float64(r.WithMath) / float64(r.Total)
	}
	return r
}

// BuildReport aggregates results into a fresh Report.
func BuildReport(results []validation.Result) Report {
	acc := newPartial()
	for _, res := range results {
		acc.add(res)
	}
	return acc.finish()
}
