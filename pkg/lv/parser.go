// Package lv decodes the apartments section of a cadastral ownership list
// ("list vlastníctva") into one ownership record per unit and co-owner.
//
// A document is processed in stages: the apartments section is isolated,
// split into unit blocks, and each block is decoded into its unit-level
// (horizontal) and owner-level (vertical) fields. A malformed block never
// aborts the document; it yields a placeholder record and a diagnostic.
package lv

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/lvparse/pkg/abbrev"
	"github.com/coolbeans/lvparse/pkg/diag"
	"github.com/coolbeans/lvparse/pkg/record"
)

// Result is the outcome of parsing one document.
type Result struct {
	Records     []record.Record `json:"table"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
	Units       int             `json:"units"`
	FailedUnits int             `json:"failed_units"`
}

// Parser decodes ownership lists. A Parser is immutable after construction
// and safe for concurrent use.
type Parser struct {
	table    abbrev.Table
	workers  int
	logger   *zap.Logger
	reporter diag.Reporter
	now      func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithAbbreviations sets the street-name abbreviation table.
func WithAbbreviations(table abbrev.Table) Option {
	return func(p *Parser) {
		p.table = table
	}
}

// WithWorkers parses up to n unit blocks concurrently. Record order is
// unaffected; diagnostics are then listed in completion order.
func WithWorkers(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithReporter hands the diagnostics of every document with failed units
// to r.
func WithReporter(r diag.Reporter) Option {
	return func(p *Parser) {
		p.reporter = r
	}
}

// WithClock sets the clock used to derive the diagnostics key.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewParser creates a Parser. Without options it uses an empty
// abbreviation table, one worker and no diagnostics reporter.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		workers: 1,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes the full text of an ownership list. It fails only when the
// apartments section cannot be found or ctx is cancelled.
func (p *Parser) Parse(ctx context.Context, text string) (*Result, error) {
	section, err := IsolateSection(text)
	if err != nil {
		return nil, err
	}

	blocks := SplitUnits(section)
	outcomes := make([]unitOutcome, len(blocks))
	diags := NewDiagnostics()

	collect := func(i int) {
		outcomes[i] = parseUnit(blocks[i], p.table)
		if err := outcomes[i].err; err != nil {
			diags.Add(err.Error())
			p.logger.Debug("Unit parse failed", zap.Int("unit", i+1), zap.Error(err))
		}
	}

	if p.workers <= 1 {
		for i := range blocks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			collect(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for i := range blocks {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				collect(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	units := make([][]record.Record, len(outcomes))
	failed := 0
	for i, o := range outcomes {
		units[i] = o.records
		if o.err != nil {
			failed++
		}
	}

	result := &Result{
		Records:     assemble(units),
		Diagnostics: diags.List(),
		Units:       len(blocks),
		FailedUnits: failed,
	}

	if len(result.Diagnostics) > 0 && p.reporter != nil {
		p.reporter.Report(diag.DateKey(p.now()), result.Diagnostics)
	}

	p.logger.Info("Ownership list parsed",
		zap.Int("units", result.Units),
		zap.Int("records", len(result.Records)),
		zap.Int("failed_units", result.FailedUnits))
	return result, nil
}
