package lv

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coolbeans/lvparse/pkg/abbrev"
	"github.com/coolbeans/lvparse/pkg/record"
)

// Diagnostics is an append-only, order-preserving set of failure messages.
// It is safe for concurrent use.
type Diagnostics struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	entries []string
}

// NewDiagnostics returns an empty set.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{seen: make(map[string]struct{})}
}

// Add records msg unless an identical message is already present. It
// reports whether msg was new.
func (d *Diagnostics) Add(msg string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[msg]; ok {
		return false
	}
	d.seen[msg] = struct{}{}
	d.entries = append(d.entries, msg)
	return true
}

// Len returns the number of distinct messages.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// List returns the messages in insertion order.
func (d *Diagnostics) List() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.entries...)
}

// unitOutcome is the result of parsing one unit block.
type unitOutcome struct {
	records []record.Record
	err     error
}

// parseUnit parses one block and never fails: a unit parse failure yields
// a single placeholder record and the error for the caller to collect.
// Horizontal fields survive in the placeholder when only the owner part
// failed.
func parseUnit(block string, table abbrev.Table) (out unitOutcome) {
	var unit record.Unit
	defer func() {
		if p := recover(); p != nil {
			out = failedUnit(unit, fmt.Errorf("unexpected panic: %v", p))
		}
	}()

	horizontal, vertical, err := splitBlock(block)
	if err != nil {
		return failedUnit(unit, err)
	}

	unit, err = parseHorizontal(horizontal, table)
	if err != nil {
		return failedUnit(unit, err)
	}

	records, err := parseVertical(vertical, unit)
	if err != nil {
		return failedUnit(unit, err)
	}
	return unitOutcome{records: records}
}

func failedUnit(unit record.Unit, err error) unitOutcome {
	if !errors.Is(err, ErrUnitParse) {
		err = &UnitError{Part: PartBlock, Line: -1, Reason: err.Error()}
	}
	return unitOutcome{records: []record.Record{record.Placeholder(unit)}, err: err}
}
