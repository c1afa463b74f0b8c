package lv

import (
	"strings"

	"github.com/coolbeans/lvparse/pkg/abbrev"
	"github.com/coolbeans/lvparse/pkg/record"
)

const (
	compactLayoutMarker = "Poschodie"
	registrationLabel   = "Súpisné číslo"
	otherInfoLabel      = "In"
)

// lineReader reads lines by offset and keeps the first failure, so a run of
// positional reads can be checked once at the end.
type lineReader struct {
	lines []string
	part  Part
	err   error
}

func (r *lineReader) at(i int) string {
	if r.err != nil {
		return ""
	}
	line, err := lineAt(r.lines, i, r.part)
	if err != nil {
		r.err = err
	}
	return line
}

// resolved returns the value printed for a label at line i: the next line
// when the label was truncated onto its own line, else line i itself (a
// stamp or annotation occupying the slot).
func (r *lineReader) resolved(i int) string {
	if line := r.at(i); !strings.HasPrefix(line, otherInfoLabel) {
		return line
	}
	return r.at(i + 1)
}

// parseHorizontal decodes the unit-level fields. On failure the returned
// unit is entirely null.
func parseHorizontal(lines []string, table abbrev.Table) (record.Unit, error) {
	r := &lineReader{lines: lines, part: PartHorizontal}
	var unit record.Unit
	if strings.Contains(r.at(0), compactLayoutMarker) {
		unit = parseCompactHorizontal(r, table)
	} else {
		unit = parseSpreadHorizontal(r, table)
	}
	if r.err != nil {
		return record.Unit{}, r.err
	}
	return unit, nil
}

// parseCompactHorizontal handles the layout whose header row carries the
// floor label and whose second line holds address, floor and unit number.
func parseCompactHorizontal(r *lineReader, table abbrev.Table) record.Unit {
	tokens := strings.Fields(r.at(1))
	if r.err == nil && len(tokens) < 4 {
		r.err = unitErrorf(PartHorizontal, 1, "want address, floor and unit tokens, got %d tokens", len(tokens))
	}
	if r.err != nil {
		return record.Unit{}
	}
	return record.Unit{
		EntranceAddress:    record.Some(CorrectAddress(tokens[0]+" "+tokens[1], table)),
		Floor:              record.Some(tokens[2]),
		UnitNumber:         record.Some(tokens[3]),
		SpaceShare:         record.Some(r.at(4)),
		RegistrationNumber: record.Some(r.at(6)),
		OtherInfo1:         record.Some(r.resolved(9)),
	}
}

// parseSpreadHorizontal handles the default layout with one value per line.
// When the registration label leaked into the share line, every later field
// sits one line earlier.
func parseSpreadHorizontal(r *lineReader, table abbrev.Table) record.Unit {
	unit := record.Unit{
		EntranceAddress: record.Some(CorrectAddress(r.at(1), table)),
		Floor:           record.Some(r.at(3)),
		UnitNumber:      record.Some(r.at(5)),
	}

	share := r.at(10)
	if strings.Contains(share, registrationLabel) {
		unit.SpaceShare = record.Some(strings.ReplaceAll(share, registrationLabel, ""))
		unit.RegistrationNumber = record.Some(r.at(11))
		unit.OtherInfo1 = record.Some(r.resolved(13))
	} else {
		unit.SpaceShare = record.Some(share)
		unit.RegistrationNumber = record.Some(r.at(12))
		unit.OtherInfo1 = record.Some(r.resolved(14))
	}
	return unit
}
