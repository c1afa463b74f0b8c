package lv

import (
	"errors"
	"fmt"
)

var (
	// ErrSectionNotFound means the apartments section could not be located.
	// It aborts the whole document.
	ErrSectionNotFound = errors.New("apartments section not found")

	// ErrUnitParse marks a failure confined to one unit block. The parser
	// recovers from it and emits a placeholder record.
	ErrUnitParse = errors.New("unit parse failure")
)

// Part names the half of a unit block being parsed.
type Part string

const (
	PartBlock      Part = "block"
	PartHorizontal Part = "horizontal"
	PartVertical   Part = "vertical"
)

// UnitError describes why a unit block could not be parsed. Line is -1 when
// the failure is not tied to a line.
type UnitError struct {
	Part   Part
	Line   int
	Reason string
}

func (e *UnitError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s: %s: %s", ErrUnitParse, e.Part, e.Reason)
	}
	return fmt.Sprintf("%s: %s: line %d: %s", ErrUnitParse, e.Part, e.Line, e.Reason)
}

// Unwrap lets errors.Is match ErrUnitParse.
func (e *UnitError) Unwrap() error {
	return ErrUnitParse
}

func unitErrorf(part Part, line int, format string, args ...any) *UnitError {
	return &UnitError{Part: part, Line: line, Reason: fmt.Sprintf(format, args...)}
}
