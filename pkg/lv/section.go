package lv

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	sectionStartMarker = "Vchod (číslo)"
	nonResidentialMark = "Nebytové priestory"
	encumbrancesMark   = "ŤARCHY"
)

// pageFooterPattern matches page counters such as "12 z 73" that the text
// extractor places at page breaks.
var pageFooterPattern = regexp.MustCompile(`\d+\sz\s\d+(?:\r\n|\n|\r)`)

// IsolateSection returns the apartments section of a full ownership list:
// from the first entrance-number header up to the non-residential or
// encumbrances part, with page footers removed.
func IsolateSection(text string) (string, error) {
	start := strings.Index(text, sectionStartMarker)
	if start < 0 {
		return "", fmt.Errorf("%w: missing %q header", ErrSectionNotFound, sectionStartMarker)
	}

	end := sectionEnd(text)
	if end < start {
		return "", fmt.Errorf("%w: section end at %d precedes %q at %d", ErrSectionNotFound, end, sectionStartMarker, start)
	}

	return pageFooterPattern.ReplaceAllString(text[start:end], ""), nil
}

// sectionEnd returns the offset of the first end marker found past offset 0,
// or the end of text. A marker sitting exactly at offset 0 counts as absent.
func sectionEnd(text string) int {
	if i := strings.Index(text, nonResidentialMark); i > 0 {
		return i
	}
	if i := strings.Index(text, encumbrancesMark); i > 0 {
		return i
	}
	return len(text)
}
