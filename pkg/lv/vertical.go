package lv

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/coolbeans/lvparse/pkg/record"
)

const (
	compressedHeaderMarker = "Titul"
	institutionMarker      = "IČO"
	nextAcquisitionMarker  = "Titul na"
	noteMarker             = "Pozn"
	noConflictMarker       = "Bez z"

	ownerLineOffset           = 7
	compressedOwnerLineOffset = 4
)

// sharePattern matches an ownership share such as "1/2" or "12/100".
var sharePattern = regexp.MustCompile(`^\s*\d+/\d+\s*$`)

// ownerState is a step of the owner decoder.
type ownerState int

const (
	stateReadingSequence ownerState = iota
	stateReadingOwner
	stateSeekingShare
	stateReadingTitle
	stateReadingOtherInfo
	stateSeekingContinuation
	stateNoMoreOwners
	stateUnresolvedContinuation
)

var ownerStateNames = map[ownerState]string{
	stateReadingSequence:        "reading sequence",
	stateReadingOwner:           "reading owner",
	stateSeekingShare:           "seeking share",
	stateReadingTitle:           "reading title",
	stateReadingOtherInfo:       "reading other info",
	stateSeekingContinuation:    "seeking continuation",
	stateNoMoreOwners:           "no more owners",
	stateUnresolvedContinuation: "unresolved continuation",
}

func (s ownerState) String() string {
	return ownerStateNames[s]
}

func (s ownerState) terminal() bool {
	return s == stateNoMoreOwners || s == stateUnresolvedContinuation
}

// cursor is the complete decoder state. Each step receives a copy and
// returns the next one.
type cursor struct {
	state  ownerState
	line   int
	tokens []string
	name   []string
	title  string
	owner  record.Owner
}

// parseVertical decodes every owner listed in the vertical part of a unit
// block. Each owner becomes one record carrying a copy of unit.
func parseVertical(lines []string, unit record.Unit) ([]record.Record, error) {
	header, err := lineAt(lines, 0, PartVertical)
	if err != nil {
		return nil, err
	}

	c := cursor{state: stateReadingSequence, line: ownerLineOffset}
	if strings.Contains(header, compressedHeaderMarker) {
		c.line = compressedOwnerLineOffset
	}

	var records []record.Record
	for !c.state.terminal() {
		var emitted *record.Owner
		c, emitted, err = step(lines, c)
		if err != nil {
			return nil, err
		}
		if emitted != nil {
			records = append(records, record.Record{Unit: unit, Owner: *emitted})
		}
	}

	if c.state == stateUnresolvedContinuation {
		records = append(records, record.Placeholder(unit))
	}
	return records, nil
}

// step advances the decoder by one transition. It returns the finished
// owner when the transition completes one.
func step(lines []string, c cursor) (cursor, *record.Owner, error) {
	switch c.state {
	case stateReadingSequence:
		line, err := lineAt(lines, c.line, PartVertical)
		if err != nil {
			return c, nil, err
		}
		c.tokens = strings.Fields(line)
		if len(c.tokens) == 0 {
			return c, nil, unitErrorf(PartVertical, c.line, "empty owner line")
		}
		c.owner = record.Owner{SequenceNumber: record.Some(c.tokens[0])}
		c.name = nil
		c.title = ""
		c.state = stateReadingOwner

	case stateReadingOwner:
		holder, err := classifyHolder(lines[c.line], c.tokens)
		if err != nil {
			return c, nil, unitErrorf(PartVertical, c.line, "%v", err)
		}
		c.owner.Holder = holder

		c.name = append([]string(nil), c.tokens[1:]...)
		if last := c.tokens[len(c.tokens)-1]; len(c.tokens) > 1 && sharePattern.MatchString(last) {
			c.owner.Share = record.Some(last)
			c.name = c.name[:len(c.name)-1]
			c.owner.FullName = record.Some(strings.Join(c.name, " "))
			// Skip the acquisition-title label that follows the owner line.
			c.line += 2
			c.state = stateReadingTitle
		} else {
			c.line++
			c.state = stateSeekingShare
		}

	case stateSeekingShare:
		line, err := lineAt(lines, c.line, PartVertical)
		if err != nil {
			return c, nil, err
		}
		if sharePattern.MatchString(line) {
			c.owner.Share = record.Some(strings.TrimSpace(line))
			c.owner.FullName = record.Some(strings.Join(c.name, " "))
			c.line += 2
			c.state = stateReadingTitle
		} else {
			c.name = append(c.name, strings.TrimSpace(line))
			c.line++
		}

	case stateReadingTitle:
		line, err := lineAt(lines, c.line, PartVertical)
		if err != nil {
			return c, nil, err
		}
		if strings.HasPrefix(line, otherInfoLabel) {
			c.owner.AcquisitionTitle = record.Some(c.title)
			c.line++
			c.state = stateReadingOtherInfo
		} else {
			c.title += line
			c.line++
		}

	case stateReadingOtherInfo:
		line, err := lineAt(lines, c.line, PartVertical)
		if err != nil {
			return c, nil, err
		}
		c.owner.OtherInfo2 = record.Some(line)
		c.state = stateSeekingContinuation
		owner := c.owner
		return c, &owner, nil

	case stateSeekingContinuation:
		if !hasLineWithPrefix(lines, c.line, nextAcquisitionMarker) {
			c.state = stateNoMoreOwners
			return c, nil, nil
		}
		next, found, err := findContinuation(lines, c.line)
		if err != nil {
			return c, nil, err
		}
		if !found {
			c.state = stateUnresolvedContinuation
			return c, nil, nil
		}
		c.line = next
		c.state = stateReadingSequence

	default:
		return c, nil, unitErrorf(PartVertical, c.line, "no transition from state %q", c.state)
	}
	return c, nil, nil
}

// classifyHolder decides between an institution, marked by a tax-id label on
// the owner line, and a natural person named by the first two name tokens.
func classifyHolder(ownerLine string, tokens []string) (record.Holder, error) {
	if strings.Contains(ownerLine, institutionMarker) {
		return record.Institution(), nil
	}
	if len(tokens) < 3 {
		return record.Holder{}, fmt.Errorf("want first and last name, got %d tokens", len(tokens))
	}
	first := leadingUpper(tokens[1])
	last := strings.TrimSuffix(leadingUpper(tokens[2]), ",")
	return record.Person(first + " " + last), nil
}

// leadingUpper upper-cases the first letter and lower-cases the rest, so
// the second half of a double surname stays lower case. A Caser is
// stateful, so one is built per call.
func leadingUpper(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Slovak).String(s[:size]) + cases.Lower(language.Slovak).String(s[size:])
}

func hasLineWithPrefix(lines []string, from int, prefix string) bool {
	for i := from; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], prefix) {
			return true
		}
	}
	return false
}

// findContinuation locates the note pair that precedes a further owner and
// returns the offset of that owner's line.
func findContinuation(lines []string, from int) (int, bool, error) {
	for i := from; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], noteMarker) {
			continue
		}
		next, err := lineAt(lines, i+1, PartVertical)
		if err != nil {
			return 0, false, err
		}
		if strings.HasPrefix(next, noConflictMarker) {
			return i + 2, true, nil
		}
	}
	return 0, false, nil
}
