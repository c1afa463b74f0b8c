package lv

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/coolbeans/lvparse/pkg/abbrev"
	"github.com/coolbeans/lvparse/pkg/record"
)

type captureReporter struct {
	mu    sync.Mutex
	keys  []string
	lines [][]string
}

func (c *captureReporter) Report(key string, lines []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	c.lines = append(c.lines, lines)
}

// sampleDocument mixes every layout and failure mode the parser handles.
func sampleDocument() string {
	return document(
		// 1: spread layout, single owner.
		unitText(spreadHead("Mosk.19"), join(ownerHeader(), ownerEntry("1 Jana Nováková 1/2", "Kúpna zmluva V 1234/2010"))),
		// 2: compact layout, two co-owners.
		unitText(compactHead(), join(
			ownerHeader(),
			ownerEntry("2 Ján Novák 1/2", "Kúpna zmluva V 77/2011"),
			continuation,
			ownerEntry("3 Eva Nováková 1/2", "Kúpna zmluva V 77/2011"),
		)),
		// 3: owner part cannot be parsed.
		unitText(leakedHead(), join(ownerHeader(), []string{"4 Peter Horváth"})),
		// 4: institution with an unresolved co-owner.
		unitText(spreadHead("Polna 19"), join(
			ownerHeader(),
			ownerEntry("5 Mesto Bratislava, IČO: 00603481 1/2", "Zákon č. 138/1991 Zb."),
			[]string{"Poznámka: V-55/2015", "záložné právo"},
			ownerEntry("6 Eva Kováčová 1/2", "Darovacia zmluva"),
		)),
		// 5: unit part cannot be parsed.
		unitText([]string{" (číslo)", "Polna 21"}, join(ownerHeader(), ownerEntry("7 Ján Kováč 1/1", "Dedičstvo"))),
	)
}

func newTestParser(opts ...Option) *Parser {
	base := []Option{
		WithAbbreviations(abbrev.MustTable(abbrev.Rule{Prefix: "Mosk", Full: "Moskovská"})),
		WithClock(func() time.Time { return time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC) }),
	}
	return NewParser(append(base, opts...)...)
}

func TestParseSampleDocument(t *testing.T) {
	reporter := &captureReporter{}
	result, err := newTestParser(WithReporter(reporter)).Parse(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if result.Units != 5 {
		t.Errorf("Units = %d, want 5", result.Units)
	}
	if result.FailedUnits != 2 {
		t.Errorf("FailedUnits = %d, want 2", result.FailedUnits)
	}
	if len(result.Records) != 7 {
		t.Fatalf("len(Records) = %d, want 7", len(result.Records))
	}

	wantSeq := []record.Text{
		record.Some("1"), record.Some("2"), record.Some("3"),
		record.Null,
		record.Some("5"), record.Null,
		record.Null,
	}
	for i, want := range wantSeq {
		if got := result.Records[i].Owner.SequenceNumber; got != want {
			t.Errorf("record %d sequence number = %+v, want %+v", i, got, want)
		}
	}

	if got := result.Records[0].Unit.EntranceAddress; got != record.Some("Moskovská 19") {
		t.Errorf("record 0 address = %+v, want Moskovská 19", got)
	}
	if result.Records[1].Unit != result.Records[2].Unit {
		t.Error("co-owners of unit 2 should share horizontal fields")
	}

	// Owner failure keeps the parsed unit fields.
	if got := result.Records[3].Unit.RegistrationNumber; got != record.Some("4321") {
		t.Errorf("record 3 registration number = %+v, want 4321", got)
	}
	if result.Records[3].HasOwner() {
		t.Error("record 3 should have null owner fields")
	}

	if got := result.Records[4].Owner.Holder.ShortName(); got != record.Some(record.InstitutionLabel) {
		t.Errorf("record 4 short name = %+v, want Institution", got)
	}

	// Unit failure nulls everything.
	if result.Records[6] != (record.Record{}) {
		t.Errorf("record 6 = %+v, want all null", result.Records[6])
	}

	if len(result.Diagnostics) != 2 {
		t.Errorf("Diagnostics = %q, want 2 entries", result.Diagnostics)
	}
	if len(reporter.keys) != 1 || reporter.keys[0] != "2024_03_05" {
		t.Errorf("reporter keys = %q, want [2024_03_05]", reporter.keys)
	}
	if len(reporter.lines) == 1 && len(reporter.lines[0]) != 2 {
		t.Errorf("reported %d diagnostics, want 2", len(reporter.lines[0]))
	}
}

func TestParseScenarioPersonShare(t *testing.T) {
	doc := document(unitText(spreadHead("Polna 19"), join(ownerHeader(), ownerEntry("1 Jana Nováková 1/2", "Kúpna zmluva"))))
	result, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	owner := result.Records[0].Owner
	if owner.Holder.ShortName() != record.Some("Jana Nováková") {
		t.Errorf("short name = %+v, want Jana Nováková", owner.Holder.ShortName())
	}
	if owner.Share != record.Some("1/2") {
		t.Errorf("share = %+v, want 1/2", owner.Share)
	}
	if strings.Contains(owner.FullName.String, "1/2") {
		t.Errorf("full name %q should not contain the share", owner.FullName.String)
	}
}

func TestParseScenarioLeakedRegistrationLabel(t *testing.T) {
	doc := document(unitText(leakedHead(), join(ownerHeader(), ownerEntry("1 Jana Nováková 1/2", "Kúpna zmluva"))))
	result, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	unit := result.Records[0].Unit
	if unit.SpaceShare != record.Some("") {
		t.Errorf("space share = %+v, want empty", unit.SpaceShare)
	}
	if unit.RegistrationNumber != record.Some("4321") {
		t.Errorf("registration number = %+v, want line 11 value 4321", unit.RegistrationNumber)
	}
}

func TestParseScenarioCoOwners(t *testing.T) {
	doc := document(unitText(spreadHead("Polna 19"), join(
		ownerHeader(),
		ownerEntry("1 Ján Novák 1/2", "Kúpna zmluva"),
		continuation,
		ownerEntry("2 Jana Nováková 1/2", "Kúpna zmluva"),
	)))
	result, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(result.Records))
	}
	first, second := result.Records[0], result.Records[1]
	if first.Unit != second.Unit {
		t.Error("co-owners should share horizontal fields")
	}
	if first.Owner.SequenceNumber == second.Owner.SequenceNumber {
		t.Error("co-owners should have distinct sequence numbers")
	}
	if first.Owner.FullName == second.Owner.FullName {
		t.Error("co-owners should have distinct names")
	}
}

func TestParseScenarioUnresolvedCoOwner(t *testing.T) {
	doc := document(unitText(spreadHead("Polna 19"), join(
		ownerHeader(),
		ownerEntry("1 Ján Novák 1/2", "Kúpna zmluva"),
		ownerEntry("2 Jana Nováková 1/2", "Kúpna zmluva"),
	)))
	result, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(result.Records))
	}
	second := result.Records[1]
	for _, name := range record.Fields[6:] {
		if v, _ := second.Get(name); !v.IsNull() {
			t.Errorf("%s = %+v, want null", name, v)
		}
	}
	if second.Unit != spreadUnit() {
		t.Errorf("unresolved co-owner unit = %+v", second.Unit)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("unresolved co-owner is not a failure, got diagnostics %q", result.Diagnostics)
	}
}

func TestParseScenarioInstitution(t *testing.T) {
	doc := document(unitText(spreadHead("Polna 19"), join(ownerHeader(), ownerEntry("1 Slovenská republika, IČO: 00151742 1/1", "Zákon"))))
	result, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := result.Records[0].Owner.Holder.ShortName(); got != record.Some("Institution") {
		t.Errorf("short name = %+v, want Institution", got)
	}
}

func TestParseFailedUnitYieldsOnePlaceholder(t *testing.T) {
	// The first owner parses, the second fails: the unit still yields a
	// single record.
	doc := document(unitText(spreadHead("Polna 19"), join(
		ownerHeader(),
		ownerEntry("1 Ján Novák 1/2", "Kúpna zmluva"),
		continuation,
		[]string{"2 Jana"},
		[]string{"Titul nadobudnutia"},
	)))
	result, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(result.Records))
	}
	if result.Records[0].HasOwner() {
		t.Errorf("placeholder owner = %+v, want null", result.Records[0].Owner)
	}
	if result.FailedUnits != 1 {
		t.Errorf("FailedUnits = %d, want 1", result.FailedUnits)
	}
}

func TestParseMissingOwnerHeader(t *testing.T) {
	doc := document("Vchod (číslo)\nPolna 19\nno owner header here\n")
	result, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(result.Records) != 1 || result.Records[0] != (record.Record{}) {
		t.Errorf("Records = %+v, want one null record", result.Records)
	}
	if len(result.Diagnostics) != 1 || !strings.Contains(result.Diagnostics[0], string(PartBlock)) {
		t.Errorf("Diagnostics = %q", result.Diagnostics)
	}
}

func TestParseSectionNotFound(t *testing.T) {
	reporter := &captureReporter{}
	_, err := NewParser(WithReporter(reporter)).Parse(context.Background(), "LIST VLASTNÍCTVA\nČASŤ A\n")
	if !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("Parse() error = %v, want ErrSectionNotFound", err)
	}
	if len(reporter.keys) != 0 {
		t.Error("fatal errors should not be reported as diagnostics")
	}
}

func TestParseIsDeterministic(t *testing.T) {
	doc := sampleDocument()
	parser := newTestParser()

	first, err := parser.Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, err := parser.Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(first, second, recordOpts); diff != "" {
		t.Errorf("repeated Parse() differs (-first +second):\n%s", diff)
	}
}

func TestParseWorkersPreserveRecordOrder(t *testing.T) {
	units := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		units = append(units, unitText(spreadHead("Polna 19"), join(ownerHeader(), ownerEntry(
			strconv.Itoa(i+1)+" Ján Novák 1/1", "Kúpna zmluva"))))
	}
	units = append(units, unitText([]string{" (číslo)"}, ownerHeader()))
	doc := document(units...)

	sequential, err := newTestParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	parallel, err := newTestParser(WithWorkers(8)).Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(sequential.Records, parallel.Records, recordOpts); diff != "" {
		t.Errorf("parallel records differ (-sequential +parallel):\n%s", diff)
	}
	if len(parallel.Diagnostics) != 1 {
		t.Errorf("parallel Diagnostics = %q, want 1 entry", parallel.Diagnostics)
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		_, err := NewParser(WithWorkers(workers)).Parse(ctx, sampleDocument())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: Parse() error = %v, want context.Canceled", workers, err)
		}
	}
}

func TestIdenticalFailuresShareOneDiagnostic(t *testing.T) {
	broken := unitText(leakedHead(), join(ownerHeader(), []string{"4 Peter Horváth"}))
	// A well-formed last unit keeps the section trailer out of the broken ones.
	last := unitText(spreadHead("Polna 19"), join(ownerHeader(), ownerEntry("9 Ján Novák 1/1", "Kúpna zmluva")))
	result, err := NewParser().Parse(context.Background(), document(broken, broken, broken, last))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.FailedUnits != 3 {
		t.Errorf("FailedUnits = %d, want 3", result.FailedUnits)
	}
	if len(result.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %q, want 1 entry", result.Diagnostics)
	}
}
