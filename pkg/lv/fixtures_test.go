package lv

import (
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/coolbeans/lvparse/pkg/record"
)

// recordOpts lets cmp look inside record.Holder.
var recordOpts = cmp.AllowUnexported(record.Holder{})

// spreadHead is the default horizontal layout: one value per line.
func spreadHead(address string) []string {
	return []string{
		" (číslo)",
		address,
		"Posch. (číslo)",
		"8",
		"Byt (číslo)",
		"33",
		"Podiel priestoru na spoločných častiach",
		"a spoločných zariadeniach domu",
		"a na príslušenstve",
		"a spoluvlastnícky podiel k pozemku",
		"6542/256789",
		"Súpisné číslo",
		"1234",
		"Druh stavby: 9",
		"Iné údaje:",
		"Bez zápisu.",
	}
}

// leakedHead is the default layout where the registration label is printed
// on the share line.
func leakedHead() []string {
	return []string{
		" (číslo)",
		"Polna 19",
		"Posch. (číslo)",
		"2",
		"Byt (číslo)",
		"7",
		"Podiel priestoru na spoločných častiach",
		"a spoločných zariadeniach domu",
		"a na príslušenstve",
		"a spoluvlastnícky podiel k pozemku",
		"Súpisné číslo",
		"4321",
		"Druh stavby: 9",
		"Iné údaje:",
		"Stavba postavená na pozemku parc. 12/3",
	}
}

// compactHead is the layout whose header row carries the floor label.
func compactHead() []string {
	return []string{
		" (číslo) Poschodie Číslo bytu Podiel priestoru",
		"Polna 19 8 33 častiach a spoločných",
		"zariadeniach domu",
		"a spoluvlastnícky podiel k pozemku",
		"6542/256789",
		"Súpisné číslo",
		"1234",
		"Druh stavby: 9",
		"Iné údaje",
		"Iné údaje:",
		"Bez zápisu.",
	}
}

// ownerHeader is the standard vertical header: the first owner line sits at
// offset 7.
func ownerHeader() []string {
	return []string{
		"Poradové číslo Priezvisko, meno (názov), rodné priezvisko, dátum narodenia,",
		"rodné číslo (IČO) a miesto trvalého pobytu (sídlo) vlastníka",
		"Spoluvlastnícky",
		"podiel",
		"Účastník právneho vzťahu: Vlastník",
		"",
		"Časť B: VLASTNÍCI",
	}
}

// compressedOwnerHeader puts the first owner line at offset 4.
func compressedOwnerHeader() []string {
	return []string{
		"Poradové číslo Priezvisko, meno (názov) Spoluvlastnícky podiel Titul nadobudnutia",
		"rodné číslo (IČO) a miesto trvalého pobytu (sídlo) vlastníka",
		"Účastník právneho vzťahu: Vlastník",
		"",
	}
}

// ownerEntry is one owner: owner line, title label, title lines, other-info
// label and value.
func ownerEntry(ownerLine string, title ...string) []string {
	lines := []string{ownerLine, "Titul nadobudnutia"}
	lines = append(lines, title...)
	return append(lines, "Iné údaje:", "Bez zápisu")
}

// continuation is the note pair that precedes a further co-owner.
var continuation = []string{"Poznámka:", "Bez zápisu"}

func join(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// unitText renders one unit as it appears in the extracted text.
func unitText(head, vertical []string) string {
	return "Vchod" + strings.Join(head, "\n") + "\n" + strings.Join(vertical, "\n") + "\n"
}

// document wraps unit texts in the surrounding ownership list.
func document(units ...string) string {
	var sb strings.Builder
	sb.WriteString("LIST VLASTNÍCTVA č. 1234\n")
	sb.WriteString("Katastrálne územie: Staré Mesto\n")
	sb.WriteString("ČASŤ B: VLASTNÍCI A INÉ OPRÁVNENÉ OSOBY\n")
	for _, u := range units {
		sb.WriteString(u)
	}
	sb.WriteString("ČASŤ C: ŤARCHY\n")
	sb.WriteString("Záložné právo v prospech banky\n")
	return sb.String()
}

func spreadUnit() record.Unit {
	return record.Unit{
		EntranceAddress:    record.Some("Polna 19"),
		Floor:              record.Some("8"),
		UnitNumber:         record.Some("33"),
		SpaceShare:         record.Some("6542/256789"),
		RegistrationNumber: record.Some("1234"),
		OtherInfo1:         record.Some("Bez zápisu."),
	}
}
