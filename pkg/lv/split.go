package lv

import "strings"

const (
	unitMarker     = "Vchod"
	verticalMarker = "Poradové"
)

// SplitUnits breaks an isolated section into unit blocks. The fragment
// before the first marker is always empty and is dropped.
func SplitUnits(section string) []string {
	parts := strings.Split(section, unitMarker)
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}

// splitBlock divides a unit block into its horizontal and vertical lines.
func splitBlock(block string) (horizontal, vertical []string, err error) {
	i := strings.Index(block, verticalMarker)
	if i < 0 {
		return nil, nil, unitErrorf(PartBlock, -1, "missing %q owner header", verticalMarker)
	}
	return splitLines(block[:i]), splitLines(block[i:]), nil
}

// splitLines splits on \n or \r\n and drops trailing empty lines, so the
// line offsets match the document's printed layout.
func splitLines(s string) []string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineAt returns lines[i] or a UnitError naming the missing line.
func lineAt(lines []string, i int, part Part) (string, error) {
	if i < 0 || i >= len(lines) {
		return "", unitErrorf(part, i, "out of range (%d lines)", len(lines))
	}
	return lines[i], nil
}
