package extract

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the text of every page of a PDF document, one line per row
// of glyphs, top to bottom. password is consulted for encrypted files;
// files protected only by an owner password open with the empty user
// password, so nil is usually enough.
func PDF(r io.ReaderAt, size int64, password func() string) (text string, err error) {
	// The PDF reader panics on some malformed cross-reference tables.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: malformed PDF: %v", ErrExtraction, p)
		}
	}()

	if password == nil {
		password = func() string { return "" }
	}

	reader, err := pdf.NewReaderEncrypted(r, size, oncePassword(password))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open PDF: %v", ErrExtraction, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, row := range pageRows(page.Content().Text) {
			sb.WriteString(row)
			sb.WriteByte('\n')
		}
	}
	return Normalize(sb.String()), nil
}

// glyphRow collects the glyphs sharing one baseline.
type glyphRow struct {
	y      int64
	glyphs []pdf.Text
}

// pageRows groups positioned glyphs into lines. Rows run top to bottom and
// glyphs left to right; glyphs at the same x keep their stream order, which
// covers fonts that carry no width table. A space is inserted where two
// glyphs are visibly apart.
func pageRows(glyphs []pdf.Text) []string {
	var rows []*glyphRow
	byY := make(map[int64]*glyphRow)
	for _, g := range glyphs {
		if g.S == "\n" || g.S == "" {
			continue
		}
		y := int64(math.Round(g.Y))
		row, ok := byY[y]
		if !ok {
			row = &glyphRow{y: y}
			byY[y] = row
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row.glyphs, func(i, j int) bool { return row.glyphs[i].X < row.glyphs[j].X })

		var sb strings.Builder
		for i, g := range row.glyphs {
			if i > 0 {
				prev := row.glyphs[i-1]
				gap := g.X - (prev.X + prev.W)
				if gap > spaceGap(prev) && prev.S != " " && g.S != " " {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(g.S)
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// spaceGap is the horizontal distance past which two glyphs read as
// separate words.
func spaceGap(g pdf.Text) float64 {
	if g.FontSize > 0 {
		return g.FontSize * 0.2
	}
	return 1
}

// oncePassword stops the reader from retrying forever: it asks for the
// password once, then answers with the empty string, which ends the
// decryption attempts.
func oncePassword(password func() string) func() string {
	asked := false
	return func() string {
		if asked {
			return ""
		}
		asked = true
		return password()
	}
}
