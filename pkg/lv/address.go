package lv

import (
	"strings"

	"github.com/coolbeans/lvparse/pkg/abbrev"
)

// CorrectAddress normalizes an entrance address such as "Mosk.19" or
// "Polna19" into "street number" form, expanding known street abbreviations.
func CorrectAddress(raw string, table abbrev.Table) string {
	var tokens []string
	if strings.Contains(raw, ".") {
		for _, part := range strings.Split(raw, ".") {
			if part = strings.TrimSpace(part); part != "" {
				tokens = append(tokens, part)
			}
		}
	} else {
		tokens = strings.Fields(raw)
	}
	if len(tokens) == 0 {
		return raw
	}

	if len(tokens) == 1 {
		if name, number := splitTrailingNumber(tokens[0]); name != "" && number != "" {
			tokens = []string{name, number}
		}
	}
	if full, ok := table.Expand(tokens[0]); ok {
		tokens[0] = full
	}
	return strings.Join(tokens, " ")
}

// splitTrailingNumber splits "Polna19" into "Polna" and "19".
func splitTrailingNumber(s string) (name, number string) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[:i], s[i:]
}
